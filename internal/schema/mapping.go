package schema

// Mapping sheet: a simple two-column tabular layout with a header
// row, one (theater, platform) pair per row.

// MappingTheaterLabels are accepted header labels for the theater column.
var MappingTheaterLabels = []string{"Theater", "Theatre", "Venue"}

// MappingPlatformLabels are accepted header labels for the platform column.
var MappingPlatformLabels = []string{"Platform", "Venue Platform"}
