package core

// mapping.go resolves theater names to selling platforms.
//
// The mapping table is loaded once from a two-column (theater,
// platform) source and is immutable for the duration of a session.
// Reload is an explicit atomic pointer swap via MappingHolder, so
// in-flight evaluations keep the snapshot they already read.

import (
	"sort"
	"strings"
	"sync/atomic"
)

// synonymSuffixes are venue words treated as equivalent noise at the
// end of a theater name: "Grand Theatre", "Grand Theater", and
// "Grand Venue" all resolve to the same key.
var synonymSuffixes = map[string]bool{
	"theater": true,
	"theatre": true,
	"venue":   true,
}

// NormalizeTheaterKey produces the lookup key for a theater name:
// trimmed, internal whitespace collapsed, lowercased, with a single
// trailing synonym suffix stripped.
func NormalizeTheaterKey(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) > 1 && synonymSuffixes[fields[len(fields)-1]] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// MappingEntry is one (theater, platform) pair from the mapping source.
type MappingEntry struct {
	Theater  string `json:"theater"`
	Platform string `json:"platform"`
}

// TheaterMapping is the immutable theater -> platforms lookup table.
// A theater may sell on several platforms; a theater absent from the
// table resolves to the empty set, never an error.
type TheaterMapping struct {
	entries   []MappingEntry
	byKey     map[string][]string
	platforms []string
}

// NewTheaterMapping builds the lookup table from ordered pairs.
// Duplicate (theater, platform) pairs collapse; platform sets and the
// platform universe come out sorted for deterministic iteration.
func NewTheaterMapping(entries []MappingEntry) *TheaterMapping {
	m := &TheaterMapping{
		entries: append([]MappingEntry(nil), entries...),
		byKey:   make(map[string][]string),
	}

	seen := make(map[string]map[string]bool)
	allPlatforms := make(map[string]bool)

	for _, e := range entries {
		key := NormalizeTheaterKey(e.Theater)
		platform := strings.TrimSpace(e.Platform)
		if key == "" || platform == "" {
			continue
		}
		if seen[key] == nil {
			seen[key] = make(map[string]bool)
		}
		if seen[key][platform] {
			continue
		}
		seen[key][platform] = true
		m.byKey[key] = append(m.byKey[key], platform)
		allPlatforms[platform] = true
	}

	for key := range m.byKey {
		sort.Strings(m.byKey[key])
	}
	for p := range allPlatforms {
		m.platforms = append(m.platforms, p)
	}
	sort.Strings(m.platforms)

	return m
}

// Resolve returns the sorted platform set for a theater name, or an
// empty set for an unmapped theater. Pure function of the table.
func (m *TheaterMapping) Resolve(name string) []string {
	platforms := m.byKey[NormalizeTheaterKey(name)]
	if len(platforms) == 0 {
		return nil
	}
	return append([]string(nil), platforms...)
}

// Sells reports whether a theater sells on the given platform.
func (m *TheaterMapping) Sells(theater, platform string) bool {
	for _, p := range m.byKey[NormalizeTheaterKey(theater)] {
		if p == platform {
			return true
		}
	}
	return false
}

// Platforms returns the sorted distinct platform universe.
func (m *TheaterMapping) Platforms() []string {
	return append([]string(nil), m.platforms...)
}

// Entries returns the source pairs in their original order.
func (m *TheaterMapping) Entries() []MappingEntry {
	return append([]MappingEntry(nil), m.entries...)
}

// Len returns the number of distinct mapped theaters.
func (m *TheaterMapping) Len() int {
	return len(m.byKey)
}

// MappingHolder hands out the current mapping snapshot and supports
// explicit reload as an atomic swap. Callers that already hold a
// snapshot are unaffected by a concurrent swap.
type MappingHolder struct {
	ptr atomic.Pointer[TheaterMapping]
}

// NewMappingHolder wraps an initial mapping snapshot.
func NewMappingHolder(m *TheaterMapping) *MappingHolder {
	h := &MappingHolder{}
	h.ptr.Store(m)
	return h
}

// Current returns the active mapping snapshot.
func (h *MappingHolder) Current() *TheaterMapping {
	return h.ptr.Load()
}

// Swap replaces the mapping snapshot. Never mutates in place.
func (h *MappingHolder) Swap(m *TheaterMapping) {
	h.ptr.Store(m)
}
