// Package schema declares the expected layouts of the external
// spreadsheet sources: canonical fields and the raw header labels
// that alias to them.
package schema

import "github.com/ticketfusion/sheetsync/internal/core"

// OrderFieldSpecs defines the canonical fields of the ticket-sales
// (Orders) sheet. Labels are matched case-insensitively; the first
// matching column wins per field. Theater and event are the minimum
// required set: a sheet that resolves neither has no usable header.
var OrderFieldSpecs = []core.FieldSpec{
	{Field: core.FieldTheater, Kind: core.KindText, Required: true,
		Labels: []string{"Theater", "Theatre", "Venue"}},
	{Field: core.FieldEvent, Kind: core.KindText, Required: true,
		Labels: []string{"Event", "Event Name", "Show"}},
	{Field: core.FieldSoldDate, Kind: core.KindDate,
		Labels: []string{"Sold Date", "Sold", "Sale Date", "Date Sold"}},
	{Field: core.FieldEventDate, Kind: core.KindDate,
		Labels: []string{"Event Date", "Show Date", "Performance Date"}},
	{Field: core.FieldPlatform, Kind: core.KindText,
		Labels: []string{"Platform", "Venue Platform", "Site"}},
	{Field: core.FieldPrice, Kind: core.KindNumeric,
		Labels: []string{"Price", "Ticket Price", "Revenue", "Amount"}},
}
