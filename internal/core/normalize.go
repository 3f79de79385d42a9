package core

// normalize.go converts raw data rows into canonical TicketRecords.
//
// A single bad row never aborts the batch: rows that cannot resolve
// the required fields are accumulated as RejectedRows with the
// original row index and a reason, and processing continues. The
// normalizer performs no I/O.

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// NormalizeRows builds TicketRecords from the data rows below the
// header. rows must not include the header row itself; firstRow is
// the sheet index of rows[0], used for diagnostics.
//
// Coercion rules:
//   - theater and event are required; a row missing either is rejected.
//   - sold_date / event_date parse via ParseDate; failure yields null.
//   - price parses via ParsePrice (currency symbols and thousands
//     separators stripped); failure yields null.
//   - fully blank rows are skipped without rejection.
func NormalizeRows(rows []Row, cm ColumnMap, firstRow int) ([]TicketRecord, []RejectedRow) {
	records := make([]TicketRecord, 0, len(rows))
	var rejected []RejectedRow

	for i, row := range rows {
		sheetRow := firstRow + i

		if isBlankRow(row) {
			continue
		}

		theater := cellAt(row, cm, FieldTheater)
		if theater == "" {
			rejected = append(rejected, RejectedRow{
				Row:    sheetRow,
				Field:  FieldTheater,
				Reason: "missing theater",
			})
			continue
		}

		event := cellAt(row, cm, FieldEvent)
		if event == "" {
			rejected = append(rejected, RejectedRow{
				Row:    sheetRow,
				Field:  FieldEvent,
				Reason: "missing event",
			})
			continue
		}

		rec := TicketRecord{
			Theater:   theater,
			Event:     event,
			SourceRow: sheetRow,
		}

		if col, ok := cm.Index(FieldSoldDate); ok {
			rec.SoldDate = ParseDate(rawAt(row, col))
		}
		if col, ok := cm.Index(FieldEventDate); ok {
			rec.EventDate = ParseDate(rawAt(row, col))
		}
		if col, ok := cm.Index(FieldPlatform); ok {
			if s := CellString(rawAt(row, col)); s != "" {
				rec.Platform = pgtype.Text{String: s, Valid: true}
			}
		}
		if col, ok := cm.Index(FieldPrice); ok {
			rec.Price = ParsePrice(rawAt(row, col))
		}

		records = append(records, rec)
	}

	return records, rejected
}

// cellAt returns the cleaned string value of a canonical field in a
// row, or "" if the field or cell is absent.
func cellAt(row Row, cm ColumnMap, f Field) string {
	col, ok := cm.Index(f)
	if !ok {
		return ""
	}
	return CellString(rawAt(row, col))
}

// rawAt returns the raw cell at col, or nil for short rows.
func rawAt(row Row, col int) any {
	if col < 0 || col >= len(row) {
		return nil
	}
	return row[col]
}

// StringRow adapts a []string row (e.g. from encoding/csv) to a Row.
func StringRow(cells []string) Row {
	row := make(Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

// StringRows adapts a full [][]string table to []Row.
func StringRows(table [][]string) []Row {
	rows := make([]Row, len(table))
	for i, r := range table {
		rows[i] = StringRow(r)
	}
	return rows
}

// describeRejection renders a rejection for logs.
func describeRejection(r RejectedRow) string {
	if r.Field != "" {
		return fmt.Sprintf("row %d: %s (%s)", r.Row, r.Reason, r.Field)
	}
	return fmt.Sprintf("row %d: %s", r.Row, r.Reason)
}
