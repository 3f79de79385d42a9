package core

// header.go locates the header row and maps raw column labels to
// canonical fields via the alias table declared in the field specs.
//
// The header row lives at a configured offset (human-edited sheets
// often carry banners or totals above it). There is deliberately no
// heuristic scan of alternate rows: if the configured row cannot be
// resolved, the batch fails with ErrHeaderNotFound rather than
// guessing.

import (
	"fmt"
	"strings"
)

// ErrHeaderNotFound signals that the required canonical fields could
// not be located in the configured header row. It is fatal for the
// whole ingestion batch.
type ErrHeaderNotFound struct {
	RowIndex int
	Missing  []Field
	Detail   string
}

func (e *ErrHeaderNotFound) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("header not found at row %d: %s", e.RowIndex, e.Detail)
	}
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("header not found at row %d: missing required columns: %s",
		e.RowIndex, strings.Join(names, ", "))
}

// HeaderConfig names the expected header row offset (0-indexed).
type HeaderConfig struct {
	RowIndex int
}

// ResolveHeader scans the configured header row and returns the
// mapping from canonical field to column index.
//
// Matching per cell: trim, lowercase, look up against each spec's
// label list. First match wins per canonical field; later duplicate
// columns are ignored. Labels matching no spec are retained in
// ColumnMap.Extra so future fields can be added without breaking
// existing sheets.
func ResolveHeader(rows []Row, specs []FieldSpec, cfg HeaderConfig) (ColumnMap, error) {
	cm := ColumnMap{
		Fields: make(map[Field]int),
		Extra:  make(map[string]int),
	}

	if cfg.RowIndex < 0 || cfg.RowIndex >= len(rows) {
		return cm, &ErrHeaderNotFound{
			RowIndex: cfg.RowIndex,
			Detail:   fmt.Sprintf("row index out of range (sheet has %d rows)", len(rows)),
		}
	}

	header := rows[cfg.RowIndex]
	if isBlankRow(header) {
		return cm, &ErrHeaderNotFound{RowIndex: cfg.RowIndex, Detail: "header row is blank"}
	}

	// label -> field, lowercased once
	aliases := make(map[string]Field)
	for _, spec := range specs {
		for _, label := range spec.Labels {
			aliases[strings.ToLower(strings.TrimSpace(label))] = spec.Field
		}
	}

	for col, cell := range header {
		label := CellString(cell)
		if label == "" {
			continue
		}
		key := strings.ToLower(label)
		field, ok := aliases[key]
		if !ok {
			if _, dup := cm.Extra[label]; !dup {
				cm.Extra[label] = col
			}
			continue
		}
		// first occurrence wins
		if _, seen := cm.Fields[field]; seen {
			continue
		}
		cm.Fields[field] = col
	}

	var missing []Field
	for _, spec := range specs {
		if !spec.Required {
			continue
		}
		if _, ok := cm.Fields[spec.Field]; !ok {
			missing = append(missing, spec.Field)
		}
	}
	if len(missing) > 0 {
		return cm, &ErrHeaderNotFound{RowIndex: cfg.RowIndex, Missing: missing}
	}

	return cm, nil
}

func isBlankRow(row Row) bool {
	for _, cell := range row {
		if CellString(cell) != "" {
			return false
		}
	}
	return true
}
