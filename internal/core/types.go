// Package core provides the business logic for ticket-sheet ingestion.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Row is one raw spreadsheet row. Cells are heterogeneous: the sheet
// source may deliver strings, numbers, time.Time values, or nil for
// empty cells.
type Row []any

// Field is a canonical record field name to which one or more raw
// column labels may alias.
type Field string

const (
	FieldTheater   Field = "theater"
	FieldEvent     Field = "event"
	FieldSoldDate  Field = "sold_date"
	FieldEventDate Field = "event_date"
	FieldPlatform  Field = "platform"
	FieldPrice     Field = "price"
)

// FieldKind represents the expected data type for a canonical field.
type FieldKind int

const (
	KindText FieldKind = iota
	KindDate
	KindNumeric
)

// FieldSpec declares one canonical field: the raw column labels that
// alias to it, its type, and whether a row without it is rejected.
type FieldSpec struct {
	Field    Field
	Kind     FieldKind
	Labels   []string // accepted raw header labels, matched case-insensitively
	Required bool
}

// ColumnMap is the result of header resolution: canonical field to
// column index, plus raw labels that matched no canonical field.
type ColumnMap struct {
	Fields map[Field]int
	Extra  map[string]int // unmatched header label -> column index
}

// Index returns the column index for a canonical field.
func (m ColumnMap) Index(f Field) (int, bool) {
	i, ok := m.Fields[f]
	return i, ok
}

// TicketRecord is the canonical unit of ingested data. Records are
// immutable once built; re-uploads supersede by identity key rather
// than mutating in place.
type TicketRecord struct {
	Theater   string
	Event     string
	SoldDate  pgtype.Date
	EventDate pgtype.Date
	Platform  pgtype.Text
	Price     pgtype.Numeric
	SourceRow int // original row index, diagnostics only
}

// RecordKey is the identity key used to match records across uploads.
type RecordKey struct {
	Theater  string
	Event    string
	SoldDate string // YYYY-MM-DD, empty when the date is null
}

// Key returns the record's identity key (theater, event, sold_date).
func (r TicketRecord) Key() RecordKey {
	return RecordKey{
		Theater:  r.Theater,
		Event:    r.Event,
		SoldDate: dateKey(r.SoldDate),
	}
}

// RowHash returns a stable sha256 hex digest over the identity fields,
// used as the store's conflict key.
func (r TicketRecord) RowHash() string {
	k := r.Key()
	h := sha256.Sum256([]byte(k.Theater + "|" + k.Event + "|" + k.SoldDate))
	return hex.EncodeToString(h[:])
}

// Equal reports whether two records carry the same field values.
// SourceRow is diagnostic metadata and does not participate.
func (r TicketRecord) Equal(o TicketRecord) bool {
	return r.Theater == o.Theater &&
		r.Event == o.Event &&
		dateEqual(r.SoldDate, o.SoldDate) &&
		dateEqual(r.EventDate, o.EventDate) &&
		textEqual(r.Platform, o.Platform) &&
		numericEqual(r.Price, o.Price)
}

func dateKey(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

func dateEqual(a, b pgtype.Date) bool {
	if a.Valid != b.Valid {
		return false
	}
	if !a.Valid {
		return true
	}
	ay, am, ad := a.Time.Date()
	by, bm, bd := b.Time.Date()
	return ay == by && am == bm && ad == bd
}

func textEqual(a, b pgtype.Text) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.String == b.String
}

// numericEqual compares two pgtype.Numeric values through their string
// form with trailing zeros stripped, so 150.00 and 150.0 compare equal.
func numericEqual(a, b pgtype.Numeric) bool {
	if a.Valid != b.Valid {
		return false
	}
	if !a.Valid {
		return true
	}
	if a.NaN || b.NaN {
		return a.NaN == b.NaN
	}
	return canonNumeric(a) == canonNumeric(b)
}

// RejectedRow records a data row that could not be normalized, with
// enough context to render actionable diagnostics.
type RejectedRow struct {
	Row    int    `json:"row"`              // original row index in the source sheet
	Field  Field  `json:"field,omitempty"`  // field that caused the rejection, if any
	Value  string `json:"value,omitempty"`  // offending raw value
	Reason string `json:"reason"`           // human-readable reason
}

// Reason classifies why an (event, platform) pair is or is not sellable.
type Reason string

const (
	ReasonOK               Reason = "OK"
	ReasonSoldOut          Reason = "SOLD_OUT"
	ReasonPlatformMismatch Reason = "PLATFORM_MISMATCH"
	ReasonWindowClosed     Reason = "WINDOW_CLOSED"
)

// AvailabilityDecision is the sellability determination for one
// (event, platform) pair.
type AvailabilityDecision struct {
	Event     string `json:"event"`
	Platform  string `json:"platform"`
	Available bool   `json:"available"`
	Reason    Reason `json:"reason"`
}

// WindowConfig bounds the sellable window relative to an event date.
// A zero value on either side leaves that side open.
type WindowConfig struct {
	// CutoffDays closes sales this many days before the event date.
	// Sales are always closed once the event date has passed.
	CutoffDays int
	// MaxAdvanceDays closes sales further than this many days before
	// the event date. Zero disables the early bound.
	MaxAdvanceDays int
}

// SyncAction classifies a reconciliation plan entry.
type SyncAction string

const (
	ActionInsert    SyncAction = "INSERT"
	ActionUpdate    SyncAction = "UPDATE"
	ActionUnchanged SyncAction = "UNCHANGED"
)

// SyncDiff is one reconciliation plan entry. Old is nil for inserts.
type SyncDiff struct {
	Key    RecordKey
	Action SyncAction
	Old    *TicketRecord
	New    *TicketRecord
}

// KeyCollision reports two records in a single input sharing an
// identity key with materially different field values. The later
// record wins by default, but the ambiguity is surfaced.
type KeyCollision struct {
	Key     RecordKey     `json:"key"`
	Kept    TicketRecord  `json:"-"`
	Dropped TicketRecord  `json:"-"`
	KeptRow int           `json:"keptRow"`
	DropRow int           `json:"droppedRow"`
}

// ReconcileResult is the full output of a reconciliation pass.
// Removed carries keys present only in the previous set; whether to
// delete them is the store's policy, not decided here.
type ReconcileResult struct {
	Diffs      []SyncDiff
	Removed    []TicketRecord
	Collisions []KeyCollision
}

// IngestReport summarizes one ingestion batch for the caller.
type IngestReport struct {
	BatchID    string         `json:"batchId"`
	FileName   string         `json:"fileName,omitempty"`
	TotalRows  int            `json:"totalRows"`
	Normalized int            `json:"normalized"`
	Inserted   int            `json:"inserted"`
	Updated    int            `json:"updated"`
	Unchanged  int            `json:"unchanged"`
	Rejected   []RejectedRow  `json:"rejected,omitempty"`
	Collisions []KeyCollision `json:"collisions,omitempty"`
	Duration   time.Duration  `json:"-"`
}
