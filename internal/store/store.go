// Package store persists canonical ticket records in PostgreSQL.
//
// The store is the sync target for reconciliation plans: it writes
// INSERT and UPDATE entries, skips UNCHANGED ones, and never decides
// deletion policy on its own. The conflict key is the record's
// row_hash (a digest of the identity key), so re-applying the same
// plan is idempotent.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ticketfusion/sheetsync/internal/core"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store provides access to the ticket_facts table.
type Store struct {
	db DBTX
}

// New creates a Store backed by the given connection or pool.
func New(db DBTX) *Store {
	return &Store{db: db}
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS ticket_facts (
	row_hash    TEXT PRIMARY KEY,
	theater     TEXT NOT NULL,
	event       TEXT NOT NULL,
	sold_date   DATE,
	event_date  DATE,
	platform    TEXT,
	price       NUMERIC,
	source_row  INTEGER NOT NULL DEFAULT 0,
	batch_id    UUID,
	ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_ticket_facts_event ON ticket_facts (event);
CREATE INDEX IF NOT EXISTS idx_ticket_facts_theater ON ticket_facts (theater);
`

// EnsureSchema creates the ticket_facts table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const upsertSQL = `
INSERT INTO ticket_facts (row_hash, theater, event, sold_date, event_date, platform, price, source_row, batch_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (row_hash) DO UPDATE SET
	theater    = excluded.theater,
	event      = excluded.event,
	sold_date  = excluded.sold_date,
	event_date = excluded.event_date,
	platform   = excluded.platform,
	price      = excluded.price,
	source_row = excluded.source_row,
	batch_id   = excluded.batch_id
`

// ApplyPlan writes the INSERT and UPDATE entries of a reconciliation
// plan. UNCHANGED entries cost nothing. Returns counts per action.
func (s *Store) ApplyPlan(ctx context.Context, diffs []core.SyncDiff, batchID pgtype.UUID) (inserted, updated int, err error) {
	for _, diff := range diffs {
		switch diff.Action {
		case core.ActionUnchanged:
			continue
		case core.ActionInsert:
			inserted++
		case core.ActionUpdate:
			updated++
		default:
			return inserted, updated, fmt.Errorf("unknown sync action %q", diff.Action)
		}

		rec := diff.New
		_, err = s.db.Exec(ctx, upsertSQL,
			rec.RowHash(),
			rec.Theater,
			rec.Event,
			rec.SoldDate,
			rec.EventDate,
			rec.Platform,
			rec.Price,
			rec.SourceRow,
			batchID,
		)
		if err != nil {
			return inserted, updated, fmt.Errorf("upsert %s/%s: %w", rec.Theater, rec.Event, err)
		}
	}
	return inserted, updated, nil
}

const selectSQL = `
SELECT theater, event, sold_date, event_date, platform, price, source_row
FROM ticket_facts
ORDER BY theater, event, sold_date NULLS FIRST
`

// LoadRecords returns all persisted records in a stable order.
func (s *Store) LoadRecords(ctx context.Context) ([]core.TicketRecord, error) {
	rows, err := s.db.Query(ctx, selectSQL)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	var records []core.TicketRecord
	for rows.Next() {
		var rec core.TicketRecord
		if err := rows.Scan(&rec.Theater, &rec.Event, &rec.SoldDate, &rec.EventDate, &rec.Platform, &rec.Price, &rec.SourceRow); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	return records, nil
}

// Count returns the number of persisted records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM ticket_facts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
