package core

// service.go wires the pipeline stages together for callers: resolve
// header, normalize, reconcile against the persisted set, apply the
// plan, evaluate availability. Each stage stays independently
// testable; the service only sequences them and talks to the store
// through a narrow interface.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// RecordStore is the persistence boundary the service depends on.
// Implemented by the PostgreSQL store; tests substitute an in-memory
// version.
type RecordStore interface {
	LoadRecords(ctx context.Context) ([]TicketRecord, error)
	ApplyPlan(ctx context.Context, diffs []SyncDiff, batchID pgtype.UUID) (inserted, updated int, err error)
}

// Service is the main entry point for ingestion and evaluation.
type Service struct {
	store   RecordStore
	mapping *MappingHolder
	specs   []FieldSpec
	header  HeaderConfig
	window  WindowConfig
}

// NewService creates a Service over the given store and mapping
// snapshot holder.
func NewService(store RecordStore, mapping *MappingHolder, specs []FieldSpec, header HeaderConfig, window WindowConfig) *Service {
	return &Service{
		store:   store,
		mapping: mapping,
		specs:   specs,
		header:  header,
		window:  window,
	}
}

// Ingest runs one uploaded sheet through the full pipeline:
// header resolution, normalization, reconciliation against the
// persisted records, and plan application. headerRow overrides the
// configured header offset when >= 0.
//
// Per-row failures never abort the batch; they come back in the
// report. A header that cannot be resolved aborts immediately.
func (s *Service) Ingest(ctx context.Context, rows []Row, fileName string, headerRow int) (*IngestReport, error) {
	start := time.Now()

	header := s.header
	if headerRow >= 0 {
		header.RowIndex = headerRow
	}

	cm, err := ResolveHeader(rows, s.specs, header)
	if err != nil {
		return nil, err
	}

	dataRows := rows[header.RowIndex+1:]
	records, rejected := NormalizeRows(dataRows, cm, header.RowIndex+1)

	for _, rej := range rejected {
		slog.Debug("row rejected", "file", fileName, "detail", describeRejection(rej))
	}

	previous, err := s.store.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load previous records: %w", err)
	}

	result := Reconcile(previous, records)

	batchID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	inserted, updated, err := s.store.ApplyPlan(ctx, result.Diffs, batchID)
	if err != nil {
		return nil, fmt.Errorf("apply plan: %w", err)
	}

	report := &IngestReport{
		BatchID:    uuid.UUID(batchID.Bytes).String(),
		FileName:   fileName,
		TotalRows:  len(dataRows),
		Normalized: len(records),
		Inserted:   inserted,
		Updated:    updated,
		Unchanged:  len(result.Diffs) - inserted - updated,
		Rejected:   rejected,
		Collisions: result.Collisions,
		Duration:   time.Since(start),
	}

	slog.Info("batch ingested",
		"batch_id", report.BatchID,
		"file", fileName,
		"rows", report.TotalRows,
		"normalized", report.Normalized,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"rejected", len(report.Rejected),
		"duration_ms", report.Duration.Milliseconds(),
	)

	return report, nil
}

// Availability evaluates the rule engine over the persisted records
// using the current mapping snapshot.
func (s *Service) Availability(ctx context.Context, asOf time.Time) ([]AvailabilityDecision, error) {
	records, err := s.store.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return Evaluate(records, s.mapping.Current(), asOf, s.window), nil
}

// Records returns the persisted canonical records.
func (s *Service) Records(ctx context.Context) ([]TicketRecord, error) {
	return s.store.LoadRecords(ctx)
}

// Mapping returns the current mapping snapshot.
func (s *Service) Mapping() *TheaterMapping {
	return s.mapping.Current()
}

// SwapMapping atomically replaces the mapping snapshot. Evaluations
// already running keep the snapshot they read.
func (s *Service) SwapMapping(m *TheaterMapping) {
	s.mapping.Swap(m)
	slog.Info("theater mapping reloaded", "theaters", m.Len(), "platforms", len(m.Platforms()))
}
