package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/ticketfusion/sheetsync/internal/config"
	"github.com/ticketfusion/sheetsync/internal/core"
	"github.com/ticketfusion/sheetsync/internal/logging"
	"github.com/ticketfusion/sheetsync/internal/schema"
	"github.com/ticketfusion/sheetsync/internal/source"
	"github.com/ticketfusion/sheetsync/internal/store"
	"github.com/ticketfusion/sheetsync/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"header_row", cfg.Ingest.HeaderRow,
		"mapping_file", cfg.Mapping.File,
		"cutoff_days", cfg.Availability.CutoffDays,
	)

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	recordStore := store.New(pool)
	if err := recordStore.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	// The mapping table is loaded once at startup and is read-only for
	// the session; POST /api/mapping/reload swaps in a fresh snapshot.
	mapping, err := source.LoadMappingFile(cfg.Mapping.File)
	if err != nil {
		slog.Error("failed to load theater mapping", "file", cfg.Mapping.File, "error", err)
		os.Exit(1)
	}
	slog.Info("theater mapping loaded",
		"file", cfg.Mapping.File,
		"theaters", mapping.Len(),
		"platforms", len(mapping.Platforms()),
	)

	service := core.NewService(
		recordStore,
		core.NewMappingHolder(mapping),
		schema.OrderFieldSpecs,
		core.HeaderConfig{RowIndex: cfg.Ingest.HeaderRow},
		core.WindowConfig{
			CutoffDays:     cfg.Availability.CutoffDays,
			MaxAdvanceDays: cfg.Availability.MaxAdvanceDays,
		},
	)

	server := web.NewServer(service, cfg)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
