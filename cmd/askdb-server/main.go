package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askdb/askdb/internal/api"
	"github.com/askdb/askdb/internal/assist"
	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/embedded"
	"github.com/askdb/askdb/internal/employee"
	"github.com/askdb/askdb/internal/history/archive"
	historypostgres "github.com/askdb/askdb/internal/history/postgres"
	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/query/sqldb"
	s3store "github.com/askdb/askdb/internal/storage/s3"
	"github.com/askdb/askdb/internal/ui"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to read .env", slog.Any("error", err))
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv("askdb-server")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	database := embedded.Config{Driver: cfg.Store.Driver, Path: cfg.Store.Path}
	if cfg.Store.AutoSeed {
		if err := seedStore(context.Background(), database, cfg.Store.Table, logger); err != nil {
			logger.Error("failed to initialize employee store", slog.Any("error", err))
			os.Exit(1)
		}
	}
	employees := employee.FileLister{Database: database, Table: cfg.Store.Table}

	policy := query.ReadOnlyPolicy
	if cfg.SQL.Policy == config.SQLPolicyUnrestricted {
		policy = query.UnrestrictedPolicy
	}
	engine := sqldb.NewEngine(database, policy)

	opts := assist.Options{Engine: engine, Logger: logger}
	if cfg.AI.HasCredential() {
		assistant, err := nl2sql.NewAssistantFromConfig(cfg.AI, cfg.Store.Table)
		if err != nil {
			logger.Error("failed to initialize assistant", slog.Any("error", err))
			os.Exit(1)
		}
		opts.Translator = assistant
		opts.Explainer = assistant
	} else {
		logger.Warn("no API key configured; question translation disabled", slog.String("provider", cfg.AI.Provider))
	}

	readiness := []api.ReadinessCheck{api.NamedCheck("employee store", employees.HealthCheck)}
	deps := api.Dependencies{
		Logger:            logger,
		DependencyTimeout: 2 * time.Second,
		Employees:         employees,
	}

	if cfg.History.Enabled() {
		historyDB, err := historypostgres.Open(context.Background(), historypostgres.DBConfigFrom(cfg.History))
		if err != nil {
			logger.Error("failed to open history db", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = historyDB.Close() }()

		repo := historypostgres.NewRepository(historyDB)
		opts.Recorder = repo
		deps.History = repo
		readiness = append(readiness, api.NamedCheck("history", repo.HealthCheck))

		if cfg.ObjectStore.Enabled {
			store, err := s3store.New(context.Background(), s3store.ConfigFrom(cfg.ObjectStore))
			if err != nil {
				logger.Error("failed to initialize object store", slog.Any("error", err))
				os.Exit(1)
			}
			exporter, err := archive.NewExporter(repo, store, archive.Config{
				Prefix:     cfg.Archive.Prefix,
				BatchLimit: cfg.Archive.BatchLimit,
			})
			if err != nil {
				logger.Error("failed to initialize history archive", slog.Any("error", err))
				os.Exit(1)
			}
			deps.Archive = exporter
			readiness = append(readiness, api.NamedCheck("object store", store.HealthCheck))
		}
	}

	pipeline, err := assist.New(opts)
	if err != nil {
		logger.Error("failed to initialize question pipeline", slog.Any("error", err))
		os.Exit(1)
	}
	deps.Pipeline = pipeline
	deps.Readiness = api.CombineReadinessChecks(readiness...)
	deps.UI = ui.NewHandler(ui.Options{
		Pipeline:   pipeline,
		Employees:  employees,
		DatabaseID: engine.Identifier(),
		Logger:     logger,
	})

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting askdb server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("database", engine.Identifier()),
			slog.Bool("ai_configured", pipeline.Configured()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("askdb server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down askdb server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func seedStore(ctx context.Context, database embedded.Config, table string, logger *slog.Logger) error {
	db, err := embedded.Open(ctx, database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	inserted, err := employee.NewStore(db, database.Driver, table).Initialize(ctx)
	if err != nil {
		return err
	}
	observability.AddSeededRows(inserted)
	if inserted > 0 {
		logger.Info("seeded employee table", slog.String("table", table), slog.Int("rows", inserted))
	}
	return nil
}
