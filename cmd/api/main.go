package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"pdfannot/internal/config"
	"pdfannot/internal/database"
	"pdfannot/internal/database/migration"
	"pdfannot/internal/logging"
	"pdfannot/internal/otel"
	"pdfannot/internal/repository"
	"pdfannot/internal/repository/postgres"
	"pdfannot/internal/repository/sqlite"
	"pdfannot/internal/server"
	"pdfannot/internal/service"
	"pdfannot/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title PDF Annotation API
// @version 1.0
// @description Upload PDFs and attach positional annotations to their pages.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.Location())

	if err := run(cfg, log); err != nil {
		log.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log.With(slog.String("component", "otel")))
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	dialect := migration.Postgres
	if cfg.Database.Driver == config.DriverSQLite {
		dialect = migration.SQLite
	}
	if err := migration.Up(ctx, db, dialect, log.With(slog.String("component", "migration"))); err != nil {
		return err
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return err
	}

	var (
		docRepo repository.DocumentRepository
		annRepo repository.AnnotationRepository
	)
	if dialect == migration.SQLite {
		docRepo = sqlite.NewDocumentSQLite(db)
		annRepo = sqlite.NewAnnotationSQLite(db)
	} else {
		docRepo = postgres.NewDocumentPostgres(db)
		annRepo = postgres.NewAnnotationPostgres(db)
	}

	svcLog := log.With(slog.String("component", "service"))
	app, err := server.New(server.Deps{
		DB:             db,
		Documents:      service.NewDocumentService(store, docRepo, svcLog),
		Annotations:    service.NewAnnotationService(docRepo, annRepo, svcLog),
		Logger:         log,
		Registry:       prometheus.NewRegistry(),
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		return err
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("server_listening", slog.String("addr", addr),
			slog.String("db_driver", string(dialect)), slog.String("storage_driver", cfg.Storage.Driver))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = app.ShutdownWithContext(shutdownCtx)
	if terr := shutdownTracing(shutdownCtx); terr != nil {
		err = errors.Join(err, terr)
	}
	return err
}
