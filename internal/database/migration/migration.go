package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Dialect selects the DDL flavour. Values match config.DatabaseConfig.Driver.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

type migrationStep struct {
	Version int
	Name    string
	SQL     string
}

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
  version    INTEGER     PRIMARY KEY,
  name       TEXT        NOT NULL,
  applied_at TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

var postgresSteps = []migrationStep{
	{
		Version: 1,
		Name:    "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id       BIGSERIAL    PRIMARY KEY,
  username VARCHAR(80)  NOT NULL UNIQUE,
  email    VARCHAR(120) NOT NULL UNIQUE
);`,
	},
	{
		Version: 2,
		Name:    "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id           BIGSERIAL     PRIMARY KEY,
  filename     VARCHAR(255)  NOT NULL UNIQUE,
  storage_path VARCHAR(1024) NOT NULL,
  upload_date  TIMESTAMPTZ   NOT NULL DEFAULT now(),
  page_count   INTEGER       CHECK (page_count >= 0),
  user_id      BIGINT        REFERENCES users (id) ON DELETE SET NULL
);`,
	},
	{
		Version: 3,
		Name:    "create_table_annotations",
		SQL: `CREATE TABLE IF NOT EXISTS annotations (
  id              BIGSERIAL        PRIMARY KEY,
  document_id     BIGINT           NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  content         TEXT,
  annotation_type VARCHAR(50)      NOT NULL,
  page            INTEGER          NOT NULL,
  position_x      DOUBLE PRECISION NOT NULL,
  position_y      DOUBLE PRECISION NOT NULL,
  highlight_rects JSONB,
  created_at      TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Version: 4,
		Name:    "create_index_annotations_document_id",
		SQL:     `CREATE INDEX IF NOT EXISTS idx_annotations_document_id ON annotations (document_id);`,
	},
	{
		Version: 5,
		Name:    "create_index_documents_user_id",
		SQL:     `CREATE INDEX IF NOT EXISTS idx_documents_user_id ON documents (user_id);`,
	},
}

var sqliteSteps = []migrationStep{
	{
		Version: 1,
		Name:    "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id       INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT    NOT NULL UNIQUE,
  email    TEXT    NOT NULL UNIQUE
);`,
	},
	{
		Version: 2,
		Name:    "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id           INTEGER  PRIMARY KEY AUTOINCREMENT,
  filename     TEXT     NOT NULL UNIQUE,
  storage_path TEXT     NOT NULL,
  upload_date  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  page_count   INTEGER  CHECK (page_count >= 0),
  user_id      INTEGER  REFERENCES users (id) ON DELETE SET NULL
);`,
	},
	{
		Version: 3,
		Name:    "create_table_annotations",
		SQL: `CREATE TABLE IF NOT EXISTS annotations (
  id              INTEGER  PRIMARY KEY AUTOINCREMENT,
  document_id     INTEGER  NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  content         TEXT,
  annotation_type TEXT     NOT NULL,
  page            INTEGER  NOT NULL,
  position_x      REAL     NOT NULL,
  position_y      REAL     NOT NULL,
  highlight_rects TEXT,
  created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`,
	},
	{
		Version: 4,
		Name:    "create_index_annotations_document_id",
		SQL:     `CREATE INDEX IF NOT EXISTS idx_annotations_document_id ON annotations (document_id);`,
	},
	{
		Version: 5,
		Name:    "create_index_documents_user_id",
		SQL:     `CREATE INDEX IF NOT EXISTS idx_documents_user_id ON documents (user_id);`,
	},
}

func stepsFor(d Dialect) ([]migrationStep, string, error) {
	switch d {
	case Postgres:
		return postgresSteps, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, nil
	case SQLite:
		return sqliteSteps, `INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, nil
	default:
		return nil, "", fmt.Errorf("unsupported dialect %q", d)
	}
}

// Latest returns the highest schema version known for d.
func Latest(d Dialect) int {
	steps, _, err := stepsFor(d)
	if err != nil || len(steps) == 0 {
		return 0
	}
	return steps[len(steps)-1].Version
}

// Up applies every step newer than the recorded schema version. Each step runs
// in its own transaction together with its schema_migrations row, so a failed
// step leaves earlier steps applied and is retried on the next start.
// Existing data is never dropped.
func Up(ctx context.Context, db *sql.DB, d Dialect, log *slog.Logger) error {
	start := time.Now()
	log = log.With(slog.String("component", "database"), slog.String("dialect", string(d)))

	steps, recordSQL, err := stepsFor(d)
	if err != nil {
		return err
	}

	log.Info("db_migration_check", slog.String("status", "starting"))

	if _, err := db.ExecContext(ctx, createVersionTable); err != nil {
		log.Error("db_migration_failed",
			slog.String("status", "error"),
			slog.String("error_message", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	current, err := currentVersion(ctx, db)
	if err != nil {
		log.Error("db_migration_failed",
			slog.String("status", "error"),
			slog.String("error_message", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("read schema version: %w", err)
	}

	if current >= Latest(d) {
		log.Info("db_migration_skip",
			slog.String("status", "success"),
			slog.Int("version", current),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start", slog.String("status", "in_progress"), slog.Int("from_version", current))

	for _, step := range steps {
		if step.Version <= current {
			continue
		}
		stepStart := time.Now()
		if err := apply(ctx, db, step, recordSQL); err != nil {
			log.Error("db_migration_failed",
				slog.String("status", "error"),
				slog.String("migration_step", step.Name),
				slog.String("error_message", err.Error()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			slog.String("status", "success"),
			slog.String("migration_step", step.Name),
			slog.Int("version", step.Version),
			slog.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("db_migration_success",
		slog.String("status", "success"),
		slog.Int("version", Latest(d)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

func currentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, err
	}
	return int(v.Int64), nil
}

func apply(ctx context.Context, db *sql.DB, step migrationStep, recordSQL string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, recordSQL, step.Version, step.Name); err != nil {
		return err
	}
	return tx.Commit()
}
