package migration

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfannot/internal/database"
	"pdfannot/internal/logging"
)

func newSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.NewSQLite(database.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func schemaVersion(t *testing.T, db *sql.DB) int {
	t.Helper()
	var v int
	require.NoError(t, db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&v))
	return v
}

func TestUp_SQLite(t *testing.T) {
	ctx := context.Background()
	db := newSQLite(t)
	var logs bytes.Buffer

	require.NoError(t, Up(ctx, db, SQLite, logging.New(&logs, time.UTC)))

	assert.Equal(t, Latest(SQLite), schemaVersion(t, db))
	for _, table := range []string{"users", "documents", "annotations"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
	assert.Contains(t, logs.String(), "db_migration_success")
	assert.Contains(t, logs.String(), "create_table_annotations")
}

func TestUp_IsIdempotentAndKeepsData(t *testing.T) {
	ctx := context.Background()
	db := newSQLite(t)
	log := logging.Discard()

	require.NoError(t, Up(ctx, db, SQLite, log))
	_, err := db.Exec(`INSERT INTO documents (filename, storage_path) VALUES ('keep.pdf', 'uploads/keep.pdf')`)
	require.NoError(t, err)

	var logs bytes.Buffer
	require.NoError(t, Up(ctx, db, SQLite, logging.New(&logs, time.UTC)))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n))
	assert.Equal(t, 1, n)
	assert.Contains(t, logs.String(), "db_migration_skip")

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&rows))
	assert.Equal(t, len(sqliteSteps), rows)
}

func TestUp_ResumesFromRecordedVersion(t *testing.T) {
	ctx := context.Background()
	db := newSQLite(t)

	_, err := db.Exec(createVersionTable)
	require.NoError(t, err)
	for _, step := range sqliteSteps[:2] {
		require.NoError(t, apply(ctx, db, step, `INSERT INTO schema_migrations (version, name) VALUES (?, ?)`))
	}

	require.NoError(t, Up(ctx, db, SQLite, logging.Discard()))
	assert.Equal(t, Latest(SQLite), schemaVersion(t, db))
}

func TestUp_AnnotationsCascadeWithDocument(t *testing.T) {
	ctx := context.Background()
	db := newSQLite(t)
	require.NoError(t, Up(ctx, db, SQLite, logging.Discard()))

	res, err := db.Exec(`INSERT INTO documents (filename, storage_path) VALUES ('a.pdf', 'uploads/a.pdf')`)
	require.NoError(t, err)
	docID, _ := res.LastInsertId()
	_, err = db.Exec(`INSERT INTO annotations (document_id, annotation_type, page, position_x, position_y) VALUES (?, 'note', 1, 0, 0)`, docID)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM documents WHERE id = ?`, docID)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM annotations`).Scan(&n))
	assert.Zero(t, n)
}

func TestUp_UnsupportedDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	err = Up(context.Background(), db, Dialect("mysql"), logging.Discard())
	assert.Error(t, err)
	assert.Zero(t, Latest(Dialect("mysql")))
}

func TestUp_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT MAX\(version\) FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(3))

	for _, step := range postgresSteps[3:] {
		mock.ExpectBegin()
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO schema_migrations`).
			WithArgs(step.Version, step.Name).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	require.NoError(t, Up(context.Background(), db, Postgres, logging.Discard()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUp_PostgresStepFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT MAX\(version\) FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	var logs bytes.Buffer
	err = Up(context.Background(), db, Postgres, logging.New(&logs, time.UTC))

	assert.ErrorContains(t, err, "migration step create_table_users failed: permission denied")
	assert.Contains(t, logs.String(), "db_migration_failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}
