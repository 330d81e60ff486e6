package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"pdfannot/internal/database"
	"pdfannot/internal/database/migration"
	"pdfannot/internal/logging"
)

// NewSQLiteDB returns a migrated in-memory database closed at test cleanup.
func NewSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.NewSQLite(database.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migration.Up(context.Background(), db, migration.SQLite, logging.Discard()))
	return db
}
