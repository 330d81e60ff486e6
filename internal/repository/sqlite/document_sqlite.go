package sqlite

import (
	"context"
	"database/sql"

	"pdfannot/internal/model"
	"pdfannot/internal/repository"
)

// DocumentSQLite is an embedded SQLite implementation of repository.DocumentRepository.
type DocumentSQLite struct {
	db *sql.DB
}

// NewDocumentSQLite creates a new DocumentSQLite repository.
func NewDocumentSQLite(db *sql.DB) *DocumentSQLite {
	return &DocumentSQLite{db: db}
}

var _ repository.DocumentRepository = (*DocumentSQLite)(nil)

const documentColumns = `id, filename, storage_path, upload_date, page_count, user_id`

func (r *DocumentSQLite) Upsert(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (filename, storage_path, upload_date, page_count, user_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (filename) DO UPDATE
		SET storage_path = excluded.storage_path,
		    upload_date  = excluded.upload_date,
		    page_count   = excluded.page_count
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.Filename,
		doc.StoragePath,
		doc.UploadDate,
		repository.NullInt(doc.PageCount),
		repository.NullInt64(doc.UserID),
	)
	return scanDocument(row)
}

func (r *DocumentSQLite) FindByID(ctx context.Context, id int64) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

func (r *DocumentSQLite) FindByFilename(ctx context.Context, filename string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE filename = ?`
	return scanDocument(r.db.QueryRowContext(ctx, q, filename))
}

func (r *DocumentSQLite) List(ctx context.Context) ([]model.DocumentSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, filename FROM documents ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentSummary, 0)
	for rows.Next() {
		var d model.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Filename); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanDocument(row *sql.Row) (*model.Document, error) {
	var (
		d         model.Document
		pageCount sql.NullInt64
		userID    sql.NullInt64
	)
	if err := row.Scan(&d.ID, &d.Filename, &d.StoragePath, &d.UploadDate, &pageCount, &userID); err != nil {
		return nil, err
	}
	d.PageCount = repository.IntPtr(pageCount)
	d.UserID = repository.Int64Ptr(userID)
	return &d, nil
}
