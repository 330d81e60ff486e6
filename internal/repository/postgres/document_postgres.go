package postgres

import (
	"context"
	"database/sql"

	"pdfannot/internal/model"
	"pdfannot/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, filename, storage_path, upload_date, page_count, user_id`

// Upsert inserts a document row, replacing the stored location of an existing
// row with the same filename, and returns the stored record.
func (r *DocumentPostgres) Upsert(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (filename, storage_path, upload_date, page_count, user_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (filename) DO UPDATE
		SET storage_path = EXCLUDED.storage_path,
		    upload_date  = EXCLUDED.upload_date,
		    page_count   = EXCLUDED.page_count
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

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id int64) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// FindByFilename fetches a single document by its sanitized filename.
func (r *DocumentPostgres) FindByFilename(ctx context.Context, filename string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE filename = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, filename))
}

// List returns every document's id and filename in id order.
func (r *DocumentPostgres) List(ctx context.Context) ([]model.DocumentSummary, error) {
	const q = `
		SELECT id, filename
		FROM documents
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
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
	if err := row.Scan(
		&d.ID,
		&d.Filename,
		&d.StoragePath,
		&d.UploadDate,
		&pageCount,
		&userID,
	); err != nil {
		return nil, err
	}
	d.PageCount = repository.IntPtr(pageCount)
	d.UserID = repository.Int64Ptr(userID)
	return &d, nil
}
