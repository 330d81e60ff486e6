package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"pdfannot/internal/model"
	"pdfannot/internal/repository"
)

// foreignKeyViolation is SQLSTATE 23503.
const foreignKeyViolation = "23503"

// AnnotationPostgres is a PostgreSQL implementation of repository.AnnotationRepository.
type AnnotationPostgres struct {
	db *sql.DB
}

// NewAnnotationPostgres creates a new AnnotationPostgres repository.
func NewAnnotationPostgres(db *sql.DB) *AnnotationPostgres {
	return &AnnotationPostgres{db: db}
}

var _ repository.AnnotationRepository = (*AnnotationPostgres)(nil)

// Create inserts the annotation in its own transaction. Any failure rolls the
// transaction back before returning.
func (r *AnnotationPostgres) Create(ctx context.Context, a *model.Annotation) (*model.Annotation, error) {
	const q = `
		INSERT INTO annotations (document_id, content, annotation_type, page, position_x, position_y, highlight_rects, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	out := *a
	err = tx.QueryRowContext(ctx, q,
		a.DocumentID,
		repository.NullString(a.Content),
		a.Type,
		a.Page,
		a.PositionX,
		a.PositionY,
		repository.NullJSON(a.HighlightRects),
		a.CreatedAt,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("document %d: %w", a.DocumentID, repository.ErrReferenceMissing)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if repository.IsJSONNull(out.HighlightRects) {
		out.HighlightRects = nil
	}
	return &out, nil
}

// ListByDocument returns a document's annotations in id order.
func (r *AnnotationPostgres) ListByDocument(ctx context.Context, documentID int64) ([]model.Annotation, error) {
	const q = `
		SELECT id, document_id, content, annotation_type, page, position_x, position_y, highlight_rects, created_at
		FROM annotations
		WHERE document_id = $1
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Annotation, 0)
	for rows.Next() {
		var (
			a       model.Annotation
			content sql.NullString
			rects   sql.NullString
		)
		if err := rows.Scan(
			&a.ID,
			&a.DocumentID,
			&content,
			&a.Type,
			&a.Page,
			&a.PositionX,
			&a.PositionY,
			&rects,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		a.Content = repository.StringPtr(content)
		a.HighlightRects = repository.RawJSON(rects)
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
