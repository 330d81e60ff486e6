package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"pdfannot/internal/model"
	"pdfannot/internal/repository"
)

// AnnotationSQLite is an embedded SQLite implementation of repository.AnnotationRepository.
// Foreign keys are only enforced when the connection was opened by
// database.NewSQLite.
type AnnotationSQLite struct {
	db *sql.DB
}

// NewAnnotationSQLite creates a new AnnotationSQLite repository.
func NewAnnotationSQLite(db *sql.DB) *AnnotationSQLite {
	return &AnnotationSQLite{db: db}
}

var _ repository.AnnotationRepository = (*AnnotationSQLite)(nil)

func (r *AnnotationSQLite) Create(ctx context.Context, a *model.Annotation) (*model.Annotation, error) {
	const q = `
		INSERT INTO annotations (document_id, content, annotation_type, page, position_x, position_y, highlight_rects, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
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

func (r *AnnotationSQLite) ListByDocument(ctx context.Context, documentID int64) ([]model.Annotation, error) {
	const q = `
		SELECT id, document_id, content, annotation_type, page, position_x, position_y, highlight_rects, created_at
		FROM annotations
		WHERE document_id = ?
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
		if err := rows.Scan(&a.ID, &a.DocumentID, &content, &a.Type, &a.Page, &a.PositionX, &a.PositionY, &rects, &a.CreatedAt); err != nil {
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

// isForeignKeyViolation accepts both the extended and the primary constraint
// code, since extended result codes depend on the connection setup.
func isForeignKeyViolation(err error) bool {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	code := sqErr.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqErr.Error(), "FOREIGN KEY")
}
