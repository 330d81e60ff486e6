package repository

import (
	"context"
	"errors"

	"pdfannot/internal/model"
)

// ErrReferenceMissing is returned when the store rejects a write because a
// referenced row (e.g. the annotation's document) does not exist.
var ErrReferenceMissing = errors.New("referenced row does not exist")

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations.
// Lookups that match nothing return sql.ErrNoRows.
type DocumentRepository interface {
	// Upsert inserts doc, or, when a document with the same filename already
	// exists, replaces its storage path, upload date and page count in place.
	// Returns the stored row; the id is unchanged on replace.
	Upsert(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id int64) (*model.Document, error)

	// FindByFilename returns the document stored under a sanitized filename.
	FindByFilename(ctx context.Context, filename string) (*model.Document, error)

	// List returns every document ordered by id ascending.
	List(ctx context.Context) ([]model.DocumentSummary, error)
}

// AnnotationRepository defines data access for annotations.
type AnnotationRepository interface {
	// Create inserts an annotation inside a transaction that is rolled back on
	// any failure. A missing document surfaces as ErrReferenceMissing.
	Create(ctx context.Context, a *model.Annotation) (*model.Annotation, error)

	// ListByDocument returns the document's annotations ordered by id
	// ascending; an unknown document yields an empty slice.
	ListByDocument(ctx context.Context, documentID int64) ([]model.Annotation, error)
}
