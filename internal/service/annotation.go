package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"pdfannot/internal/apperror"
	"pdfannot/internal/model"
	"pdfannot/internal/repository"
)

// MaxAnnotationTypeLength matches the width of annotations.annotation_type.
const MaxAnnotationTypeLength = 50

// SaveAnnotationInput is the decoded body of an annotation save request.
// Pointer fields distinguish "absent" from a zero value.
type SaveAnnotationInput struct {
	DocumentID     *int64          `json:"document_id"`
	Content        *string         `json:"content"`
	Type           *string         `json:"type"`
	Page           *int            `json:"page"`
	PositionX      *float64        `json:"position_x"`
	PositionY      *float64        `json:"position_y"`
	HighlightRects json.RawMessage `json:"highlight_rects" swaggertype:"object"`
}

// Validate checks the shape of the input without touching the store.
func (in SaveAnnotationInput) Validate() error {
	switch {
	case in.DocumentID == nil:
		return missing("document_id")
	case *in.DocumentID <= 0:
		return apperror.ValidationFailed("document_id", "document_id must be a positive integer")
	case in.Type == nil:
		return missing("type")
	case strings.TrimSpace(*in.Type) == "":
		return apperror.ValidationFailed("type", "type must not be empty")
	case utf8.RuneCountInString(*in.Type) > MaxAnnotationTypeLength:
		return apperror.ValidationFailed("type", fmt.Sprintf("type must be at most %d characters", MaxAnnotationTypeLength))
	case in.Page == nil:
		return missing("page")
	case *in.Page < 1:
		return apperror.ValidationFailed("page", "page must be >= 1")
	case in.PositionX == nil:
		return missing("position_x")
	case in.PositionY == nil:
		return missing("position_y")
	case !finite(*in.PositionX):
		return apperror.ValidationFailed("position_x", "position_x must be a finite number")
	case !finite(*in.PositionY):
		return apperror.ValidationFailed("position_y", "position_y must be a finite number")
	}
	if len(in.HighlightRects) > 0 && !json.Valid(in.HighlightRects) {
		return apperror.ValidationFailed("highlight_rects", "highlight_rects must be valid JSON")
	}
	return nil
}

func missing(field string) error {
	return apperror.ValidationFailed(field, "Missing required field: "+field)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// AnnotationService defines the use cases for annotations.
type AnnotationService interface {
	// Save validates the input, checks that the document exists and that the
	// page is within its known page count, then stores the annotation.
	Save(ctx context.Context, in SaveAnnotationInput) (*model.Annotation, error)

	// ListByDocument returns the annotations of a document in id order. An
	// unknown document yields an empty list.
	ListByDocument(ctx context.Context, documentID int64) ([]model.Annotation, error)
}

type annotationService struct {
	docs        repository.DocumentRepository
	annotations repository.AnnotationRepository
	log         *slog.Logger
	now         func() time.Time
}

// NewAnnotationService constructs a new AnnotationService.
func NewAnnotationService(docs repository.DocumentRepository, annotations repository.AnnotationRepository, log *slog.Logger) AnnotationService {
	return &annotationService{
		docs:        docs,
		annotations: annotations,
		log:         log.With(slog.String("component", "annotation_service")),
		now:         time.Now,
	}
}

func (s *annotationService) Save(ctx context.Context, in SaveAnnotationInput) (*model.Annotation, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	docID := *in.DocumentID

	doc, err := s.docs.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("document", docID)
		}
		return nil, fmt.Errorf("lookup document %d: %w", docID, err)
	}
	if doc.PageCount != nil && *in.Page > *doc.PageCount {
		return nil, apperror.ValidationFailed("page",
			fmt.Sprintf("page %d is out of range, document has %d pages", *in.Page, *doc.PageCount))
	}

	a := &model.Annotation{
		DocumentID: docID,
		Content:    in.Content,
		Type:       *in.Type,
		Page:       *in.Page,
		PositionX:  *in.PositionX,
		PositionY:  *in.PositionY,
		CreatedAt:  s.now().UTC(),
	}
	if !repository.IsJSONNull(in.HighlightRects) {
		a.HighlightRects = in.HighlightRects
	}

	stored, err := s.annotations.Create(ctx, a)
	if err != nil {
		// The document can disappear between the lookup and the insert.
		if errors.Is(err, repository.ErrReferenceMissing) {
			return nil, apperror.NotFound("document", docID)
		}
		return nil, fmt.Errorf("save annotation: %w", err)
	}

	s.log.InfoContext(ctx, "annotation_saved",
		slog.Int64("annotation_id", stored.ID),
		slog.Int64("document_id", docID),
		slog.String("type", stored.Type),
		slog.Int("page", stored.Page),
	)
	return stored, nil
}

func (s *annotationService) ListByDocument(ctx context.Context, documentID int64) ([]model.Annotation, error) {
	items, err := s.annotations.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list annotations of document %d: %w", documentID, err)
	}
	return items, nil
}
