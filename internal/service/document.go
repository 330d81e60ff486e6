package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"pdfannot/internal/apperror"
	"pdfannot/internal/filename"
	"pdfannot/internal/model"
	"pdfannot/internal/pdfmeta"
	"pdfannot/internal/repository"
	"pdfannot/internal/storage"
)

// Client-facing upload rejection messages.
const (
	MsgNoFilePart      = "No file part"
	MsgNoSelectedFile  = "No selected file"
	MsgInvalidFileType = "Invalid file type"
	MsgInvalidFilename = "Invalid filename"
)

const (
	pdfContentType  = "application/pdf"
	msgFileNotFound = "file not found"
)

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload stores the file under its sanitized name and records it. An
	// existing document with the same name gets its bytes and metadata
	// replaced and keeps its id. When r is an io.ReaderAt the page count is
	// read from the PDF; unreadable files are still accepted.
	Upload(ctx context.Context, r io.Reader, originalFilename string, size int64) (*model.Document, error)

	// List returns every document ordered by id.
	List(ctx context.Context) ([]model.DocumentSummary, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id int64) (*model.Document, error)

	// Open streams the stored file with the given sanitized name.
	Open(ctx context.Context, name string) (io.ReadCloser, storage.ObjectInfo, error)
}

type documentService struct {
	store storage.Storage
	repo  repository.DocumentRepository
	log   *slog.Logger
	now   func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, log *slog.Logger) DocumentService {
	return &documentService{
		store: store,
		repo:  repo,
		log:   log.With(slog.String("component", "document_service")),
		now:   time.Now,
	}
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, originalFilename string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, apperror.ValidationFailed("file", MsgNoFilePart)
	}
	if originalFilename == "" {
		return nil, apperror.ValidationFailed("file", MsgNoSelectedFile)
	}
	if !filename.HasPDFExtension(originalFilename) {
		return nil, apperror.ValidationFailed("file", MsgInvalidFileType)
	}
	name := filename.Sanitize(originalFilename)
	if !filename.HasPDFExtension(name) || len(name) > filename.MaxLength {
		return nil, apperror.ValidationFailed("file", MsgInvalidFilename)
	}

	pages := s.pageCount(r, size, name)

	existing, err := s.repo.FindByFilename(ctx, name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup document %s: %w", name, err)
	}

	obj, err := s.store.Put(ctx, name, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: pdfContentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	stored, err := s.repo.Upsert(ctx, &model.Document{
		Filename:    name,
		StoragePath: obj.Location,
		UploadDate:  s.now().UTC(),
		PageCount:   pages,
	})
	if err != nil {
		// The row of a replaced document still points at the new bytes, so
		// only a brand-new file is removed, and only while no concurrent
		// upload has committed a row for the same name.
		if existing == nil {
			if _, findErr := s.repo.FindByFilename(ctx, name); errors.Is(findErr, sql.ErrNoRows) {
				if delErr := s.store.Delete(ctx, name); delErr != nil {
					return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
				}
			}
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.log.InfoContext(ctx, "document_stored",
		slog.Int64("document_id", stored.ID),
		slog.String("filename", stored.Filename),
		slog.Bool("replaced", existing != nil),
		slog.Int64("size", obj.Size),
	)
	return stored, nil
}

func (s *documentService) pageCount(r io.Reader, size int64, name string) *int {
	ra, ok := r.(io.ReaderAt)
	if !ok || size <= 0 {
		return nil
	}
	n, err := pdfmeta.PageCount(ra, size)
	if err != nil {
		s.log.Warn("document_page_count_unavailable",
			slog.String("filename", name),
			slog.String("error_message", err.Error()),
		)
		return nil
	}
	return &n
}

func (s *documentService) List(ctx context.Context) ([]model.DocumentSummary, error) {
	return s.repo.List(ctx)
}

func (s *documentService) Get(ctx context.Context, id int64) (*model.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("document", id)
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Open(ctx context.Context, name string) (io.ReadCloser, storage.ObjectInfo, error) {
	if !filename.IsSafe(name) {
		return nil, storage.ObjectInfo{}, apperror.NotFoundMessage(msgFileNotFound)
	}
	rc, info, err := s.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, storage.ObjectInfo{}, apperror.NotFoundMessage(msgFileNotFound)
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("open %s: %w", name, err)
	}
	if info.ContentType == "" {
		info.ContentType = pdfContentType
	}
	return rc, info, nil
}
