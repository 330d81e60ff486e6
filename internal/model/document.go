package model

import "time"

// Document represents one uploaded PDF and where its bytes are stored.
// This is a pure domain model with no database-specific dependencies or tags.
type Document struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	StoragePath string    `json:"storage_path"`
	UploadDate  time.Time `json:"upload_date"`
	// PageCount is nil when the upload could not be parsed as a PDF.
	PageCount *int   `json:"page_count"`
	UserID    *int64 `json:"user_id"`
}

// DocumentSummary is the listing projection of a Document.
type DocumentSummary struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
}
