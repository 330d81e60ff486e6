package model

import (
	"encoding/json"
	"time"
)

// Annotation is a positioned markup entry (highlight, note, ...) on one page
// of one Document. HighlightRects is opaque client geometry and is stored
// as-is; nil means absent.
type Annotation struct {
	ID             int64           `json:"id"`
	DocumentID     int64           `json:"document_id"`
	Content        *string         `json:"content"`
	Type           string          `json:"type"`
	Page           int             `json:"page"`
	PositionX      float64         `json:"position_x"`
	PositionY      float64         `json:"position_y"`
	HighlightRects json.RawMessage `json:"highlight_rects"`
	CreatedAt      time.Time       `json:"created_at"`
}
