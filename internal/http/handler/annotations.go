package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"pdfannot/internal/model"
	"pdfannot/internal/service"
)

type saveAnnotationResponse struct {
	Success      bool  `json:"success"`
	AnnotationID int64 `json:"annotation_id"`
}

// annotationView is the listing shape of an annotation.
type annotationView struct {
	ID             int64           `json:"id"`
	Content        *string         `json:"content"`
	Type           string          `json:"type"`
	Page           int             `json:"page"`
	PositionX      float64         `json:"position_x"`
	PositionY      float64         `json:"position_y"`
	HighlightRects json.RawMessage `json:"highlight_rects" swaggertype:"object"`
}

func toAnnotationViews(items []model.Annotation) []annotationView {
	out := make([]annotationView, 0, len(items))
	for _, a := range items {
		out = append(out, annotationView{
			ID:             a.ID,
			Content:        a.Content,
			Type:           a.Type,
			Page:           a.Page,
			PositionX:      a.PositionX,
			PositionY:      a.PositionY,
			HighlightRects: a.HighlightRects,
		})
	}
	return out
}

// SaveAnnotation godoc
// @Summary      Save an annotation
// @Tags         annotations
// @Accept       json
// @Produce      json
// @Param        body  body      service.SaveAnnotationInput  true  "Annotation"
// @Success      200   {object}  saveAnnotationResponse
// @Failure      400   {object}  errorPayload
// @Failure      404   {object}  errorPayload
// @Failure      500   {object}  errorPayload
// @Router       /annotations [post]
func SaveAnnotation(annSvc service.AnnotationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.SaveAnnotationInput
		if err := json.Unmarshal(c.Body(), &in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", decodeErrorMessage(err))
		}

		a, err := annSvc.Save(c.UserContext(), in)
		if err != nil {
			attrs := []slog.Attr{}
			if in.DocumentID != nil {
				attrs = append(attrs, slog.Int64("document_id", *in.DocumentID))
			}
			return writeServiceError(c, err, "save_annotation", "internal server error", attrs...)
		}
		return c.JSON(saveAnnotationResponse{Success: true, AnnotationID: a.ID})
	}
}

// ListAnnotations godoc
// @Summary      List a document's annotations
// @Description  An unknown document yields an empty array.
// @Tags         annotations
// @Produce      json
// @Param        document_id  path      int  true  "Document ID"
// @Success      200          {array}   annotationView
// @Failure      400          {object}  errorPayload
// @Failure      500          {object}  errorPayload
// @Router       /annotations/{document_id} [get]
func ListAnnotations(annSvc service.AnnotationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c.Params("document_id"))
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid document id")
		}
		items, err := annSvc.ListByDocument(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err, "list_annotations", "internal server error", slog.Int64("document_id", id))
		}
		return c.JSON(toAnnotationViews(items))
	}
}

func decodeErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("invalid value for field %s: expected %s", typeErr.Field, typeErr.Type)
	}
	return "request body must be a JSON object"
}
