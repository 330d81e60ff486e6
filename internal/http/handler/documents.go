package handler

import (
	"log/slog"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"pdfannot/internal/service"
)

const uploadField = "file"

type uploadResponse struct {
	Success    bool  `json:"success"`
	DocumentID int64 `json:"document_id"`
}

// UploadDocument godoc
// @Summary      Upload a PDF
// @Description  Stores the file under its sanitized name. Uploading the same name again replaces the file and keeps the document id.
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "PDF file"
// @Success      200  {object}  uploadResponse
// @Failure      400  {object}  errorPayload
// @Failure      413  {object}  errorPayload
// @Failure      500  {object}  errorPayload
// @Router       /upload [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile(uploadField)
		if err != nil {
			// A file input submitted without a selection arrives as a plain
			// form value with the same name.
			if form, ferr := c.MultipartForm(); ferr == nil {
				if _, ok := form.Value[uploadField]; ok {
					return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", service.MsgNoSelectedFile)
				}
			}
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", service.MsgNoFilePart)
		}
		if fh.Filename == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", service.MsgNoSelectedFile)
		}

		f, err := fh.Open()
		if err != nil {
			return writeServiceError(c, err, "upload_open", "Error saving file", slog.String("filename", fh.Filename))
		}
		defer f.Close()

		doc, err := docSvc.Upload(c.UserContext(), f, fh.Filename, fh.Size)
		if err != nil {
			return writeServiceError(c, err, "upload", "Error saving file", slog.String("filename", fh.Filename))
		}
		return c.Status(fiber.StatusOK).JSON(uploadResponse{Success: true, DocumentID: doc.ID})
	}
}

// ListDocuments godoc
// @Summary      List documents
// @Tags         documents
// @Produce      json
// @Success      200  {array}   model.DocumentSummary
// @Failure      500  {object}  errorPayload
// @Router       /documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := docSvc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err, "list_documents", "internal server error")
		}
		return c.JSON(docs)
	}
}

// GetDocument godoc
// @Summary      Get document metadata
// @Tags         documents
// @Produce      json
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  model.Document
// @Failure      400  {object}  errorPayload
// @Failure      404  {object}  errorPayload
// @Failure      500  {object}  errorPayload
// @Router       /documents/{id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c.Params("id"))
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid document id")
		}
		doc, err := docSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err, "get_document", "internal server error", slog.Int64("document_id", id))
		}
		return c.JSON(doc)
	}
}

// ServeFile godoc
// @Summary      Download an uploaded file
// @Tags         documents
// @Produce      application/pdf
// @Param        filename  path  string  true  "Sanitized filename"
// @Success      200
// @Failure      404  {object}  errorPayload
// @Router       /uploads/{filename} [get]
func ServeFile(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("filename"))
		if err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
		}
		rc, info, err := docSvc.Open(c.UserContext(), name)
		if err != nil {
			return writeServiceError(c, err, "serve_file", "internal server error", slog.String("filename", name))
		}
		c.Set(fiber.HeaderContentType, info.ContentType)
		c.Set(fiber.HeaderContentDisposition, `inline; filename="`+info.Key+`"`)
		return c.SendStream(rc, int(info.Size))
	}
}

// parseID accepts positive decimal ids only.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
