package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"pdfannot/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, annSvc service.AnnotationService) {
	app.Get("/", Index())

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/upload", UploadDocument(docSvc))
	app.Get("/documents", ListDocuments(docSvc))
	app.Get("/documents/:id", GetDocument(docSvc))
	app.Get("/uploads/:filename", ServeFile(docSvc))

	app.Post("/annotations", SaveAnnotation(annSvc))
	app.Get("/annotations/:document_id", ListAnnotations(annSvc))
}
