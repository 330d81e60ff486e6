// Package server assembles the Fiber application: middleware chain, API
// routes, metrics and API docs.
package server

import (
	"database/sql"
	"log/slog"
	"strings"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pdfannot/docs"
	"pdfannot/internal/config"
	handlers "pdfannot/internal/http/handler"
	"pdfannot/internal/http/middleware"
	"pdfannot/internal/service"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	DB          *sql.DB
	Documents   service.DocumentService
	Annotations service.AnnotationService
	Logger      *slog.Logger
	// Registry receives the HTTP and runtime collectors. A fresh registry is
	// used when nil.
	Registry       *prometheus.Registry
	MaxUploadBytes int64
}

// New builds the application. It does not start listening.
func New(d Deps) (*fiber.App, error) {
	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	prom, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, err
	}

	limit := d.MaxUploadBytes
	if limit <= 0 {
		limit = config.DefaultMaxUploadBytes
	}

	app := fiber.New(fiber.Config{
		AppName:               "pdfannot",
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             int(limit),
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	// RequestID adds/propagates X-Request-ID; Logger relies on it.
	app.Use(middleware.RequestID())
	app.Use(prom.Handler())
	app.Use(middleware.Logger(d.Logger))

	handlers.RegisterRoutes(app, d.DB, d.Documents, d.Annotations)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	return app, nil
}
