package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
)

// LoggerLocalKey is the Fiber locals key holding the request-scoped logger.
const LoggerLocalKey = "logger"

// Logger is a middleware that logs each HTTP request as one JSON line through
// log. The line carries request_id (from RequestID), method, path, status and
// latency in milliseconds, plus trace_id when a sampled span is active. Handlers can fetch a logger already tagged with the
// request id via LoggerFrom.
func Logger(log *slog.Logger) fiber.Handler {
	log = log.With(slog.String("component", "http"))

	return func(c *fiber.Ctx) error {
		start := time.Now()

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		reqLog := log.With(slog.String("request_id", rid))
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.IsValid() {
			reqLog = reqLog.With(slog.String("trace_id", sc.TraceID().String()))
		}
		c.Locals(LoggerLocalKey, reqLog)

		err := c.Next()

		// Run the error handler now so the logged status is the one sent.
		if err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		if status >= fiber.StatusInternalServerError {
			level = slog.LevelError
		}

		reqLog.LogAttrs(c.UserContext(), level, "http_request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Float64("latency", float64(time.Since(start).Microseconds())/1000),
		)

		return err
	}
}

// LoggerFrom returns the request-scoped logger stored by Logger, or
// slog.Default when the middleware is not installed.
func LoggerFrom(c *fiber.Ctx) *slog.Logger {
	if l, ok := c.Locals(LoggerLocalKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
