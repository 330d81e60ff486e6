package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"pdfannot/internal/apperror"
	"pdfannot/internal/http/middleware"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(middleware.RequestIDLocalKey).(string); ok {
		return s
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		Success:   false,
		Error:     message,
		Code:      code,
		RequestID: requestIDFromCtx(c),
	})
}

// writeServiceError maps a service error onto a status. Validation and not
// found errors carry a client-safe message; anything else is logged with op
// and answered with internalMsg.
func writeServiceError(c *fiber.Ctx, err error, op, internalMsg string, attrs ...slog.Attr) error {
	var appErr *apperror.AppError
	switch {
	case apperror.IsValidation(err):
		msg := err.Error()
		if errors.As(err, &appErr) {
			msg = appErr.Message
		}
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", msg)
	case apperror.IsNotFound(err):
		msg := err.Error()
		if errors.As(err, &appErr) {
			msg = appErr.Message
		}
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", msg)
	}

	args := []slog.Attr{slog.String("operation", op), slog.String("error_message", err.Error())}
	middleware.LoggerFrom(c).LogAttrs(c.UserContext(), slog.LevelError, "request_failed", append(args, attrs...)...)
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", internalMsg)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "file too large")
		default:
			middleware.LoggerFrom(c).Error("unhandled_error", slog.String("error_message", err.Error()))
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}
