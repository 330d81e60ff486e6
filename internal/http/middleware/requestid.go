package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	RequestIDHeader   = "X-Request-ID"
	RequestIDLocalKey = "request_id"
)

// maxRequestIDLen bounds client-supplied ids before they reach logs and
// error bodies.
const maxRequestIDLen = 128

// RequestID tags every request with an id, reusing the caller's X-Request-ID
// when it is usable and minting a UUID otherwise. The id is echoed in the
// response header and kept in locals for the logger and error envelope.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(RequestIDHeader))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}
