package testutil

import (
	"net"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// Serve runs app on a loopback listener until test cleanup and returns its
// base URL. Use it where the request must go through fasthttp's connection
// handling, e.g. body size limits, which app.Test surfaces as an error.
func Serve(t *testing.T, app *fiber.App) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() {
		_ = app.Shutdown()
		_ = ln.Close()
	})
	return "http://" + ln.Addr().String()
}
