package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/retention-api/internal/middleware"
	"github.com/noah-isme/retention-api/internal/observability"
)

func newCorrelationApp() *fiber.App {
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(observability.CorrelationFromContext(c.UserContext()))
	})
	return app
}

func TestCorrelationIDFallsBackToRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-9")

	resp, err := newCorrelationApp().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, "req-9", resp.Header.Get(middleware.CorrelationHeader))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "req-9", string(body))
}

func TestCorrelationIDMintsIdentifier(t *testing.T) {
	resp, err := newCorrelationApp().Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)

	id := resp.Header.Get(middleware.CorrelationHeader)
	_, err = uuid.Parse(id)
	require.NoError(t, err)
}
