package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/retention-api/internal/middleware"
)

func TestRateLimitCountsPerStaffMember(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.StaffIdentity())
	app.Post("/advance", middleware.RateLimit("advance", 1, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	send := func(staff string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/advance", nil)
		req.Header.Set(middleware.StaffIDHeader, staff)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	require.Equal(t, fiber.StatusNoContent, send("4").StatusCode)
	require.Equal(t, fiber.StatusNoContent, send("5").StatusCode)

	resp := send("4")
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	var body struct {
		Details struct {
			Scope string `json:"scope"`
			Limit int    `json:"limit"`
		} `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "advance", body.Details.Scope)
	require.Equal(t, 1, body.Details.Limit)
}
