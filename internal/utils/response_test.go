package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/retention-api/internal/utils"
)

type envelope struct {
	Success       bool                   `json:"success"`
	Message       string                 `json:"message"`
	Data          interface{}            `json:"data"`
	Meta          map[string]interface{} `json:"meta"`
	Details       map[string]interface{} `json:"details"`
	CorrelationID string                 `json:"correlation_id"`
}

func call(t *testing.T, handler fiber.Handler) (int, envelope) {
	t.Helper()
	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestResponseEnvelopes(t *testing.T) {
	cases := []struct {
		name    string
		handler fiber.Handler
		status  int
		success bool
		message string
	}{
		{
			name:    "success defaults message",
			handler: func(c *fiber.Ctx) error { return utils.SendSuccess(c, "", fiber.Map{"id": 1}) },
			status:  fiber.StatusOK,
			success: true,
			message: "success",
		},
		{
			name:    "created",
			handler: func(c *fiber.Ctx) error { return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "alert opened", nil) },
			status:  fiber.StatusCreated,
			success: true,
			message: "alert opened",
		},
		{
			name:    "error defaults message",
			handler: func(c *fiber.Ctx) error { return utils.SendError(c, fiber.StatusConflict, "") },
			status:  fiber.StatusConflict,
			message: "error",
		},
		{
			name:    "zero status is a server error",
			handler: func(c *fiber.Ctx) error { return utils.Fail(c, 0, "boom", nil) },
			status:  fiber.StatusInternalServerError,
			message: "boom",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(t, tc.handler)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.success, body.Success)
			require.Equal(t, tc.message, body.Message)
		})
	}
}

func TestOKCarriesMeta(t *testing.T) {
	_, body := call(t, func(c *fiber.Ctx) error {
		return utils.OK(c, []string{"a"}, "alerts", fiber.Map{"page": 2})
	})
	require.True(t, body.Success)
	require.Equal(t, float64(2), body.Meta["page"])
	require.Nil(t, body.Details)
}

func TestFailEchoesCorrelationAndDetails(t *testing.T) {
	_, body := call(t, func(c *fiber.Ctx) error {
		c.Set("X-Correlation-ID", "corr-1")
		return utils.Fail(c, fiber.StatusUnprocessableEntity, "invalid form", fiber.Map{"field": "decision"})
	})
	require.False(t, body.Success)
	require.Equal(t, "corr-1", body.CorrelationID)
	require.Equal(t, "decision", body.Details["field"])
	require.Nil(t, body.Data)
}
