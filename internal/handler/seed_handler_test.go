package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/handler"
	"github.com/noah-isme/retention-api/internal/service"
)

type mockSeedService struct {
	lastToken   string
	lastRequest dto.SeedRequest
	err         error
}

func (m *mockSeedService) Seed(_ context.Context, token string, req dto.SeedRequest) (dto.SeedResponse, error) {
	m.lastToken = token
	m.lastRequest = req
	if m.err != nil {
		return dto.SeedResponse{}, m.err
	}
	return dto.SeedResponse{Students: int64(len(req.Students)), Professionals: len(req.Professionals)}, nil
}

func seedRequest(t *testing.T, token string) *http.Request {
	t.Helper()
	body, err := json.Marshal(fiber.Map{
		"students":      []fiber.Map{{"id": 1, "name": "Alice"}},
		"professionals": []fiber.Map{{"professional_id": 4, "days": []fiber.Map{{"weekday": 1, "open": true, "start": "09:00", "end": "12:00"}}}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seed", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(handler.SeedTokenHeader, token)
	return req
}

func TestSeedHandler_Success(t *testing.T) {
	svc := &mockSeedService{}
	app := fiber.New()
	handler.NewSeedHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/seed"))

	resp, err := app.Test(seedRequest(t, "secret"), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "secret", svc.lastToken)
	require.Len(t, svc.lastRequest.Professionals, 1)

	var body struct {
		Data dto.SeedResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, int64(1), body.Data.Students)
	require.Equal(t, 1, body.Data.Professionals)
}

func TestSeedHandler_Forbidden(t *testing.T) {
	for _, seedErr := range []error{service.ErrSeedDisabled, service.ErrSeedUnauthorized} {
		app := fiber.New()
		handler.NewSeedHandler(&mockSeedService{err: seedErr}, zerolog.New(io.Discard)).Register(app.Group("/api/v1/seed"))

		resp, err := app.Test(seedRequest(t, "wrong"), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	}
}
