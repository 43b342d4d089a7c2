package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/handler"
	"github.com/noah-isme/retention-api/internal/scheduling"
	"github.com/noah-isme/retention-api/internal/service"
)

type mockSlotService struct {
	lastProfessional uint
	lastDay          time.Time
	lastVariant      scheduling.Variant
	lastFrom         time.Time
	lastTo           time.Time
	lastCommitment   dto.CommitmentCreateRequest
	deleted          uint
	slots            []scheduling.Clock
	err              error
}

func (m *mockSlotService) AvailableSlots(_ context.Context, professionalID uint, day time.Time, variant scheduling.Variant) ([]scheduling.Clock, error) {
	m.lastProfessional = professionalID
	m.lastDay = day
	m.lastVariant = variant
	return m.slots, m.err
}

func (m *mockSlotService) BusinessHours(_ context.Context, professionalID uint) (dto.BusinessHoursResponse, error) {
	return dto.BusinessHoursResponse{ProfessionalID: professionalID}, m.err
}

func (m *mockSlotService) SetBusinessHours(_ context.Context, professionalID uint, req dto.BusinessHoursRequest) (dto.BusinessHoursResponse, error) {
	return dto.BusinessHoursResponse{ProfessionalID: professionalID, Days: req.Days}, m.err
}

func (m *mockSlotService) ListCommitments(_ context.Context, _ uint, from, to time.Time) ([]dto.CommitmentResponse, error) {
	m.lastFrom = from
	m.lastTo = to
	return []dto.CommitmentResponse{}, m.err
}

func (m *mockSlotService) CreateCommitment(_ context.Context, professionalID uint, req dto.CommitmentCreateRequest) (dto.CommitmentResponse, error) {
	m.lastCommitment = req
	return dto.CommitmentResponse{ID: 3, ProfessionalID: professionalID, Start: req.Start, End: req.End}, m.err
}

func (m *mockSlotService) DeleteCommitment(_ context.Context, _ uint, id uint) error {
	m.deleted = id
	return m.err
}

func newCalendarApp(svc *mockSlotService) *fiber.App {
	app := fiber.New()
	handler.NewCalendarHandler(svc, time.UTC, zerolog.New(io.Discard)).Register(app.Group("/api/v1/scheduling/professionals"))
	return app
}

func TestCalendarHandler_Slots(t *testing.T) {
	svc := &mockSlotService{slots: []scheduling.Clock{scheduling.NewClock(13, 0), scheduling.NewClock(14, 30)}}
	app := newCalendarApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scheduling/professionals/4/slots?date=10/06/2024&variant=follow_up", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.SlotsResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, []string{"13:00", "14:30"}, body.Data.Slots)
	require.Equal(t, "2024-06-10", body.Data.Date)
	require.Equal(t, "follow_up", body.Data.Variant)

	require.Equal(t, uint(4), svc.lastProfessional)
	require.Equal(t, scheduling.VariantFollowUp, svc.lastVariant)
	require.Equal(t, time.June, svc.lastDay.Month())
	require.Equal(t, 10, svc.lastDay.Day())
}

func TestCalendarHandler_SlotsValidation(t *testing.T) {
	cases := map[string]string{
		"missing date":    "/api/v1/scheduling/professionals/4/slots",
		"bad date":        "/api/v1/scheduling/professionals/4/slots?date=31/02/2024",
		"unknown variant": "/api/v1/scheduling/professionals/4/slots?date=2024-06-10&variant=weekly",
	}

	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			app := newCalendarApp(&mockSlotService{})
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
		})
	}
}

func TestCalendarHandler_Commitments(t *testing.T) {
	svc := &mockSlotService{}
	app := newCalendarApp(svc)

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/scheduling/professionals/4/commitments?from=2024-06-10", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 16, svc.lastTo.Day())

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/scheduling/professionals/4/commitments", fiber.Map{
		"title": "Team meeting",
		"date":  "2024-06-10",
		"start": "15:00",
		"end":   "16:00",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "Team meeting", svc.lastCommitment.Title)

	resp, err = app.Test(jsonRequest(t, http.MethodDelete, "/api/v1/scheduling/professionals/4/commitments/3", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.Equal(t, uint(3), svc.deleted)

	svc.err = service.ErrCommitmentNotFound
	resp, err = app.Test(jsonRequest(t, http.MethodDelete, "/api/v1/scheduling/professionals/4/commitments/99", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
