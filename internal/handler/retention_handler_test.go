package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/handler"
	"github.com/noah-isme/retention-api/internal/middleware"
	"github.com/noah-isme/retention-api/internal/models"
	"github.com/noah-isme/retention-api/internal/service"
	"github.com/noah-isme/retention-api/internal/workflow"
)

type mockRetentionService struct {
	lastActor   service.Actor
	lastAlertID uint
	lastAdvance dto.AdvanceRequest
	advance     dto.AdvanceResponse
	err         error
}

func (m *mockRetentionService) OpenAlert(_ context.Context, actor service.Actor, req dto.OpenAlertRequest) (dto.AlertResponse, error) {
	m.lastActor = actor
	if m.err != nil {
		return dto.AlertResponse{}, m.err
	}
	return dto.AlertResponse{ID: 1, StudentID: req.StudentID, Status: "pending"}, nil
}

func (m *mockRetentionService) GetAlert(_ context.Context, id uint) (dto.AlertResponse, error) {
	m.lastAlertID = id
	if m.err != nil {
		return dto.AlertResponse{}, m.err
	}
	return dto.AlertResponse{ID: id, Status: "pending"}, nil
}

func (m *mockRetentionService) ListAlerts(_ context.Context, req dto.AlertListRequest) (dto.AlertListResponse, error) {
	if m.err != nil {
		return dto.AlertListResponse{}, m.err
	}
	return dto.AlertListResponse{
		Items:      []dto.AlertResponse{{ID: 1, Status: req.Status}},
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, 1),
	}, nil
}

func (m *mockRetentionService) Advance(_ context.Context, actor service.Actor, alertID uint, req dto.AdvanceRequest) (dto.AdvanceResponse, error) {
	m.lastActor = actor
	m.lastAlertID = alertID
	m.lastAdvance = req
	if m.err != nil {
		return dto.AdvanceResponse{}, m.err
	}
	return m.advance, nil
}

func (m *mockRetentionService) CreateTask(_ context.Context, actor service.Actor, alertID uint, req dto.TaskCreateRequest) (dto.ActivityResponse, error) {
	m.lastActor = actor
	if m.err != nil {
		return dto.ActivityResponse{}, m.err
	}
	return dto.ActivityResponse{ID: 9, AlertID: alertID, Type: req.Type, Status: "pending"}, nil
}

func (m *mockRetentionService) CompleteTask(_ context.Context, actor service.Actor, taskID uint, _ dto.TaskCompleteRequest) (dto.AdvanceResponse, error) {
	m.lastActor = actor
	if m.err != nil {
		return dto.AdvanceResponse{}, m.err
	}
	return dto.AdvanceResponse{Completed: dto.ActivityResponse{ID: taskID, Status: "completed"}}, nil
}

func (m *mockRetentionService) Complete(_ context.Context, _ service.Actor, _, _ uint, _ workflow.Completion) (dto.AdvanceResponse, error) {
	return m.advance, m.err
}

func (m *mockRetentionService) ActivityForCompletion(_ context.Context, _, _ uint) (models.RetentionActivity, error) {
	return models.RetentionActivity{}, m.err
}

type mockDraftService struct {
	lastEvent dto.DraftEventRequest
	discarded bool
	err       error
}

func (m *mockDraftService) Get(_ context.Context, _ service.Actor, alertID uint) (dto.DraftResponse, error) {
	return dto.DraftResponse{AlertID: alertID, Form: workflow.NewForm()}, m.err
}

func (m *mockDraftService) Apply(_ context.Context, _ service.Actor, alertID uint, req dto.DraftEventRequest) (dto.DraftResponse, error) {
	m.lastEvent = req
	if m.err != nil {
		return dto.DraftResponse{}, m.err
	}
	return dto.DraftResponse{AlertID: alertID, Form: workflow.Form{Stage: workflow.StageAwaitingNotes}}, nil
}

func (m *mockDraftService) Discard(_ context.Context, _ service.Actor, _ uint) error {
	m.discarded = true
	return m.err
}

func (m *mockDraftService) Submit(_ context.Context, _ service.Actor, _ uint) (dto.AdvanceResponse, error) {
	return dto.AdvanceResponse{Replayed: false}, m.err
}

func newRetentionApp(svc *mockRetentionService, drafts *mockDraftService) *fiber.App {
	app := fiber.New()
	app.Use(middleware.StaffIdentity())
	handler.NewRetentionHandler(svc, drafts, zerolog.New(io.Discard)).Register(app.Group("/api/v1/retention", middleware.RequireStaff()))
	return app
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(middleware.StaffIDHeader, "7")
	req.Header.Set(middleware.StaffRoleHeader, "Coordinator")
	return req
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func TestRetentionHandler_AdvanceSuccess(t *testing.T) {
	successor := dto.ActivityResponse{ID: 2, Type: "atendimento_financeiro", Status: "pending"}
	svc := &mockRetentionService{advance: dto.AdvanceResponse{
		Completed: dto.ActivityResponse{ID: 1, Status: "completed"},
		Successor: &successor,
		Alert:     dto.AlertResponse{ID: 5, Status: "pending"},
	}}
	app := newRetentionApp(svc, &mockDraftService{})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/retention/alerts/5/advance", fiber.Map{
		"activity_id":     1,
		"notes":           "talked to guardian",
		"next_type":       "atendimento_financeiro",
		"scheduled_date":  "11/06/2024",
		"scheduled_time":  "10:00",
		"professional_id": 4,
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                `json:"success"`
		Message string              `json:"message"`
		Data    dto.AdvanceResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "activity advanced", body.Message)
	require.Equal(t, uint(2), body.Data.Successor.ID)

	require.Equal(t, uint(5), svc.lastAlertID)
	require.Equal(t, service.Actor{ID: 7, Role: "coordinator"}, svc.lastActor)
	require.Equal(t, uint(1), svc.lastAdvance.ActivityID)
	require.Equal(t, "11/06/2024", svc.lastAdvance.ScheduledDate)
	require.Equal(t, uint(4), *svc.lastAdvance.ProfessionalID)
}

func TestRetentionHandler_AdvanceReplayMessage(t *testing.T) {
	svc := &mockRetentionService{advance: dto.AdvanceResponse{Replayed: true}}
	app := newRetentionApp(svc, &mockDraftService{})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/retention/alerts/5/advance", fiber.Map{"activity_id": 1}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "activity already advanced", body.Message)
}

func TestRetentionHandler_ErrorMapping(t *testing.T) {
	validationErr := validator.New().Struct(dto.AdvanceRequest{})
	require.Error(t, validationErr)

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"dto validation", validationErr, fiber.StatusBadRequest},
		{"workflow validation", &workflow.ValidationError{Field: "scheduled_time", Reason: "slot unavailable"}, fiber.StatusUnprocessableEntity},
		{"conflict", fmt.Errorf("%w: activity 1 is no longer pending", service.ErrActivityConflict), fiber.StatusConflict},
		{"alert missing", service.ErrAlertNotFound, fiber.StatusNotFound},
		{"activity missing", service.ErrActivityNotFound, fiber.StatusNotFound},
		{"store down", fmt.Errorf("%w: connection refused", service.ErrStoreFailure), fiber.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newRetentionApp(&mockRetentionService{err: tc.err}, &mockDraftService{})

			resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/retention/alerts/5/advance", fiber.Map{"activity_id": 1}), -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var body struct {
				Success bool `json:"success"`
			}
			decodeResponse(t, resp, &body)
			require.False(t, body.Success)
		})
	}
}

func TestRetentionHandler_WorkflowValidationDetails(t *testing.T) {
	svc := &mockRetentionService{err: &workflow.ValidationError{Field: "notes", Reason: "required"}}
	app := newRetentionApp(svc, &mockDraftService{})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/retention/alerts/5/advance", fiber.Map{"activity_id": 1}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Details map[string]string `json:"details"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "notes", body.Details["field"])
	require.Equal(t, "required", body.Details["reason"])
}

func TestRetentionHandler_RequiresStaffHeader(t *testing.T) {
	app := newRetentionApp(&mockRetentionService{}, &mockDraftService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/retention/alerts/5", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRetentionHandler_InvalidAlertID(t *testing.T) {
	app := newRetentionApp(&mockRetentionService{}, &mockDraftService{})

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/retention/alerts/abc", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRetentionHandler_OpenAndList(t *testing.T) {
	svc := &mockRetentionService{}
	app := newRetentionApp(svc, &mockDraftService{})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/retention/alerts", fiber.Map{
		"student_id":  3,
		"origin_code": "faltas",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/v1/retention/alerts?status=pending&page_size=500", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.AlertResponse `json:"data"`
		Meta dto.PaginationMeta  `json:"meta"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 1)
	require.Equal(t, "pending", body.Data[0].Status)
	require.Equal(t, 20, body.Meta.PageSize)
}

func TestRetentionHandler_TasksAndDrafts(t *testing.T) {
	svc := &mockRetentionService{}
	drafts := &mockDraftService{}
	app := newRetentionApp(svc, drafts)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/retention/alerts/5/tasks", fiber.Map{"activity_type": "baixa_sistema"}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/retention/tasks/9/complete", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/retention/alerts/5/draft", fiber.Map{"kind": "open"}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "open", drafts.lastEvent.Kind)

	resp, err = app.Test(jsonRequest(t, http.MethodDelete, "/api/v1/retention/alerts/5/draft", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.True(t, drafts.discarded)

	drafts.err = service.ErrDraftUnavailable
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/retention/alerts/5/draft/submit", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
