package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/handler"
	"github.com/noah-isme/retention-api/internal/middleware"
	"github.com/noah-isme/retention-api/internal/service"
)

type mockNotificationService struct {
	lastList    dto.NotificationListRequest
	lastStaffID uint
	lastAlertID *uint
	err         error
}

func (m *mockNotificationService) Publish(_ context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{StaffID: payload.StaffID, Message: payload.Message}, m.err
}

func (m *mockNotificationService) List(_ context.Context, req dto.NotificationListRequest) ([]dto.NotificationResponse, error) {
	m.lastList = req
	if m.err != nil {
		return nil, m.err
	}
	return []dto.NotificationResponse{{ID: 1, StaffID: req.StaffID, Message: "hello"}}, nil
}

func (m *mockNotificationService) UnreadCount(_ context.Context, staffID uint) (int64, error) {
	m.lastStaffID = staffID
	return 3, m.err
}

func (m *mockNotificationService) MarkRead(_ context.Context, id, staffID uint) (dto.NotificationResponse, error) {
	m.lastStaffID = staffID
	if m.err != nil {
		return dto.NotificationResponse{}, m.err
	}
	now := time.Now()
	return dto.NotificationResponse{ID: id, StaffID: staffID, Read: true, ReadAt: &now}, nil
}

func (m *mockNotificationService) MarkAllRead(_ context.Context, staffID uint, alertID *uint) (int64, error) {
	m.lastStaffID = staffID
	m.lastAlertID = alertID
	return 4, m.err
}

func (m *mockNotificationService) Subscribe(uint) (<-chan dto.NotificationResponse, func()) {
	ch := make(chan dto.NotificationResponse)
	return ch, func() {}
}

func (m *mockNotificationService) Start(context.Context) {}

func newNotificationApp(svc service.NotificationService) *fiber.App {
	app := fiber.New()
	app.Use(middleware.StaffIdentity())
	group := app.Group("/api/v1/notifications", middleware.RequireStaff())
	handler.NewNotificationHandler(svc, zerolog.Nop(), time.Second).Register(group)
	return app
}

func staffRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(middleware.StaffIDHeader, "7")
	return req
}

func TestNotificationHandler_ListPassesFilters(t *testing.T) {
	svc := &mockNotificationService{}
	app := newNotificationApp(svc)

	resp, err := app.Test(staffRequest(http.MethodGet, "/api/v1/notifications?limit=5&offset=10&alert_id=3&unread=true"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.NotificationResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 1)

	require.Equal(t, uint(7), svc.lastList.StaffID)
	require.Equal(t, 5, svc.lastList.Limit)
	require.Equal(t, 10, svc.lastList.Offset)
	require.True(t, svc.lastList.UnreadOnly)
	require.NotNil(t, svc.lastList.AlertID)
	require.Equal(t, uint(3), *svc.lastList.AlertID)
}

func TestNotificationHandler_ListRejectsBadQuery(t *testing.T) {
	app := newNotificationApp(&mockNotificationService{})

	for _, target := range []string{
		"/api/v1/notifications?limit=abc",
		"/api/v1/notifications?offset=x",
		"/api/v1/notifications?alert_id=-1",
	} {
		resp, err := app.Test(staffRequest(http.MethodGet, target))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, target)
	}
}

func TestNotificationHandler_UnreadCount(t *testing.T) {
	svc := &mockNotificationService{}
	app := newNotificationApp(svc)

	resp, err := app.Test(staffRequest(http.MethodGet, "/api/v1/notifications/unread-count"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Unread int64 `json:"unread"`
		} `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, int64(3), body.Data.Unread)
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	svc := &mockNotificationService{}
	app := newNotificationApp(svc)

	resp, err := app.Test(staffRequest(http.MethodPatch, "/api/v1/notifications/12/read"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(7), svc.lastStaffID)

	svc.err = service.ErrNotificationNotFound
	resp, err = app.Test(staffRequest(http.MethodPatch, "/api/v1/notifications/12/read"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestNotificationHandler_MarkAllReadScopedToAlert(t *testing.T) {
	svc := &mockNotificationService{}
	app := newNotificationApp(svc)

	resp, err := app.Test(staffRequest(http.MethodPatch, "/api/v1/notifications/read-all?alert_id=9"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Updated int64 `json:"updated"`
		} `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, int64(4), body.Data.Updated)
	require.NotNil(t, svc.lastAlertID)
	require.Equal(t, uint(9), *svc.lastAlertID)
}

func TestNotificationHandler_RequiresStaff(t *testing.T) {
	app := newNotificationApp(&mockNotificationService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
