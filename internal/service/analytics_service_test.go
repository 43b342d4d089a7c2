package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/retention-api/internal/models"
	"github.com/noah-isme/retention-api/internal/repository"
	"github.com/noah-isme/retention-api/internal/workflow"
)

func TestAnalyticsServiceSummaryAndCache(t *testing.T) {
	db := setupServiceDB(t, &models.RetentionAlert{})
	ctx := context.Background()

	now := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)
	lastWeek := now.AddDate(0, 0, -7)
	longAgo := now.AddDate(0, -6, 0)

	alerts := []models.RetentionAlert{
		{StudentID: 1, OriginCode: workflow.OriginAbsences, Status: workflow.AlertPending, OpenedBy: 1},
		{StudentID: 2, OriginCode: workflow.OriginAbsences, Status: workflow.AlertRetained, RetentionKind: workflow.RetentionPlain, OpenedBy: 1, ResolvedAt: &now},
		{StudentID: 3, OriginCode: workflow.OriginPaymentDefault, Status: workflow.AlertRetained, RetentionKind: workflow.RetentionTemporary, OpenedBy: 1, ResolvedAt: &lastWeek},
		{StudentID: 4, OriginCode: workflow.OriginPaymentDefault, Status: workflow.AlertChurned, OpenedBy: 1, ResolvedAt: &now},
		{StudentID: 5, OriginCode: workflow.OriginOther, Status: workflow.AlertChurned, OpenedBy: 1, ResolvedAt: &longAgo},
	}
	for i := range alerts {
		require.NoError(t, db.Create(&alerts[i]).Error)
	}

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewAnalyticsService(repository.NewAnalyticsRepository(db), client, time.Minute, testLogger()).(*analyticsService)
	svc.now = func() time.Time { return now }

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.False(t, summary.CacheHit)
	require.Equal(t, int64(1), summary.OpenAlerts)
	require.Equal(t, int64(2), summary.Retained)
	require.Equal(t, int64(2), summary.Churned)
	require.InDelta(t, 0.5, summary.RetentionRate, 0.0001)
	require.Equal(t, int64(1), summary.ByOrigin["faltas"].Pending)
	require.Equal(t, int64(1), summary.ByOrigin["inadimplencia"].Churned)
	require.Equal(t, map[string]int64{"plain": 1, "ajuste_temporario": 1}, summary.RetentionKinds)

	require.Len(t, summary.WeeklyResolutions, 2)
	require.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), summary.WeeklyResolutions[0].WeekStart)
	require.Equal(t, int64(1), summary.WeeklyResolutions[0].Retained)
	require.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), summary.WeeklyResolutions[1].WeekStart)
	require.Equal(t, int64(1), summary.WeeklyResolutions[1].Retained)
	require.Equal(t, int64(1), summary.WeeklyResolutions[1].Churned)

	cached, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.True(t, cached.CacheHit)
	require.Equal(t, summary.OpenAlerts, cached.OpenAlerts)
}

func TestAnalyticsServiceWithoutCache(t *testing.T) {
	db := setupServiceDB(t, &models.RetentionAlert{})
	svc := NewAnalyticsService(repository.NewAnalyticsRepository(db), nil, time.Minute, testLogger())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Zero(t, summary.OpenAlerts)
	require.Zero(t, summary.RetentionRate)
	require.Empty(t, summary.WeeklyResolutions)
}

func TestStartOfWeek(t *testing.T) {
	sunday := time.Date(2024, 6, 16, 23, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), startOfWeek(sunday))
	monday := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	require.Equal(t, monday, startOfWeek(monday))
}
