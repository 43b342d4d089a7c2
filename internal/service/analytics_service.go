package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/retention-api/internal/dto"
	"github.com/noah-isme/retention-api/internal/models"
	"github.com/noah-isme/retention-api/internal/repository"
	"github.com/noah-isme/retention-api/internal/workflow"
)

const (
	analyticsCacheKey = "retention:analytics:summary"
	analyticsWeeks    = 8
	plainRetention    = "plain"
)

// AnalyticsService aggregates retention outcomes for the coordinator dashboard.
type AnalyticsService interface {
	Summary(ctx context.Context) (dto.RetentionAnalyticsResponse, error)
}

type analyticsService struct {
	repo     repository.AnalyticsRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewAnalyticsService constructs the analytics service. A nil cache computes every request.
func NewAnalyticsService(repo repository.AnalyticsRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AnalyticsService {
	return &analyticsService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "analytics_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/retention-api/internal/service/analytics"),
		now:      time.Now,
	}
}

func (s *analyticsService) Summary(ctx context.Context) (dto.RetentionAnalyticsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.aggregate")
	span.SetAttributes(attribute.String("analytics.cache_key", analyticsCacheKey))
	defer span.End()

	if cached, ok := s.cached(ctx, span); ok {
		return cached, nil
	}

	counts, err := s.repo.CountAlertsByOriginAndStatus(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_alerts_failed")
		return dto.RetentionAnalyticsResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	kinds, err := s.repo.CountRetentionKinds(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_kinds_failed")
		return dto.RetentionAnalyticsResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	now := s.now()
	since := startOfWeek(now).AddDate(0, 0, -7*(analyticsWeeks-1))
	resolved, err := s.repo.ListResolvedSince(ctx, since)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_resolved_failed")
		return dto.RetentionAnalyticsResponse{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	summary := buildAnalytics(now, counts, kinds, resolved)
	span.SetAttributes(
		attribute.Int64("analytics.open_alerts", summary.OpenAlerts),
		attribute.Int("analytics.resolved_recent", len(resolved)),
	)

	if s.cache != nil {
		payload, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, analyticsCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store analytics cache")
				span.RecordError(err)
			}
		}
	}

	return summary, nil
}

func (s *analyticsService) cached(ctx context.Context, span trace.Span) (dto.RetentionAnalyticsResponse, bool) {
	if s.cache == nil {
		return dto.RetentionAnalyticsResponse{}, false
	}

	raw, err := s.cache.Get(ctx, analyticsCacheKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read analytics cache")
			span.RecordError(err)
		}
		return dto.RetentionAnalyticsResponse{}, false
	}

	var response dto.RetentionAnalyticsResponse
	if err := json.Unmarshal([]byte(raw), &response); err != nil {
		return dto.RetentionAnalyticsResponse{}, false
	}
	response.CacheHit = true
	span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
	return response, true
}

func buildAnalytics(now time.Time, counts []repository.AlertCount, kinds []repository.KindCount, resolved []models.RetentionAlert) dto.RetentionAnalyticsResponse {
	summary := dto.RetentionAnalyticsResponse{
		ByOrigin:       map[string]dto.OriginBreakdown{},
		RetentionKinds: map[string]int64{},
		GeneratedAt:    now,
	}

	for _, count := range counts {
		breakdown := summary.ByOrigin[string(count.OriginCode)]
		switch count.Status {
		case workflow.AlertPending:
			breakdown.Pending += count.Total
			summary.OpenAlerts += count.Total
		case workflow.AlertRetained:
			breakdown.Retained += count.Total
			summary.Retained += count.Total
		case workflow.AlertChurned:
			breakdown.Churned += count.Total
			summary.Churned += count.Total
		}
		summary.ByOrigin[string(count.OriginCode)] = breakdown
	}

	if resolvedTotal := summary.Retained + summary.Churned; resolvedTotal > 0 {
		summary.RetentionRate = float64(summary.Retained) / float64(resolvedTotal)
	}

	for _, kind := range kinds {
		label := string(kind.RetentionKind)
		if label == "" {
			label = plainRetention
		}
		summary.RetentionKinds[label] += kind.Total
	}

	weekly := map[time.Time]*dto.WeeklyResolutionPoint{}
	for _, alert := range resolved {
		if alert.ResolvedAt == nil {
			continue
		}
		week := startOfWeek(*alert.ResolvedAt)
		point, ok := weekly[week]
		if !ok {
			point = &dto.WeeklyResolutionPoint{WeekStart: week}
			weekly[week] = point
		}
		if alert.Status == workflow.AlertRetained {
			point.Retained++
		} else {
			point.Churned++
		}
	}

	summary.WeeklyResolutions = make([]dto.WeeklyResolutionPoint, 0, len(weekly))
	for _, point := range weekly {
		summary.WeeklyResolutions = append(summary.WeeklyResolutions, *point)
	}
	sort.Slice(summary.WeeklyResolutions, func(i, j int) bool {
		return summary.WeeklyResolutions[i].WeekStart.Before(summary.WeeklyResolutions[j].WeekStart)
	})

	return summary
}

// startOfWeek returns the Monday 00:00 UTC of t's week.
func startOfWeek(t time.Time) time.Time {
	utc := t.UTC()
	weekday := int(utc.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := utc.AddDate(0, 0, -(weekday - 1))
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}
