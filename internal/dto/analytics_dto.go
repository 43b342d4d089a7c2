package dto

import "time"

// OriginBreakdown counts the alerts of one origin by status.
type OriginBreakdown struct {
	Pending  int64 `json:"pending"`
	Retained int64 `json:"retained"`
	Churned  int64 `json:"churned"`
}

// WeeklyResolutionPoint counts resolutions in the week starting on WeekStart (Monday).
type WeeklyResolutionPoint struct {
	WeekStart time.Time `json:"week_start"`
	Retained  int64     `json:"retained"`
	Churned   int64     `json:"churned"`
}

// RetentionAnalyticsResponse summarizes retention outcomes for the dashboard.
type RetentionAnalyticsResponse struct {
	OpenAlerts        int64                      `json:"open_alerts"`
	Retained          int64                      `json:"retained"`
	Churned           int64                      `json:"churned"`
	RetentionRate     float64                    `json:"retention_rate"`
	ByOrigin          map[string]OriginBreakdown `json:"by_origin"`
	RetentionKinds    map[string]int64           `json:"retention_kinds"`
	WeeklyResolutions []WeeklyResolutionPoint    `json:"weekly_resolutions"`
	GeneratedAt       time.Time                  `json:"generated_at"`
	CacheHit          bool                       `json:"cache_hit"`
}
