package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	LogLevel               string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	NotificationChannel    string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxBytes         int64
	TimeZone               string
	Location               *time.Location
	DefaultOpeningTime     string
	DefaultClosingTime     string
	DefaultWorkingDays     []time.Weekday
	AlertLockTTL           time.Duration
	AlertLockWait          time.Duration
	DraftTTL               time.Duration
	AdvanceRateLimit       int
	AnalyticsCacheTTL      time.Duration
	SeedEnabled            bool
	SeedToken              string
	CORSAllowOrigins       string
	SlowRequestThreshold   time.Duration
	DBMaxOpenConns         int
	DBMaxIdleConns         int
	DBConnMaxLifetime      time.Duration
	DBSlowQueryThreshold   time.Duration
}

// Development reports whether the service runs with developer conveniences such as the
// plain access log.
func (c Config) Development() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RETENTION")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Retention API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("notifications.channel", "retention")
	v.SetDefault("cloudinary.folder", "retention/documents")
	v.SetDefault("upload.max_bytes", 10*1024*1024)
	v.SetDefault("timezone", "America/Sao_Paulo")
	v.SetDefault("scheduling.default_open", "08:00")
	v.SetDefault("scheduling.default_close", "18:00")
	v.SetDefault("scheduling.default_days", "1,2,3,4,5")
	v.SetDefault("lock.ttl", "10s")
	v.SetDefault("lock.wait", "3s")
	v.SetDefault("draft.ttl", "24h")
	v.SetDefault("rate_limit.advance", 30)
	v.SetDefault("analytics.cache_ttl", "1m")
	v.SetDefault("seed.enabled", false)
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("http.slow_request", "500ms")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.slow_query", "200ms")

	location, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid timezone: %w", err)
	}

	lockTTL, err := parseDuration(v, "lock.ttl")
	if err != nil {
		return Config{}, err
	}
	lockWait, err := parseDuration(v, "lock.wait")
	if err != nil {
		return Config{}, err
	}
	draftTTL, err := parseDuration(v, "draft.ttl")
	if err != nil {
		return Config{}, err
	}

	analyticsTTL, err := parseDuration(v, "analytics.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	slowRequest, err := parseDuration(v, "http.slow_request")
	if err != nil {
		return Config{}, err
	}
	connLifetime, err := parseDuration(v, "database.conn_max_lifetime")
	if err != nil {
		return Config{}, err
	}
	slowQuery, err := parseDuration(v, "database.slow_query")
	if err != nil {
		return Config{}, err
	}

	days, err := parseWeekdays(v.GetString("scheduling.default_days"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		LogLevel:               v.GetString("log.level"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		NotificationChannel:    v.GetString("notifications.channel"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxBytes:         v.GetInt64("upload.max_bytes"),
		TimeZone:               location.String(),
		Location:               location,
		DefaultOpeningTime:     v.GetString("scheduling.default_open"),
		DefaultClosingTime:     v.GetString("scheduling.default_close"),
		DefaultWorkingDays:     days,
		AlertLockTTL:           lockTTL,
		AlertLockWait:          lockWait,
		DraftTTL:               draftTTL,
		AdvanceRateLimit:       v.GetInt("rate_limit.advance"),
		AnalyticsCacheTTL:      analyticsTTL,
		SeedEnabled:            v.GetBool("seed.enabled"),
		SeedToken:              v.GetString("seed.token"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		SlowRequestThreshold:   slowRequest,
		DBMaxOpenConns:         v.GetInt("database.max_open_conns"),
		DBMaxIdleConns:         v.GetInt("database.max_idle_conns"),
		DBConnMaxLifetime:      connLifetime,
		DBSlowQueryThreshold:   slowQuery,
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = 10 * 1024 * 1024
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return duration, nil
}

// parseWeekdays reads a comma separated list of weekday numbers, Sunday being 0.
func parseWeekdays(raw string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, 7)
	seen := make(map[time.Weekday]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var day int
		if _, err := fmt.Sscanf(part, "%d", &day); err != nil || day < 0 || day > 6 {
			return nil, fmt.Errorf("invalid default working day %q", part)
		}
		weekday := time.Weekday(day)
		if !seen[weekday] {
			seen[weekday] = true
			days = append(days, weekday)
		}
	}
	return days, nil
}
