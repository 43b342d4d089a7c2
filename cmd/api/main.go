package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/retention-api/internal/config"
	"github.com/noah-isme/retention-api/internal/database"
	"github.com/noah-isme/retention-api/internal/handler"
	"github.com/noah-isme/retention-api/internal/middleware"
	"github.com/noah-isme/retention-api/internal/repository"
	"github.com/noah-isme/retention-api/internal/router"
	"github.com/noah-isme/retention-api/internal/scheduling"
	"github.com/noah-isme/retention-api/internal/service"
	cloud "github.com/noah-isme/retention-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.ConnectPostgres(ctx, cfg.DatabaseURL, database.PostgresOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		SlowQuery:       cfg.DBSlowQueryThreshold,
		Logger:          logger,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to access database pool: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; drafts disabled and alert locks are process-local")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable; notifications fan out through redis only")
			natsConn = nil
		} else {
			defer natsConn.Drain()
		}
	}

	var storage service.FileStorage
	cloudConfig := cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}
	if cloudConfig.Configured() {
		uploader, err := cloud.New(cloudConfig, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		storage = uploader
	} else {
		logger.Warn().Msg("cloudinary credentials missing; document uploads disabled")
	}

	opening, err := scheduling.ParseClock(cfg.DefaultOpeningTime)
	if err != nil {
		log.Fatalf("invalid default opening time: %v", err)
	}
	closing, err := scheduling.ParseClock(cfg.DefaultClosingTime)
	if err != nil {
		log.Fatalf("invalid default closing time: %v", err)
	}
	defaults := service.DefaultHours{Open: opening, Close: closing, Days: cfg.DefaultWorkingDays}

	validate := validator.New(validator.WithRequiredStructEnabled())

	retentionRepo := repository.NewRetentionRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	auditService := service.NewAuditService(auditRepo, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.NotificationChannel, natsConn, validate, logger)
	slotService := service.NewSlotService(calendarRepo, defaults, validate, logger)
	documentService := service.NewDocumentService(storage, documentRepo, cfg.UploadMaxBytes, logger)
	locker := service.NewAlertLocker(redisClient, cfg.AlertLockTTL, cfg.AlertLockWait, logger)
	retentionService := service.NewRetentionService(
		retentionRepo,
		studentRepo,
		documentRepo,
		slotService,
		locker,
		auditService,
		notificationService,
		validate,
		cfg.Location,
		logger,
	)
	analyticsService := service.NewAnalyticsService(analyticsRepo, redisClient, cfg.AnalyticsCacheTTL, logger)
	studentService := service.NewStudentService(studentRepo, auditService, validate, logger)
	seedService := service.NewSeedService(studentRepo, slotService, validate, cfg.SeedEnabled, cfg.SeedToken, logger)
	draftService := service.NewDraftService(retentionService, redisClient, cfg.DraftTTL, cfg.Location, validate, logger)

	notificationService.Start(ctx)

	probes := map[string]handler.HealthProbe{
		"database": sqlDB.PingContext,
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.UploadMaxBytes) + 1024*1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:        logger,
		AllowOrigins:  cfg.CORSAllowOrigins,
		SlowThreshold: cfg.SlowRequestThreshold,
		AccessLog:     cfg.Development(),
	})
	router.Register(app, cfg, router.Dependencies{
		RetentionHandler:    handler.NewRetentionHandler(retentionService, draftService, logger),
		CalendarHandler:     handler.NewCalendarHandler(slotService, cfg.Location, logger),
		DocumentHandler:     handler.NewDocumentHandler(documentService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, 30*time.Second),
		AuditHandler:        handler.NewAuditHandler(auditService, logger),
		StudentHandler:      handler.NewStudentHandler(studentService, logger),
		AnalyticsHandler:    handler.NewAnalyticsHandler(analyticsService, logger),
		SeedHandler:         handler.NewSeedHandler(seedService, logger),
		HealthProbes:        probes,
		AdvanceLimit:        cfg.AdvanceRateLimit,
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Str("timezone", cfg.TimeZone).Msg("starting retention api")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
