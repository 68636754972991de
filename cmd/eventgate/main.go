package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	appevent "github.com/eventgate/eventgate/pkg/app/event"
	appregistration "github.com/eventgate/eventgate/pkg/app/registration"
	"github.com/eventgate/eventgate/pkg/cache"
	"github.com/eventgate/eventgate/pkg/common"
	"github.com/eventgate/eventgate/pkg/config"
	"github.com/eventgate/eventgate/pkg/guards"
	"github.com/eventgate/eventgate/pkg/guards/ratelimit"
	"github.com/eventgate/eventgate/pkg/guards/sanitizer"
	"github.com/eventgate/eventgate/pkg/guards/securitymonitor"
	"github.com/eventgate/eventgate/pkg/guards/validator"
	handlers "github.com/eventgate/eventgate/pkg/handlers/http"
	"github.com/eventgate/eventgate/pkg/infra/database"
	"github.com/eventgate/eventgate/pkg/infra/jwt"
	infraLogger "github.com/eventgate/eventgate/pkg/infra/logger"
	"github.com/eventgate/eventgate/pkg/infra/notifier"
	"github.com/eventgate/eventgate/pkg/infra/prometheus"
	"github.com/eventgate/eventgate/pkg/infra/repository"
	"github.com/eventgate/eventgate/pkg/middleware"
	"github.com/eventgate/eventgate/pkg/server"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewLogger()

	if err := config.Load("./config"); err != nil {
		logger.WithError(err).Warn("failed to load config file")
	}
	cfg := config.GetConfig()

	prometheus.Initialize(prometheus.MetricsConfig{
		EnableLatency:     cfg.Metrics.EnableLatency,
		EnablePerEvent:    cfg.Metrics.EnablePerEvent,
		EnableConnections: cfg.Metrics.EnableConnections,
	})

	db, err := database.NewDB(logger, &database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	cacheInstance, err := cache.NewCache(common.CacheConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}
	defer cacheInstance.Close()

	// repositories
	eventRepository := repository.NewEventRepository(db.DB)
	registrationRepository := repository.NewRegistrationRepository(db.DB)
	securityEventRepository := repository.NewSecurityEventRepository(db.DB)

	// application services
	eventFinder := appevent.NewFinder(eventRepository, cacheInstance, logger)
	eventCreator := appevent.NewCreator(eventRepository, logger)
	cacheInvalidator := appevent.NewCacheInvalidator(cacheInstance)

	// guard pipeline
	limiter := ratelimit.NewLimiter(cacheInstance.Client(), nil)
	monitor := securitymonitor.NewMonitor(cacheInstance.Client(), securityEventRepository, logger, nil)
	guardManager, err := guards.NewManager(logger, cfg.Guards,
		limiter,
		sanitizer.NewSanitizer(),
		validator.NewValidator(),
		monitor,
	)
	if err != nil {
		logger.Fatalf("Failed to initialize guard pipeline: %v", err)
	}

	confirmationNotifier := buildNotifier(cfg, logger)

	submitter := appregistration.NewSubmitter(
		eventFinder,
		registrationRepository,
		guardManager,
		monitor,
		confirmationNotifier,
		logger,
		nil,
	)

	jwtManager := jwt.NewJwtManager(&cfg.Server)

	middlewareTransport := middleware.Transport{
		AdminAuthMiddleware:    middleware.NewAdminAuthMiddleware(logger, jwtManager),
		MetricsMiddleware:      middleware.NewMetricsMiddleware(logger),
		PanicRecoverMiddleware: middleware.NewPanicRecoverMiddleware(logger),
	}

	handlerTransport := handlers.HandlerTransport{
		CreateRegistrationHandler: handlers.NewCreateRegistrationHandler(logger, submitter),
		ListRegistrationsHandler:  handlers.NewListRegistrationsHandler(logger, registrationRepository),
		CreateEventHandler:        handlers.NewCreateEventHandler(logger, eventCreator),
		ListEventsHandler:         handlers.NewListEventsHandler(logger, eventRepository, false),
		ListAllEventsHandler:      handlers.NewListEventsHandler(logger, eventRepository, true),
		GetEventHandler:           handlers.NewGetEventHandler(logger, eventFinder),
		UpdateEventHandler:        handlers.NewUpdateEventHandler(logger, eventRepository, cacheInvalidator),
		ListSecurityEventsHandler: handlers.NewListSecurityEventsHandler(logger, securityEventRepository),
		GetVersionHandler:         handlers.NewGetVersionHandler(logger),
	}

	publicServer := server.NewPublicServer(server.PublicServerDI{
		MiddlewareTransport: middlewareTransport,
		HandlerTransport:    handlerTransport,
		Config:              cfg,
		Logger:              logger,
	})
	adminServer := server.NewAdminServer(server.AdminServerDI{
		MiddlewareTransport: middlewareTransport,
		HandlerTransport:    handlerTransport,
		Config:              cfg,
		Logger:              logger,
	})

	go func() {
		if err := adminServer.Run(); err != nil {
			logger.Fatalf("Admin server failed: %v", err)
		}
	}()
	go func() {
		if err := publicServer.Run(); err != nil {
			logger.Fatalf("Public server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down servers...")
	if err := publicServer.Shutdown(); err != nil {
		logger.WithError(err).Error("error shutting down public server")
	}
	if err := adminServer.Shutdown(); err != nil {
		logger.WithError(err).Error("error shutting down admin server")
	}
	logger.Info("servers gracefully stopped")
}

func buildNotifier(cfg *config.Config, logger *logrus.Logger) notifier.Notifier {
	if cfg.Notifier.WebhookURL == "" {
		logger.Info("no confirmation webhook configured")
		return notifier.NoopNotifier{}
	}
	return notifier.NewWebhookNotifier(
		logger,
		cfg.Notifier.WebhookURL,
		time.Duration(cfg.Notifier.TimeoutMs)*time.Millisecond,
		uint32(cfg.Notifier.MaxFailures),
	)
}
