package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cheapcruises/service-deals/internal/application"
	"github.com/cheapcruises/service-deals/internal/config"
	"github.com/cheapcruises/service-deals/internal/events"
	"github.com/cheapcruises/service-deals/internal/handler"
	"github.com/cheapcruises/service-deals/internal/repository"
	"github.com/cheapcruises/service-deals/internal/scheduler"
	"github.com/cheapcruises/service-deals/internal/scraper"
	"github.com/cheapcruises/service-deals/pkg/database"
	"github.com/cheapcruises/service-deals/pkg/health"
	"github.com/cheapcruises/service-deals/pkg/logger"
	"github.com/cheapcruises/service-deals/pkg/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-deals")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-deals",
		zap.String("port", cfg.Port),
		zap.String("scrape_target", cfg.Scraper.BaseURL),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.DealModel{}, &repository.PromoModel{}); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	}

	// Initialize event publisher; without brokers events are dropped
	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaConfig.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaConfig.Brokers, cfg.KafkaConfig.Topic, zapLogger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	// Initialize repositories
	dealRepo := repository.NewGormDealRepository(db)
	promoRepo := repository.NewGormPromoRepository(db)

	// Initialize ingestion pipeline
	parser := scraper.NewParser(zapLogger)
	fetcher := scraper.NewFetcher(cfg.Scraper, parser, zapLogger)
	normalizer := scraper.NewNormalizer(zapLogger)
	ingestService := application.NewIngestService(
		fetcher, parser, normalizer, dealRepo, publisher,
		cfg.Scraper.MinSuccessfulPages, zapLogger,
	)

	// Initialize scheduler
	sched := scheduler.New(ingestService, cfg.Scraper.IntervalHours, zapLogger)

	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()

	go sched.Start(schedulerCtx)

	if cfg.Scraper.RunOnStart {
		if runID, started := sched.TriggerNow(); started {
			zapLogger.Info("initial scrape run started", zap.String("run_id", runID.String()))
		}
	}

	// Initialize application services
	dealService := application.NewDealService(dealRepo, cfg.MaxPageSize, cfg.PriceThreshold, zapLogger)
	promoService := application.NewPromoService(promoRepo, zapLogger)

	// Seed the known promo codes
	if err := promoService.SeedKnownCodes(context.Background()); err != nil {
		zapLogger.Error("failed to seed promo codes", zap.Error(err))
	}

	// Initialize HTTP handlers
	dealHandler := handler.NewDealHandler(dealService, zapLogger)
	promoHandler := handler.NewPromoHandler(promoService, zapLogger)
	adminHandler := handler.NewAdminHandler(sched, zapLogger)
	pagesHandler := handler.NewPagesHandler(dealService, promoService, zapLogger)

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())

	// Server-rendered pages
	router.LoadHTMLGlob("web/templates/*.html")
	pagesHandler.RegisterRoutes(router)

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-deals")
	healthHandler.RegisterRoutes(router)

	// Register API routes
	apiV1 := router.Group("/api/v1")
	dealHandler.RegisterRoutes(apiV1)
	promoHandler.RegisterRoutes(apiV1)
	adminHandler.RegisterRoutes(apiV1)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-deals...")

	// Stop the scheduler
	schedulerCancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-deals stopped")
}
