package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mariusnicorescu85/uk-property-investment/config"
	"github.com/mariusnicorescu85/uk-property-investment/internal/api"
	"github.com/mariusnicorescu85/uk-property-investment/internal/cache"
	"github.com/mariusnicorescu85/uk-property-investment/internal/database"
	"github.com/mariusnicorescu85/uk-property-investment/internal/fetch"
	"github.com/mariusnicorescu85/uk-property-investment/internal/geocoding"
	"github.com/mariusnicorescu85/uk-property-investment/internal/prediction"
	"github.com/mariusnicorescu85/uk-property-investment/internal/processor"
	"github.com/mariusnicorescu85/uk-property-investment/internal/queue"
	"github.com/mariusnicorescu85/uk-property-investment/internal/realtime"
	"github.com/mariusnicorescu85/uk-property-investment/internal/refresh"
	"github.com/mariusnicorescu85/uk-property-investment/internal/scheduler"
	"github.com/mariusnicorescu85/uk-property-investment/internal/telegram"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// Deployed environments set the variables directly
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	logger.Infof("Using database at: %s", cfg.Server.DatabasePath)

	// Initialize database
	db, err := database.NewDatabase(cfg.Server.DatabasePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	// Run database migrations
	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	// The batch writers use a separate connection on the same file
	gormDB, err := database.NewGormDB(cfg.Server.DatabasePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open the batch writer connection")
	}

	// Upstream fetch stack sharing one TTL cache
	memCache := cache.NewMemory()
	economic := fetch.NewEconomicClient(memCache, logger, cfg.Fetch.UserAgent)
	sales := fetch.NewSalesClient(memCache, logger, cfg.Fetch.UserAgent)
	crime := fetch.NewCrimeClient(memCache, logger, cfg.Fetch.UserAgent)
	geocoder := geocoding.NewGeocoder(logger, cfg.Fetch.GeocodeCacheDir, cfg.Fetch.UserAgent)

	// Prediction engine over the versioned area baseline table
	areas, err := config.LoadAreaProfiles(cfg.Prediction.AreaProfilePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load area profiles")
	}
	logger.WithFields(logrus.Fields{
		"version": areas.Version(),
		"areas":   areas.Len(),
	}).Info("Loaded area baseline table")

	engine := prediction.NewEngine(areas, prediction.NewSeededSource(cfg.Prediction.Seed), logger)

	service := realtime.NewService(economic, sales, crime, geocoder, engine, logger)
	service.SetStationSource(db)

	// Snapshot persistence runs asynchronously behind the queue
	refreshQueue := queue.NewRefreshQueue(cfg.BatchProcessing.MaxBatchSize, logger)
	batchProcessor := processor.NewBatchProcessor(gormDB, refreshQueue, cfg, logger)
	batchProcessor.Start()
	service.SetQueue(refreshQueue)

	refresher := refresh.NewManager(service, economic, cfg.Refresh.Postcodes, cfg.Refresh.WorkerCount, logger)
	if cfg.TelegramEnabled() {
		refresher.SetNotifier(telegram.NewService(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger))
		logger.Info("Telegram notifications enabled")
	}

	sched := scheduler.NewScheduler(refresher, memCache, logger)
	if err := sched.Start(scheduler.Schedules{
		EconomicWarm:   cfg.Refresh.EconomicCron,
		MetricsRefresh: cfg.Refresh.MetricsCron,
		FullRefresh:    cfg.Refresh.FullCron,
	}); err != nil {
		logger.WithError(err).Fatal("Failed to start scheduler")
	}

	handler := api.NewHandler(db, service, areas, refresher, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	api.SetupRoutes(router, handler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Infof("Starting server on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop producing new work, drain in-flight requests, then drain the queue
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Forced server shutdown")
	}

	batchProcessor.Stop()

	logger.Info("Server stopped")
}
