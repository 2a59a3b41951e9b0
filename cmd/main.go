package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neowatch/internal/clients"
	"neowatch/internal/config"
	"neowatch/internal/handlers"
	"neowatch/internal/middleware"
	"neowatch/internal/models"
	"neowatch/internal/repository"
	"neowatch/internal/service"
	"neowatch/internal/worker"
	"neowatch/pkg/database"
	"neowatch/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

func main() {
	// Загрузка .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("=== NEO Watch Sync Starting ===")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	backfillStart, _ := models.ParseDate(cfg.Sync.BackfillStart)

	// Подключение к PostgreSQL
	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Redis нужен только для статусов запусков, без него синхронизация работает
	var cacheRepo repository.CacheRepository
	redisClient, err := redis.Connect(cfg.Redis)
	if err != nil {
		log.Printf("Redis unavailable, sync status will not be recorded: %v", err)
	} else {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient)
	}

	asteroidRepo := repository.NewAsteroidRepository(db)
	neoClient := clients.NewNEOClient(cfg.NASA)

	syncService := service.NewSyncService(
		asteroidRepo,
		cacheRepo,
		neoClient,
		service.NewPacer(cfg.Sync.PacerDelay),
		service.SyncConfig{ChunkDays: cfg.Sync.ChunkDays},
		nil,
	)

	// Фоновые задачи
	scheduler := worker.NewScheduler()

	if cfg.Sync.BackfillOnStartup {
		scheduler.AddWorker(worker.NewBackfillWorker(asteroidRepo, syncService, backfillStart))
		log.Printf("Backfill Worker enabled (start: %s)", cfg.Sync.BackfillStart)
	}

	if cfg.Workers.NEOEnabled {
		scheduler.AddWorker(worker.NewNEOWorker(syncService, cfg.Workers.NEOInterval, cfg.Workers.NEOAt))
		log.Printf("NEO Worker enabled (at %s UTC, interval: %v)", cfg.Workers.NEOAt, cfg.Workers.NEOInterval)
	}

	scheduler.Start()
	defer scheduler.Stop()

	// Инициализация Gin
	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("Running in DEBUG mode")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", cfg.App.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Rate limiting (только для продакшена)
	if !cfg.App.Debug {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		r.Use(middleware.RateLimitMiddleware(limiter))
		log.Printf("Rate limiting enabled: %d req/sec, burst: %d",
			cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ручные запуски отменяются вместе с сервером
	serverCtx, cancelServer := context.WithCancel(context.Background())
	defer cancelServer()

	// не больше одного ручного запуска в минуту с одного IP
	manualLimiter := middleware.NewIPRateLimiter(rate.Every(time.Minute), 1)

	syncHandler := handlers.NewSyncHandler(serverCtx, syncService, asteroidRepo, redisClient, backfillStart)
	syncHandler.RegisterRoutes(r.Group("/api/v1"), cfg.App.Debug, middleware.IPRateLimitMiddleware(manualLimiter))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s", cfg.App.Port)
		log.Printf("Health check: http://localhost:%s/api/v1/health", cfg.App.Port)
		log.Printf("Metrics: http://localhost:%s/metrics", cfg.App.Port)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start:", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	cancelServer()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server forced to shutdown:", err)
	}

	// ручной backfill дописывает статус последнего запуска
	if err := syncHandler.Wait(ctx); err != nil {
		log.Println("Manual backfill did not stop in time:", err)
	}

	log.Println("Server exited properly")
}
