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

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zfogg/snapshelf/backend/internal/auth"
	"github.com/zfogg/snapshelf/backend/internal/cache"
	"github.com/zfogg/snapshelf/backend/internal/config"
	"github.com/zfogg/snapshelf/backend/internal/database"
	"github.com/zfogg/snapshelf/backend/internal/handlers"
	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/metrics"
	"github.com/zfogg/snapshelf/backend/internal/middleware"
	"github.com/zfogg/snapshelf/backend/internal/notify"
	"github.com/zfogg/snapshelf/backend/internal/queue"
	"github.com/zfogg/snapshelf/backend/internal/realtime"
	"github.com/zfogg/snapshelf/backend/internal/repository"
	"github.com/zfogg/snapshelf/backend/internal/search"
	"github.com/zfogg/snapshelf/backend/internal/service"
	"github.com/zfogg/snapshelf/backend/internal/storage"
	"github.com/zfogg/snapshelf/backend/internal/telemetry"
	"github.com/zfogg/snapshelf/backend/internal/validation"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Snapshelf server starting ===",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	metrics.Initialize()

	shutdownTracer, err := telemetry.InitTracer(context.Background(), telemetry.Config{
		ServiceName:  telemetry.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTelEndpoint,
		Enabled:      cfg.OTelEnabled,
		SamplingRate: cfg.OTelSamplingRate,
	})
	if err != nil {
		logger.FatalWithFields("Failed to initialize tracing", err)
	}

	// Initialize database
	if err := database.Initialize(cfg.DatabaseURL, !cfg.IsProduction()); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	if cfg.OTelEnabled {
		if err := database.DB.Use(telemetry.GORMTracingPlugin(otel.GetTracerProvider(), "postgresql")); err != nil {
			logger.WarnWithFields("Failed to register GORM tracing plugin", err)
		}
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	validator := validation.NewServiceValidator()
	validator.Register("database", func(context.Context) error { return database.Health() })

	// Redis backs the rate limiter and collection cache. Without it both fall
	// back to process memory, which is only correct for a single instance.
	var store cache.Store
	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.WarnWithFields("Redis unavailable, using in-memory cache", err)
		store = cache.NewMemoryStore()
	} else {
		defer redisClient.Close()
		store = redisClient
		validator.Register("redis", redisClient.Ping)
	}

	repos := repository.NewRepositories(database.DB)

	postService := service.NewPostService(repos)
	commentService := service.NewCommentService(repos)
	collectionService := service.NewCollectionService(repos)
	friendService := service.NewFriendService(repos)
	collectionCache := cache.NewCollectionCache(store, 0)
	collectionService.SetCache(collectionCache)
	postService.SetCollectionCache(collectionCache)

	// Blob cleanup and index writes run off the request path
	jobs := queue.New(cfg.JobWorkers, cfg.JobBuffer)
	jobs.SetJobTimeout(cfg.JobTimeout)
	jobs.Start()
	postService.SetJobRunner(jobs)

	s3Uploader, err := storage.NewS3Uploader(context.Background(), cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
	if err != nil {
		logger.FatalWithFields("Failed to initialize S3 uploader", err)
	}
	postService.SetImageStore(s3Uploader)
	validator.Register("s3", s3Uploader.CheckBucketAccess)

	if cfg.ElasticsearchURL != "" {
		searchClient, err := search.NewClient(cfg.ElasticsearchURL)
		if err != nil {
			logger.WarnWithFields("Elasticsearch unavailable, search disabled", err)
		} else if err := searchClient.InitializeIndices(context.Background()); err != nil {
			logger.WarnWithFields("Failed to initialize search indices, search disabled", err)
		} else {
			postService.SetIndexer(searchClient)
			validator.Register("elasticsearch", searchClient.Ping)
		}
	} else {
		logger.Log.Info("ELASTICSEARCH_URL not set, search disabled")
	}

	if err := validator.ValidateServices(context.Background()); err != nil {
		logger.FatalWithFields("Service validation failed", err)
	}

	// Live post subscriptions
	hub := realtime.NewHub(postService)
	hub.SetClientConfig(realtime.ClientConfig{PingPeriod: cfg.RealtimePingEvery})
	go hub.Run()
	postService.SetObserver(hub)
	commentService.SetObserver(hub)
	collectionService.SetObserver(hub)
	liveHandler := realtime.NewHandler(hub)
	liveHandler.SetOriginPatterns(cfg.AllowedOrigins)
	if len(cfg.AllowedOrigins) == 0 && cfg.IsProduction() {
		logger.Log.Warn("ALLOWED_ORIGINS not set, accepting requests from any origin")
	}

	// Notification fan-out to GetStream
	var dispatcher *notify.Dispatcher
	if cfg.StreamEnabled() {
		notifier, err := notify.NewStreamNotifier(cfg.StreamAPIKey, cfg.StreamAPISecret)
		if err != nil {
			logger.FatalWithFields("Failed to initialize Stream.io notifier", err)
		}
		dispatcher = notify.NewDispatcher(repos.Events, notifier, cfg.NotifyInterval)
		dispatcher.Start()
	} else {
		logger.Log.Info("STREAM_API_KEY or STREAM_API_SECRET not set, notifications stay queued")
	}

	h := handlers.NewHandlers(postService, commentService, collectionService, friendService)
	h.SetRealtimeHandler(liveHandler)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	if cfg.OTelEnabled {
		r.Use(middleware.TracingMiddleware(telemetry.ServiceName))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowWildcard = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{middleware.HeaderRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		services, healthy := validator.Status(c.Request.Context())
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":    http.StatusText(status),
			"services":  services,
			"jobs":      jobs.Stats(),
			"timestamp": time.Now().UTC(),
			"service":   telemetry.ServiceName,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rateLimit := middleware.DefaultRateLimitConfig()
	rateLimit.Limit = cfg.RateLimitRequests
	rateLimit.Window = cfg.RateLimitWindow

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(auth.NewVerifier([]byte(cfg.JWTSecret))))
	api.Use(middleware.RateLimitMiddleware(store, rateLimit))
	api.GET("/ws/stats", liveHandler.HandleStats)

	// Websocket upgrades cannot be gzipped, so compression is scoped to
	// the REST routes.
	rest := api.Group("", gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/ws/"})))
	h.RegisterRoutes(rest)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Snapshelf backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := hub.Shutdown(ctx); err != nil {
		logger.WarnWithFields("Realtime hub shutdown", err)
	}
	if dispatcher != nil {
		dispatcher.Stop()
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}
	if err := jobs.Stop(ctx); err != nil {
		logger.WarnWithFields("Job queue shutdown", err)
	}
	if err := shutdownTracer(ctx); err != nil {
		logger.WarnWithFields("Tracer shutdown", err)
	}

	logger.Log.Info("Server exited")
}
