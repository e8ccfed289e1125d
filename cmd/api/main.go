package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aicharya/aicharya-backend/internal/handlers"
	"github.com/aicharya/aicharya-backend/internal/jobs"
	"github.com/aicharya/aicharya-backend/internal/mailer"
	"github.com/aicharya/aicharya-backend/internal/repository"
	"github.com/aicharya/aicharya-backend/internal/service"
	"github.com/aicharya/aicharya-backend/pkg/config"
	"github.com/aicharya/aicharya-backend/pkg/database"
	"github.com/aicharya/aicharya-backend/pkg/events"
	"github.com/aicharya/aicharya-backend/pkg/logger"
	mw "github.com/aicharya/aicharya-backend/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logger.Default())

	if cfg.Auth.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.RunMigrations {
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("Database migrations applied")
	}

	// Connect to redis
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}

	// Connect to event bus; events are optional
	var eventBus events.Publisher = events.NopPublisher{}
	if cfg.NATS.Enabled {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Warn("NATS unavailable, events disabled", "error", err)
		} else {
			eventBus = bus
		}
	}
	defer eventBus.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	verifyRepo := repository.NewVerifyRepository(pool)
	rateLimitRepo := repository.NewRateLimitRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	resetStore := repository.NewResetStore(rdb, "pwreset")

	// Initialize services
	authService := service.NewAuthService(userRepo, verifyRepo, resetStore, mailer.New(cfg.Email), eventBus, cfg)
	lessonService := service.NewLessonService()
	learningService := service.NewLearningService(courseRepo, eventBus)
	feedbackService := service.NewFeedbackService(feedbackRepo, eventBus)

	h := handlers.New(authService, lessonService, learningService, feedbackService, rateLimitRepo, cfg)

	// Background cleanup
	scheduler := jobs.NewScheduler(jobs.NewJobs(verifyRepo, rateLimitRepo), cfg.Jobs.CleanupSchedule)
	if err := scheduler.Start(); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// Setup router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(middleware.Recoverer)
	r.Use(mw.CORS(cfg.Server.CORSAllowedOrigins))
	r.Use(mw.Health)

	h.Mount(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down api...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		select {
		case <-scheduler.Stop().Done():
		case <-ctx.Done():
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("API shutdown error", "error", err)
		}
	}()

	logger.Info("Starting api", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("API server error", "error", err)
		os.Exit(1)
	}
}
