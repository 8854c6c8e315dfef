package main

import (
	"context"
	"coop-loans/internal/api"
	mw "coop-loans/internal/api/middleware"
	"coop-loans/internal/batch"
	"coop-loans/internal/config"
	"coop-loans/internal/domain/loan"
	"coop-loans/internal/domain/member"
	"coop-loans/internal/domain/penalty"
	"coop-loans/internal/event"
	"coop-loans/internal/infrastructure/database/postgres"
	"coop-loans/internal/infrastructure/idgen"
	"coop-loans/internal/infrastructure/logging"
	infraredis "coop-loans/internal/infrastructure/redis"
	"coop-loans/internal/infrastructure/tracing"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// @title Cooperative Loans API
// @version 1.0
// @description Loan origination, repayment schedules, payment allocation and penalties for a cooperative society.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	shutdownTracing := initializeTracing(cfg, logger)
	dbPool := initializeDatabase(cfg, logger)
	defer closeDatabase(dbPool, logger)

	rabbitMQConn := setupRabbitMQ(cfg, logger)
	redisClient := initializeRedisClient(cfg, logger)
	services := initializeServices(cfg, dbPool, rabbitMQConn, logger)

	sweepJob := batch.NewPenaltySweepJob(services.Penalties, cfg.Batch.PenaltySweepTimeout, logger)
	cronScheduler := startBatchJobs(cfg, sweepJob, logger)

	router := api.SetupRouter(services, newInfra(cfg, redisClient), cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, shutdownChan, serverErrors, logger)

	closeRabbitMQConnection(rabbitMQConn, logger)
	closeRedisClient(redisClient, logger)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Tracer provider shutdown failed", "error", err)
	}
	logger.Info("Application shutdown process complete.")
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeTracing(cfg *config.Config, logger *slog.Logger) tracing.ShutdownFunc {
	shutdown, err := tracing.Init(context.Background(), cfg.Tracing, logger)
	if err != nil {
		logger.Error("Failed to initialize tracing, continuing without it", "error", err)
		return func(context.Context) error { return nil }
	}
	return shutdown
}

func initializeDatabase(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	if cfg.Database.AutoMigrate {
		logger.Info("Applying database migrations...", "path", cfg.Database.MigrationsPath)
		if err := postgres.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath, logger); err != nil {
			logger.Error("Failed to apply database migrations", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

func initializeServices(cfg *config.Config, dbPool *pgxpool.Pool, rabbitConn *amqp.Connection, logger *slog.Logger) api.Services {
	logger.Info("Initializing application components...")

	publisher := newEventPublisher(cfg, rabbitConn, logger)

	memberService := member.NewMemberService(postgres.NewMemberRepository(dbPool, logger), logger)
	loanService := loan.NewLoanService(
		postgres.NewLoanRepository(dbPool, logger),
		memberService,
		publisher,
		postgres.NewRetrier(logger),
		idgen.NewGenerator(),
		loan.Options{
			DefaultMonthlySavings: cfg.Loan.MonthlySavings(),
			OverpaymentPolicy:     loan.OverpaymentPolicy(cfg.Loan.OverpaymentPolicy),
		},
		logger,
	)
	penaltyService := penalty.NewService(
		postgres.NewPenaltyRepository(dbPool, logger),
		publisher,
		cfg.Loan.LatePenalty(),
		cfg.Batch.Workers,
		logger,
	)

	return api.Services{
		Loans:     loanService,
		Penalties: penaltyService,
		Members:   memberService,
	}
}

func newEventPublisher(cfg *config.Config, rabbitConn *amqp.Connection, logger *slog.Logger) event.Publisher {
	if rabbitConn == nil {
		return event.NewNopPublisher(logger)
	}
	publisher, err := event.NewRabbitMQPublisher(rabbitConn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to set up RabbitMQ publisher, events will be dropped", "error", err)
		return event.NewNopPublisher(logger)
	}
	return publisher
}

// newInfra returns a nil IdempotencyStore interface, not a typed nil, when
// Redis is off so the middleware passes requests straight through.
func newInfra(cfg *config.Config, redisClient *redis.Client) api.Infra {
	infra := api.Infra{RedisClient: redisClient}
	if redisClient != nil {
		var store mw.IdempotencyStore = infraredis.NewIdempotencyStore(redisClient, cfg.Redis.IdempotencyTTL)
		infra.Idempotency = store
	}
	return infra
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.", "error", err)
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	if cronScheduler != nil {
		logger.Info("Stopping cron scheduler...")
		cronCtx := cronScheduler.Stop()
		select {
		case <-cronCtx.Done():
			logger.Info("Cron scheduler stopped gracefully.")
		case <-time.After(15 * time.Second):
			logger.Warn("Cron scheduler shutdown timed out.")
		}
	}

	shutdownHTTPServer(srv, serverErrors, logger)
}

func shutdownHTTPServer(srv *http.Server, serverErrors <-chan error, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}
}

func startBatchJobs(cfg *config.Config, job *batch.PenaltySweepJob, logger *slog.Logger) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")

	scheduleSpec := cfg.Batch.PenaltySweepSchedule
	if scheduleSpec == "" {
		scheduleSpec = "0 2 * * *"
		logger.Warn("Penalty sweep schedule not configured, using default", "schedule", scheduleSpec)
	}

	c, err := job.Schedule(context.Background(), scheduleSpec)
	if err != nil {
		logger.Error("Failed to schedule penalty sweep, batch jobs disabled", "schedule", scheduleSpec, slog.Any("error", err))
		return nil
	}

	c.Start()
	logger.Info("Cron scheduler started.", "schedule", scheduleSpec)
	return c
}

// setupRabbitMQ returns nil when the broker is disabled or unreachable;
// events are then dropped rather than blocking payments.
func setupRabbitMQ(cfg *config.Config, logger *slog.Logger) *amqp.Connection {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, audit events will not be published")
		return nil
	}
	conn, err := event.Dial(cfg.RabbitMQ, logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		return nil
	}
	return conn
}

func closeRabbitMQConnection(rabbitConn *amqp.Connection, logger *slog.Logger) {
	if rabbitConn == nil {
		logger.Info("RabbitMQ connection was not established, skipping close.")
		return
	}
	if rabbitConn.IsClosed() {
		logger.Info("RabbitMQ connection already closed, skipping close.")
		return
	}
	logger.Info("Closing RabbitMQ connection...")
	if err := rabbitConn.Close(); err != nil {
		logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
	}
}

func initializeRedisClient(cfg *config.Config, logger *slog.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		logger.Info("Redis disabled, using in-process rate limiting and no idempotency keys")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := infraredis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err, "addr", cfg.Redis.Addr)
		os.Exit(1)
	}
	return client
}

func closeRedisClient(redisClient *redis.Client, logger *slog.Logger) {
	if redisClient == nil {
		return
	}
	logger.Info("Closing Redis client connection...")
	if err := redisClient.Close(); err != nil {
		logger.Error("Failed to close Redis client connection gracefully", "error", err)
	}
}
