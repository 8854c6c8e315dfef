package api

import (
	"coop-loans/internal/api/handler"
	mw "coop-loans/internal/api/middleware"
	"coop-loans/internal/config"
	"coop-loans/internal/domain/loan"
	"coop-loans/internal/domain/member"
	"coop-loans/internal/domain/penalty"
	"log/slog"
	"net/http"
	"time"

	_ "coop-loans/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/redis/go-redis/v9"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Services struct {
	Loans     loan.LoanService
	Penalties penalty.Service
	Members   member.MemberService
}

// Infra carries optional shared clients. A nil RedisClient falls back to
// in-process rate limiting; a nil Idempotency disables key replay.
type Infra struct {
	RedisClient *redis.Client
	Idempotency mw.IdempotencyStore
}

func SetupRouter(services Services, infra Infra, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, infra, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)
	setupAuthRoutes(router, cfg, logger)
	setupLoanRoutes(router, services, infra, cfg, logger)
	setupPenaltyRoutes(router, services.Penalties, cfg, logger)
	setupMemberRoutes(router, services.Members, cfg, logger)

	return router
}

func setupMiddleware(router *chi.Mux, infra Infra, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger, "/health", cfg.Metrics.Path))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, infra.RedisClient, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
	if cfg.Tracing.Enabled {
		router.Use(mw.Tracing(cfg.Tracing.ServiceName))
	}
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupLoanRoutes(router *chi.Mux, services Services, infra Infra, cfg *config.Config, logger *slog.Logger) {
	loanHandler := handler.NewLoanHandler(services.Loans, logger)
	penaltyHandler := handler.NewPenaltyHandler(services.Penalties, logger)
	idempotent := mw.Idempotency(infra.Idempotency, logger)

	router.Route("/loans", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", loanHandler.CreateLoan)
		r.Route("/{loanID}", func(r chi.Router) {
			r.Get("/", loanHandler.GetLoan)
			r.Get("/schedule", loanHandler.GetSchedule)
			r.Get("/outstanding", loanHandler.GetOutstanding)
			r.Get("/payments", loanHandler.ListPayments)
			r.Get("/penalties", penaltyHandler.ListLoanPenalties)
			r.With(idempotent).Post("/payments", loanHandler.MakePayment)
			r.With(idempotent).Post("/clear", loanHandler.ClearLoan)
		})
	})

	router.Route("/schedules", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/preview", loanHandler.PreviewSchedule)
	})
}

func setupPenaltyRoutes(router *chi.Mux, svc penalty.Service, cfg *config.Config, logger *slog.Logger) {
	h := handler.NewPenaltyHandler(svc, logger)

	router.Route("/penalties", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/{penaltyID}/waive", h.WaivePenalty)
	})
}

func setupMemberRoutes(router *chi.Mux, svc member.MemberService, cfg *config.Config, logger *slog.Logger) {
	h := handler.NewMemberHandler(svc, logger)

	router.Route("/members", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/{memberID}/savings", h.GetSavingsBalance)
	})
}
