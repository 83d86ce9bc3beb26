// Package handler wires HTTP routes to the service layer.
package handler

import (
	"net/http"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/infra/observability"
	"github.com/rupeetrail/rupeetrail-api-go/internal/port"
	"github.com/rupeetrail/rupeetrail-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *service.FinanceService, store port.FinanceStore, metrics *observability.Metrics, logger *zap.Logger, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 (authenticated) ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(JWTAuthMiddleware(jwtSecret, logger))

		// Transactions
		r.Get("/transactions", listTransactionsHandler(svc, logger))
		r.Post("/transactions", createTransactionHandler(svc, logger))
		r.Get("/transactions/{id}", getTransactionHandler(svc, logger))
		r.Put("/transactions/{id}", updateTransactionHandler(svc, logger))
		r.Delete("/transactions/{id}", deleteTransactionHandler(svc, logger))

		// Categories
		r.Get("/categories", listCategoriesHandler(svc, logger))
		r.Post("/categories", createCategoryHandler(svc, logger))
		r.Put("/categories/{id}", updateCategoryHandler(svc, logger))
		r.Delete("/categories/{id}", deleteCategoryHandler(svc, logger))

		// Budgets
		r.Get("/budgets", listBudgetsHandler(svc, logger))
		r.Post("/budgets", createBudgetHandler(svc, logger))
		r.Post("/budgets/check", budgetCheckHandler(svc, logger))
		r.Get("/budgets/{id}", getBudgetHandler(svc, logger))
		r.Put("/budgets/{id}", updateBudgetHandler(svc, logger))
		r.Delete("/budgets/{id}", deleteBudgetHandler(svc, logger))
		r.Get("/budgets/{id}/status", budgetStatusHandler(svc, logger))

		// Goals
		r.Get("/goals", listGoalsHandler(svc, logger))
		r.Post("/goals", createGoalHandler(svc, logger))
		r.Get("/goals/{id}", getGoalHandler(svc, logger))
		r.Put("/goals/{id}", updateGoalHandler(svc, logger))
		r.Delete("/goals/{id}", deleteGoalHandler(svc, logger))
		r.Patch("/goals/{id}/progress", goalProgressHandler(svc, logger))

		// Analytics
		r.Get("/analytics/summary", dashboardSummaryHandler(svc, logger))
		r.Get("/analytics/category-spending", categorySpendingHandler(svc, logger))
		r.Get("/analytics/trends", trendsHandler(svc, logger))
		r.Get("/analytics/savings-ratio", savingsRatioHandler(svc, logger))

		// Notifications
		r.Get("/notifications", listNotificationsHandler(store, logger))
		r.Patch("/notifications/{id}/read", markNotificationReadHandler(store, logger))

		// Engine counters snapshot
		r.Get("/metrics/alerts", alertMetricsHandler(metrics))
	})

	return r
}

// healthzHandler probes the store with a cheap read.
func healthzHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		start := time.Now()
		_, err := svc.ListCategories(ctx, "health-check")
		latency := time.Since(start).Milliseconds()

		status := "healthy"
		code := http.StatusOK
		if err != nil {
			logger.Warn("healthz: store probe failed", zap.Error(err))
			status = "degraded"
		}

		writeJSON(w, code, map[string]any{
			"status":           status,
			"store_latency_ms": latency,
			"checked_at":       time.Now().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func alertMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetAlertSnapshot())
	}
}
