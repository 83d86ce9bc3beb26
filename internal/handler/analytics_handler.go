package handler

import (
	"net/http"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
	"github.com/rupeetrail/rupeetrail-api-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Analytics
// ============================================================

func dashboardSummaryHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analytics/summary")
		defer span.End()

		rng, err := periodFromQuery(r, svc.ResolvePeriod)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		summary, err := svc.GetDashboardSummary(ctx, UserIDFromContext(ctx), rng)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func categorySpendingHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analytics/category-spending")
		defer span.End()

		rng, err := periodFromQuery(r, svc.ResolvePeriod)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		breakdown, err := svc.GetCategorySpending(ctx, UserIDFromContext(ctx), rng)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, breakdown)
	}
}

func trendsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analytics/trends")
		defer span.End()

		rng, err := periodFromQuery(r, svc.ResolvePeriod)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		kind := r.URL.Query().Get("type")
		if kind == "" {
			kind = domain.TypeExpense
		}
		granularity := r.URL.Query().Get("granularity")
		if granularity == "" {
			granularity = domain.GranularityDaily
		}

		points, err := svc.GetTrends(ctx, UserIDFromContext(ctx), kind, granularity, rng)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, points)
	}
}

func savingsRatioHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analytics/savings-ratio")
		defer span.End()

		rng, err := periodFromQuery(r, svc.ResolvePeriod)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		ratio, err := svc.GetSavingsRatio(ctx, UserIDFromContext(ctx), rng)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, ratio)
	}
}
