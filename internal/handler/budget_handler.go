package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
	"github.com/rupeetrail/rupeetrail-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Budgets
// ============================================================

type budgetRequest struct {
	Name                 string  `json:"name"`
	CategoryID           string  `json:"category_id"`
	Amount               float64 `json:"amount"`
	Period               string  `json:"period"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
}

func (b budgetRequest) toDomain(userID, budgetID string) *domain.Budget {
	budget := &domain.Budget{
		ID:                   budgetID,
		UserID:               userID,
		Name:                 b.Name,
		CategoryID:           b.CategoryID,
		Amount:               b.Amount,
		Period:               b.Period,
		NotificationsEnabled: true,
	}
	if b.NotificationsEnabled != nil {
		budget.NotificationsEnabled = *b.NotificationsEnabled
	}
	if t, ok := parseDateParam(b.StartDate); ok {
		budget.StartDate = t
	}
	if t, ok := parseDateParam(b.EndDate); ok {
		budget.EndDate = &t
	}
	return budget
}

func listBudgetsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/budgets")
		defer span.End()

		userID := UserIDFromContext(ctx)

		// ?with_status=true folds the evaluated consumption into each row.
		if r.URL.Query().Get("with_status") == "true" {
			budgets, err := svc.ListBudgetsWithStatus(ctx, userID)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			writeJSON(w, http.StatusOK, budgets)
			return
		}

		budgets, err := svc.ListBudgets(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, budgets)
	}
}

func createBudgetHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/budgets")
		defer span.End()

		var body budgetRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.StartDate == "" {
			body.StartDate = time.Now().Format("2006-01-02")
		}

		created, err := svc.CreateBudget(ctx, body.toDomain(UserIDFromContext(ctx), ""))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func getBudgetHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/budgets/{id}")
		defer span.End()

		budget, err := svc.GetBudget(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, budget)
	}
}

func updateBudgetHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/budgets/{id}")
		defer span.End()

		var body budgetRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		updated, err := svc.UpdateBudget(ctx, body.toDomain(UserIDFromContext(ctx), chi.URLParam(r, "id")))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteBudgetHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/budgets/{id}")
		defer span.End()

		if err := svc.DeleteBudget(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "budget removed"})
	}
}

func budgetStatusHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/budgets/{id}/status")
		defer span.End()

		status, err := svc.GetBudgetStatus(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// budgetCheckHandler triggers an on-demand breach check across the
// user's budgets and reports which alerts fired.
func budgetCheckHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/budgets/check")
		defer span.End()

		results, err := svc.CheckUserBudgets(ctx, UserIDFromContext(ctx), time.Now())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}
