package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
	"github.com/rupeetrail/rupeetrail-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Goals
// ============================================================

type goalRequest struct {
	Name          string  `json:"name"`
	TargetAmount  float64 `json:"target_amount"`
	CurrentAmount float64 `json:"current_amount"`
	Deadline      string  `json:"deadline"`
	Description   string  `json:"description"`
}

func listGoalsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/goals")
		defer span.End()

		var achieved *bool
		switch r.URL.Query().Get("achieved") {
		case "true":
			v := true
			achieved = &v
		case "false":
			v := false
			achieved = &v
		}

		goals, err := svc.ListGoals(ctx, UserIDFromContext(ctx), achieved)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, goals)
	}
}

func createGoalHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/goals")
		defer span.End()

		var body goalRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		goal := &domain.Goal{
			UserID:        UserIDFromContext(ctx),
			Name:          body.Name,
			TargetAmount:  body.TargetAmount,
			CurrentAmount: body.CurrentAmount,
			Description:   body.Description,
		}
		if t, ok := parseDateParam(body.Deadline); ok {
			goal.Deadline = &t
		}

		created, err := svc.CreateGoal(ctx, goal)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func getGoalHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/goals/{id}")
		defer span.End()

		goal, err := svc.GetGoal(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, goal)
	}
}

func updateGoalHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/goals/{id}")
		defer span.End()

		var body goalRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		goal := &domain.Goal{
			ID:            chi.URLParam(r, "id"),
			UserID:        UserIDFromContext(ctx),
			Name:          body.Name,
			TargetAmount:  body.TargetAmount,
			CurrentAmount: body.CurrentAmount,
			Description:   body.Description,
		}
		if t, ok := parseDateParam(body.Deadline); ok {
			goal.Deadline = &t
		}

		result, err := svc.UpdateGoal(ctx, goal)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func deleteGoalHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/goals/{id}")
		defer span.End()

		if err := svc.DeleteGoal(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "goal removed"})
	}
}

// goalProgressHandler sets the goal's current amount and reports whether
// this update achieved it.
func goalProgressHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/goals/{id}/progress")
		defer span.End()

		var body struct {
			CurrentAmount float64 `json:"current_amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := svc.RecordGoalContribution(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"), body.CurrentAmount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
