package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
	"github.com/rupeetrail/rupeetrail-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Transactions
// ============================================================

type transactionRequest struct {
	Type              string  `json:"type"`
	Amount            float64 `json:"amount"`
	CategoryID        string  `json:"category_id"`
	SourceDestination string  `json:"source_destination"`
	Date              string  `json:"date"`
	Notes             string  `json:"notes"`
}

func listTransactionsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()

		userID := UserIDFromContext(ctx)
		q := r.URL.Query()

		f := domain.TransactionFilter{
			Type:       q.Get("type"),
			CategoryID: q.Get("category_id"),
			Search:     q.Get("search"),
			SortBy:     q.Get("sort_by"),
			Order:      q.Get("order"),
		}
		if t, ok := parseDateParam(q.Get("start_date")); ok {
			f.From = t
		}
		if t, ok := parseDateParam(q.Get("end_date")); ok {
			f.To = t
		}
		if v := q.Get("min_amount"); v != "" {
			if amt, err := strconv.ParseFloat(v, 64); err == nil {
				f.MinAmount = amt
			}
		}
		if v := q.Get("max_amount"); v != "" {
			if amt, err := strconv.ParseFloat(v, 64); err == nil {
				f.MaxAmount = amt
			}
		}
		f.Page, f.PageSize = parsePagination(r)

		page, err := svc.ListTransactions(ctx, userID, f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func createTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()

		var body transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx := &domain.Transaction{
			UserID:            UserIDFromContext(ctx),
			Type:              body.Type,
			Amount:            body.Amount,
			CategoryID:        body.CategoryID,
			SourceDestination: body.SourceDestination,
			Notes:             body.Notes,
		}
		if t, ok := parseDateParam(body.Date); ok {
			tx.Date = t
		}

		created, err := svc.CreateTransaction(ctx, tx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func getTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/{id}")
		defer span.End()

		tx, err := svc.GetTransaction(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func updateTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/transactions/{id}")
		defer span.End()

		var body transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx := &domain.Transaction{
			ID:                chi.URLParam(r, "id"),
			UserID:            UserIDFromContext(ctx),
			Type:              body.Type,
			Amount:            body.Amount,
			CategoryID:        body.CategoryID,
			SourceDestination: body.SourceDestination,
			Notes:             body.Notes,
		}
		if t, ok := parseDateParam(body.Date); ok {
			tx.Date = t
		}

		updated, err := svc.UpdateTransaction(ctx, tx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transactions/{id}")
		defer span.End()

		if err := svc.DeleteTransaction(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "transaction removed"})
	}
}
