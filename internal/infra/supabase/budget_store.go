package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"

	"github.com/google/uuid"
)

// ============================================================
// Budgets - CRUD via PostgREST
// ============================================================

// budgetRow maps the budgets table columns.
type budgetRow struct {
	ID                   string  `json:"id"`
	UserID               string  `json:"user_id"`
	Name                 string  `json:"name"`
	CategoryID           string  `json:"category_id"`
	Amount               float64 `json:"amount"`
	Period               string  `json:"period"`
	StartDate            string  `json:"start_date"`
	EndDate              *string `json:"end_date"`
	NotificationsEnabled bool    `json:"notifications_enabled"`
	NotifiedAt80         bool    `json:"notified_at_80"`
	NotifiedAt100        bool    `json:"notified_at_100"`
	CreatedAt            string  `json:"created_at"`
}

func (r budgetRow) toDomain() domain.Budget {
	b := domain.Budget{
		ID:                   r.ID,
		UserID:               r.UserID,
		Name:                 r.Name,
		CategoryID:           r.CategoryID,
		Amount:               r.Amount,
		Period:               r.Period,
		StartDate:            parseTimestamp(r.StartDate),
		NotificationsEnabled: r.NotificationsEnabled,
		NotifiedAt80:         r.NotifiedAt80,
		NotifiedAt100:        r.NotifiedAt100,
		CreatedAt:            parseTimestamp(r.CreatedAt),
	}
	if r.EndDate != nil && *r.EndDate != "" {
		end := parseTimestamp(*r.EndDate)
		b.EndDate = &end
	}
	return b
}

func (c *Client) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBudgets")
	defer span.End()

	path := fmt.Sprintf("budgets?user_id=eq.%s&order=created_at.desc", userID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/budgets", Err: err}
	}

	if body == nil || string(body) == "[]" {
		return []domain.Budget{}, nil
	}

	var rows []budgetRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode budgets: %w", err)
	}

	budgets := make([]domain.Budget, 0, len(rows))
	for _, r := range rows {
		budgets = append(budgets, r.toDomain())
	}
	return budgets, nil
}

func (c *Client) GetBudget(ctx context.Context, userID, budgetID string) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBudget")
	defer span.End()

	path := fmt.Sprintf("budgets?user_id=eq.%s&id=eq.%s&limit=1", userID, budgetID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []budgetRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode budget: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "budget", ID: budgetID}
	}
	b := rows[0].toDomain()
	return &b, nil
}

func (c *Client) CreateBudget(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateBudget")
	defer span.End()

	row := map[string]any{
		"id":                    uuid.NewString(),
		"user_id":               budget.UserID,
		"name":                  budget.Name,
		"category_id":           budget.CategoryID,
		"amount":                budget.Amount,
		"period":                budget.Period,
		"start_date":            budget.StartDate.UTC().Format(time.RFC3339),
		"notifications_enabled": budget.NotificationsEnabled,
		"notified_at_80":        false,
		"notified_at_100":       false,
		"created_at":            time.Now().UTC().Format(time.RFC3339),
	}
	if budget.EndDate != nil {
		row["end_date"] = budget.EndDate.UTC().Format(time.RFC3339)
	}

	body, err := c.doPost(ctx, "budgets", row)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/budgets", Err: err}
	}

	var results []budgetRow
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode budget: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result from budgets insert")
	}
	b := results[0].toDomain()
	return &b, nil
}

func (c *Client) UpdateBudget(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateBudget")
	defer span.End()

	patch := map[string]any{
		"name":                  budget.Name,
		"category_id":           budget.CategoryID,
		"amount":                budget.Amount,
		"period":                budget.Period,
		"start_date":            budget.StartDate.UTC().Format(time.RFC3339),
		"notifications_enabled": budget.NotificationsEnabled,
		"notified_at_80":        budget.NotifiedAt80,
		"notified_at_100":       budget.NotifiedAt100,
	}
	if budget.EndDate != nil {
		patch["end_date"] = budget.EndDate.UTC().Format(time.RFC3339)
	} else {
		patch["end_date"] = nil
	}

	path := fmt.Sprintf("budgets?user_id=eq.%s&id=eq.%s", budget.UserID, budget.ID)
	body, err := c.doPatch(ctx, path, patch)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/budgets", Err: err}
	}

	var results []budgetRow
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode budget: %w", err)
	}
	if len(results) == 0 {
		return nil, &domain.ErrNotFound{Resource: "budget", ID: budget.ID}
	}
	b := results[0].toDomain()
	return &b, nil
}

// UpdateBudgetNotificationState persists only the threshold dedup flags,
// leaving the rest of the row untouched.
func (c *Client) UpdateBudgetNotificationState(ctx context.Context, budgetID string, state domain.NotificationState) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateBudgetNotificationState")
	defer span.End()

	_, err := c.doPatch(ctx, fmt.Sprintf("budgets?id=eq.%s", budgetID), map[string]any{
		"notified_at_80":  state.NotifiedAt80,
		"notified_at_100": state.NotifiedAt100,
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/budgets", Err: err}
	}
	return nil
}

func (c *Client) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteBudget")
	defer span.End()

	path := fmt.Sprintf("budgets?user_id=eq.%s&id=eq.%s", userID, budgetID)
	if err := c.doDelete(ctx, path); err != nil {
		if errors.Is(err, errNoRows) {
			return &domain.ErrNotFound{Resource: "budget", ID: budgetID}
		}
		return &domain.ErrExternalService{Service: "supabase/budgets", Err: err}
	}
	return nil
}
