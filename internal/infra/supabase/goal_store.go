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
// Goals - CRUD via PostgREST
// ============================================================

// goalRow maps the goals table columns.
type goalRow struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	Name          string  `json:"name"`
	TargetAmount  float64 `json:"target_amount"`
	CurrentAmount float64 `json:"current_amount"`
	Deadline      *string `json:"deadline"`
	Description   string  `json:"description"`
	IsAchieved    bool    `json:"is_achieved"`
	CreatedAt     string  `json:"created_at"`
}

func (r goalRow) toDomain() domain.Goal {
	g := domain.Goal{
		ID:            r.ID,
		UserID:        r.UserID,
		Name:          r.Name,
		TargetAmount:  r.TargetAmount,
		CurrentAmount: r.CurrentAmount,
		Description:   r.Description,
		IsAchieved:    r.IsAchieved,
		CreatedAt:     parseTimestamp(r.CreatedAt),
	}
	if r.Deadline != nil && *r.Deadline != "" {
		d := parseTimestamp(*r.Deadline)
		g.Deadline = &d
	}
	return g
}

// ListGoals returns the user's goals, optionally filtered by achievement
// state (nil means all).
func (c *Client) ListGoals(ctx context.Context, userID string, achieved *bool) ([]domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListGoals")
	defer span.End()

	path := fmt.Sprintf("goals?user_id=eq.%s&order=created_at.desc", userID)
	if achieved != nil {
		path += fmt.Sprintf("&is_achieved=eq.%t", *achieved)
	}

	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/goals", Err: err}
	}

	if body == nil || string(body) == "[]" {
		return []domain.Goal{}, nil
	}

	var rows []goalRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode goals: %w", err)
	}

	goals := make([]domain.Goal, 0, len(rows))
	for _, r := range rows {
		goals = append(goals, r.toDomain())
	}
	return goals, nil
}

func (c *Client) GetGoal(ctx context.Context, userID, goalID string) (*domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetGoal")
	defer span.End()

	path := fmt.Sprintf("goals?user_id=eq.%s&id=eq.%s&limit=1", userID, goalID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []goalRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode goal: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "goal", ID: goalID}
	}
	g := rows[0].toDomain()
	return &g, nil
}

func (c *Client) CreateGoal(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateGoal")
	defer span.End()

	row := map[string]any{
		"id":             uuid.NewString(),
		"user_id":        goal.UserID,
		"name":           goal.Name,
		"target_amount":  goal.TargetAmount,
		"current_amount": goal.CurrentAmount,
		"description":    goal.Description,
		"is_achieved":    goal.IsAchieved,
		"created_at":     time.Now().UTC().Format(time.RFC3339),
	}
	if goal.Deadline != nil {
		row["deadline"] = goal.Deadline.UTC().Format(time.RFC3339)
	}

	body, err := c.doPost(ctx, "goals", row)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/goals", Err: err}
	}

	var results []goalRow
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode goal: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result from goals insert")
	}
	g := results[0].toDomain()
	return &g, nil
}

func (c *Client) UpdateGoal(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateGoal")
	defer span.End()

	patch := map[string]any{
		"name":           goal.Name,
		"target_amount":  goal.TargetAmount,
		"current_amount": goal.CurrentAmount,
		"description":    goal.Description,
		"is_achieved":    goal.IsAchieved,
	}
	if goal.Deadline != nil {
		patch["deadline"] = goal.Deadline.UTC().Format(time.RFC3339)
	} else {
		patch["deadline"] = nil
	}

	path := fmt.Sprintf("goals?user_id=eq.%s&id=eq.%s", goal.UserID, goal.ID)
	body, err := c.doPatch(ctx, path, patch)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/goals", Err: err}
	}

	var results []goalRow
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode goal: %w", err)
	}
	if len(results) == 0 {
		return nil, &domain.ErrNotFound{Resource: "goal", ID: goal.ID}
	}
	g := results[0].toDomain()
	return &g, nil
}

func (c *Client) DeleteGoal(ctx context.Context, userID, goalID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteGoal")
	defer span.End()

	path := fmt.Sprintf("goals?user_id=eq.%s&id=eq.%s", userID, goalID)
	if err := c.doDelete(ctx, path); err != nil {
		if errors.Is(err, errNoRows) {
			return &domain.ErrNotFound{Resource: "goal", ID: goalID}
		}
		return &domain.ErrExternalService{Service: "supabase/goals", Err: err}
	}
	return nil
}
