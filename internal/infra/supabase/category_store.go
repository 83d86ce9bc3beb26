package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"

	"github.com/google/uuid"
)

// ============================================================
// Categories - CRUD via PostgREST
// ============================================================

// ListCategories returns the user's own categories plus the shared
// predefined set (rows with no owner).
func (c *Client) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCategories")
	defer span.End()

	path := fmt.Sprintf("categories?or=(user_id.eq.%s,user_id.is.null)&order=name.asc", userID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/categories", Err: err}
	}

	if body == nil || string(body) == "[]" {
		return []domain.Category{}, nil
	}

	var rows []domain.Category
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return rows, nil
}

func (c *Client) GetCategory(ctx context.Context, categoryID string) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCategory")
	defer span.End()

	path := fmt.Sprintf("categories?id=eq.%s&limit=1", categoryID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.Category
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode category: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "category", ID: categoryID}
	}
	return &rows[0], nil
}

func (c *Client) CreateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCategory")
	defer span.End()

	row := map[string]any{
		"id":            uuid.NewString(),
		"user_id":       cat.UserID,
		"name":          cat.Name,
		"type":          cat.Type,
		"icon":          cat.Icon,
		"color":         cat.Color,
		"is_predefined": false,
	}

	body, err := c.doPost(ctx, "categories", row)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/categories", Err: err}
	}

	var results []domain.Category
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode category: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result from categories insert")
	}
	return &results[0], nil
}

// UpdateCategory patches a user-owned category. Predefined categories are
// excluded by the owner filter.
func (c *Client) UpdateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCategory")
	defer span.End()

	patch := map[string]any{
		"name":  cat.Name,
		"icon":  cat.Icon,
		"color": cat.Color,
	}

	path := fmt.Sprintf("categories?user_id=eq.%s&id=eq.%s&is_predefined=eq.false", cat.UserID, cat.ID)
	body, err := c.doPatch(ctx, path, patch)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/categories", Err: err}
	}

	var results []domain.Category
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode category: %w", err)
	}
	if len(results) == 0 {
		return nil, &domain.ErrNotFound{Resource: "category", ID: cat.ID}
	}
	return &results[0], nil
}

func (c *Client) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCategory")
	defer span.End()

	path := fmt.Sprintf("categories?user_id=eq.%s&id=eq.%s&is_predefined=eq.false", userID, categoryID)
	if err := c.doDelete(ctx, path); err != nil {
		if errors.Is(err, errNoRows) {
			return &domain.ErrNotFound{Resource: "category", ID: categoryID}
		}
		return &domain.ErrExternalService{Service: "supabase/categories", Err: err}
	}
	return nil
}
