package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
	"github.com/rupeetrail/rupeetrail-api-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// User profiles
// ============================================================

// userRow maps the user_profiles table. Preference columns are flat
// booleans, folded into domain.EmailPreferences.
type userRow struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	PrefDailyReport   bool   `json:"pref_daily_report"`
	PrefMonthlyReport bool   `json:"pref_monthly_report"`
	PrefBudgetAlerts  bool   `json:"pref_budget_alerts"`
}

func (r userRow) toDomain() domain.UserProfile {
	return domain.UserProfile{
		ID:    r.ID,
		Name:  r.Name,
		Email: r.Email,
		Preferences: domain.EmailPreferences{
			DailyReport:   r.PrefDailyReport,
			MonthlyReport: r.PrefMonthlyReport,
			BudgetAlerts:  r.PrefBudgetAlerts,
		},
	}
}

// GetUserProfile fetches a user profile. Runs under the circuit breaker
// with retries since the breach path depends on it.
func (c *Client) GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var profile *domain.UserProfile

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("user_profiles?id=eq.%s&limit=1", userID)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "user", ID: userID}
			}

			var rows []userRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("decode user profile: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "user", ID: userID}
			}

			p := rows[0].toDomain()
			profile = &p
			return nil
		})
	})

	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/users", Err: err}
	}

	return profile, nil
}

// ListUsersWithPreference returns users with the given preference column
// enabled. Used by the report scheduler to build its recipient list.
func (c *Client) ListUsersWithPreference(ctx context.Context, preference string) ([]domain.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListUsersWithPreference")
	defer span.End()

	var column string
	switch preference {
	case "daily_report":
		column = "pref_daily_report"
	case "monthly_report":
		column = "pref_monthly_report"
	case "budget_alerts":
		column = "pref_budget_alerts"
	default:
		return nil, &domain.ErrValidation{Field: "preference", Message: "unknown preference " + preference}
	}

	path := fmt.Sprintf("user_profiles?%s=eq.true&order=id.asc", column)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/users", Err: err}
	}

	if body == nil || string(body) == "[]" {
		return []domain.UserProfile{}, nil
	}

	var rows []userRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode user profiles: %w", err)
	}

	users := make([]domain.UserProfile, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toDomain())
	}
	return users, nil
}
