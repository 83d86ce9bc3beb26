package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Budgets
// ============================================================

func (s *FinanceService) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListBudgets")
	defer span.End()

	return s.store.ListBudgets(ctx, userID)
}

func (s *FinanceService) GetBudget(ctx context.Context, userID, budgetID string) (*domain.Budget, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetBudget")
	defer span.End()

	return s.store.GetBudget(ctx, userID, budgetID)
}

func (s *FinanceService) CreateBudget(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateBudget")
	defer span.End()

	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if budget.CategoryID != "" {
		cat, err := s.lookupCategory(ctx, budget.CategoryID)
		if err != nil {
			return nil, err
		}
		if cat.Type != domain.TypeExpense {
			return nil, &domain.ErrValidation{Field: "category_id", Message: "budgets only track expense categories"}
		}
	}
	budget.NotifiedAt80 = false
	budget.NotifiedAt100 = false

	return s.store.CreateBudget(ctx, budget)
}

// UpdateBudget persists a definition change. Changing the amount or the
// anchor resets the threshold dedup flags so alerts can fire again for
// the reshaped instance.
func (s *FinanceService) UpdateBudget(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateBudget")
	defer span.End()

	existing, err := s.store.GetBudget(ctx, budget.UserID, budget.ID)
	if err != nil {
		return nil, err
	}
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if budget.CategoryID != "" && budget.CategoryID != existing.CategoryID {
		cat, err := s.lookupCategory(ctx, budget.CategoryID)
		if err != nil {
			return nil, err
		}
		if cat.Type != domain.TypeExpense {
			return nil, &domain.ErrValidation{Field: "category_id", Message: "budgets only track expense categories"}
		}
	}

	budget.NotifiedAt80 = existing.NotifiedAt80
	budget.NotifiedAt100 = existing.NotifiedAt100
	if budget.Amount != existing.Amount || !budget.StartDate.Equal(existing.StartDate) || budget.Period != existing.Period {
		budget.NotifiedAt80 = false
		budget.NotifiedAt100 = false
	}

	return s.store.UpdateBudget(ctx, budget)
}

func (s *FinanceService) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteBudget")
	defer span.End()

	return s.store.DeleteBudget(ctx, userID, budgetID)
}

// ============================================================
// Budget evaluation
// ============================================================

// EvaluateBudget computes the consumption of the budget's anchored
// period instance. PercentageUsed is clamped to 100 and rounded to two
// decimals; Remaining is never clamped and goes negative on overrun.
func (s *FinanceService) EvaluateBudget(ctx context.Context, budget *domain.Budget) (*domain.BudgetStatus, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.EvaluateBudget")
	defer span.End()

	if budget.Amount <= 0 {
		return nil, &domain.ErrDivisionInvariant{Entity: "budget", ID: budget.ID}
	}
	s.metrics.IncrBudgetEvaluation()

	rng := budget.InstanceRange(s.loc)
	f := domain.TransactionFilter{
		Type:       domain.TypeExpense,
		CategoryID: budget.CategoryID,
		From:       rng.Start,
		To:         rng.End,
	}
	spent, err := s.SumByFilter(ctx, budget.UserID, f)
	if err != nil {
		return nil, err
	}

	pct := spent / budget.Amount * 100
	if pct > 100 {
		pct = 100
	}

	return &domain.BudgetStatus{
		BudgetID:       budget.ID,
		Name:           budget.Name,
		Amount:         budget.Amount,
		TotalSpent:     round2(spent),
		PercentageUsed: round2(pct),
		Remaining:      round2(budget.Amount - spent),
	}, nil
}

// GetBudgetStatus evaluates one budget by ID.
func (s *FinanceService) GetBudgetStatus(ctx context.Context, userID, budgetID string) (*domain.BudgetStatus, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetBudgetStatus")
	defer span.End()

	budget, err := s.store.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}
	return s.EvaluateBudget(ctx, budget)
}

// ListBudgetsWithStatus evaluates every budget of the user. A budget
// that fails evaluation is skipped with a warning rather than sinking
// the whole listing.
func (s *FinanceService) ListBudgetsWithStatus(ctx context.Context, userID string) ([]domain.BudgetWithStatus, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListBudgetsWithStatus")
	defer span.End()

	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.BudgetWithStatus, 0, len(budgets))
	for i := range budgets {
		status, err := s.EvaluateBudget(ctx, &budgets[i])
		if err != nil {
			s.logger.Warn("budget evaluation failed",
				zap.String("budget_id", budgets[i].ID),
				zap.Error(err),
			)
			continue
		}
		out = append(out, domain.BudgetWithStatus{
			Budget:         budgets[i],
			TotalSpent:     status.TotalSpent,
			PercentageUsed: status.PercentageUsed,
			Remaining:      status.Remaining,
		})
	}
	return out, nil
}

// ============================================================
// Breach detection
// ============================================================

// CheckBudgetBreach evaluates one budget against the 80/100 thresholds.
// Each threshold fires at most once per instance: the dedup flags are
// persisted even when email dispatch is suppressed, so a later check
// never re-fires.
func (s *FinanceService) CheckBudgetBreach(ctx context.Context, budget *domain.Budget, now time.Time) (*domain.BreachResult, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CheckBudgetBreach")
	defer span.End()

	rng := budget.InstanceRange(s.loc)
	if now.Before(rng.Start) || now.After(rng.End) {
		return &domain.BreachResult{BudgetID: budget.ID}, nil
	}

	if budget.Amount <= 0 {
		return nil, &domain.ErrDivisionInvariant{Entity: "budget", ID: budget.ID}
	}
	s.metrics.IncrBudgetEvaluation()

	f := domain.TransactionFilter{
		Type:       domain.TypeExpense,
		CategoryID: budget.CategoryID,
		From:       rng.Start,
		To:         rng.End,
	}
	spent, err := s.SumByFilter(ctx, budget.UserID, f)
	if err != nil {
		return nil, err
	}

	// Thresholds compare against the raw percentage, pre-clamp.
	rawPct := spent / budget.Amount * 100
	prior := domain.NotificationState{
		NotifiedAt80:  budget.NotifiedAt80,
		NotifiedAt100: budget.NotifiedAt100,
	}
	decision := domain.EvaluateThresholds(prior, rawPct)

	result := &domain.BreachResult{
		BudgetID: budget.ID,
		Fire80:   decision.Fire80,
		Fire100:  decision.Fire100,
	}
	if !decision.Fire80 && !decision.Fire100 {
		return result, nil
	}

	if err := s.store.UpdateBudgetNotificationState(ctx, budget.ID, decision.State); err != nil {
		return nil, err
	}
	budget.NotifiedAt80 = decision.State.NotifiedAt80
	budget.NotifiedAt100 = decision.State.NotifiedAt100

	threshold := 80
	if decision.Fire100 {
		threshold = 100
	}
	s.metrics.IncrAlertFired(fmt.Sprintf("%d", threshold))
	s.dispatchBudgetAlert(ctx, budget, threshold, spent)

	return result, nil
}

// CheckUserBudgets runs a breach check across all of the user's budgets.
func (s *FinanceService) CheckUserBudgets(ctx context.Context, userID string, now time.Time) ([]domain.BreachResult, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CheckUserBudgets")
	defer span.End()

	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]domain.BreachResult, 0, len(budgets))
	for i := range budgets {
		res, err := s.CheckBudgetBreach(ctx, &budgets[i], now)
		if err != nil {
			s.logger.Warn("breach check failed",
				zap.String("budget_id", budgets[i].ID),
				zap.Error(err),
			)
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

// dispatchBudgetAlert records the in-app notification and, when both the
// budget and the user's preferences allow it, emails the alert. State
// was already persisted; dispatch failures only log.
func (s *FinanceService) dispatchBudgetAlert(ctx context.Context, budget *domain.Budget, threshold int, spent float64) {
	title := fmt.Sprintf("Budget %q reached %d%%", budget.Name, threshold)
	message := fmt.Sprintf("You have spent %.2f of your %.2f budget %q.", spent, budget.Amount, budget.Name)
	if err := s.store.InsertNotification(ctx, &domain.Notification{
		UserID:  budget.UserID,
		Type:    "budget_alert",
		Title:   title,
		Message: message,
	}); err != nil {
		s.logger.Warn("failed to insert budget alert notification",
			zap.String("budget_id", budget.ID),
			zap.Error(err),
		)
	}

	if !budget.NotificationsEnabled {
		return
	}

	user, err := s.store.GetUserProfile(ctx, budget.UserID)
	if err != nil {
		s.logger.Warn("failed to load user for budget alert",
			zap.String("user_id", budget.UserID),
			zap.Error(err),
		)
		return
	}
	if !user.Preferences.BudgetAlerts || user.Email == "" {
		return
	}

	if err := s.mailer.SendBudgetAlert(ctx, &domain.BudgetAlertRequest{
		UserID:       user.ID,
		Email:        user.Email,
		UserName:     user.Name,
		BudgetID:     budget.ID,
		BudgetName:   budget.Name,
		Threshold:    threshold,
		TotalSpent:   round2(spent),
		BudgetAmount: budget.Amount,
	}); err != nil {
		s.metrics.IncrExternalError("mailer")
		s.logger.Error("failed to send budget alert email",
			zap.String("budget_id", budget.ID),
			zap.Int("threshold", threshold),
			zap.Error(err),
		)
	}
}
