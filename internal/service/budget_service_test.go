package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
)

func seedBudget(store *mockStore, b domain.Budget) string {
	id := store.genID()
	b.ID = id
	store.budgets[id] = &b
	return id
}

func TestEvaluateBudget(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})
	seedCategory(store, "cat-food", "Food", domain.TypeExpense)

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	seedExpense(store, "user-1", "cat-food", 300, march.AddDate(0, 0, 4))
	seedExpense(store, "user-1", "cat-food", 250, march.AddDate(0, 0, 10))
	// Outside the instance range, must not count.
	seedExpense(store, "user-1", "cat-food", 999, march.AddDate(0, -1, 0))
	// Another user's expense, must not count.
	seedExpense(store, "user-2", "cat-food", 400, march.AddDate(0, 0, 5))

	id := seedBudget(store, domain.Budget{
		UserID:     "user-1",
		Name:       "Groceries",
		CategoryID: "cat-food",
		Amount:     1000,
		Period:     domain.BudgetMonthly,
		StartDate:  march,
	})

	status, err := svc.GetBudgetStatus(context.Background(), "user-1", id)
	if err != nil {
		t.Fatalf("GetBudgetStatus: %v", err)
	}
	if status.TotalSpent != 550 {
		t.Errorf("TotalSpent = %v, want 550", status.TotalSpent)
	}
	if status.PercentageUsed != 55 {
		t.Errorf("PercentageUsed = %v, want 55", status.PercentageUsed)
	}
	if status.Remaining != 450 {
		t.Errorf("Remaining = %v, want 450", status.Remaining)
	}
}

func TestEvaluateBudget_OverrunClampsPercentageNotRemaining(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})
	seedCategory(store, "cat-food", "Food", domain.TypeExpense)

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	seedExpense(store, "user-1", "cat-food", 1200, march.AddDate(0, 0, 3))

	id := seedBudget(store, domain.Budget{
		UserID:     "user-1",
		Name:       "Groceries",
		CategoryID: "cat-food",
		Amount:     1000,
		Period:     domain.BudgetMonthly,
		StartDate:  march,
	})

	status, err := svc.GetBudgetStatus(context.Background(), "user-1", id)
	if err != nil {
		t.Fatalf("GetBudgetStatus: %v", err)
	}
	if status.PercentageUsed != 100 {
		t.Errorf("PercentageUsed = %v, want clamp at 100", status.PercentageUsed)
	}
	if status.Remaining != -200 {
		t.Errorf("Remaining = %v, want -200", status.Remaining)
	}
}

func TestEvaluateBudget_NonPositiveAmount(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})

	id := seedBudget(store, domain.Budget{
		UserID:    "user-1",
		Name:      "Broken",
		Amount:    0,
		Period:    domain.BudgetMonthly,
		StartDate: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	})

	_, err := svc.GetBudgetStatus(context.Background(), "user-1", id)
	var divErr *domain.ErrDivisionInvariant
	if !errors.As(err, &divErr) {
		t.Fatalf("err = %v, want ErrDivisionInvariant", err)
	}
}

func TestEvaluateBudget_GlobalBudgetSpansCategories(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})
	seedCategory(store, "cat-food", "Food", domain.TypeExpense)
	seedCategory(store, "cat-rent", "Rent", domain.TypeExpense)
	seedCategory(store, "cat-salary", "Salary", domain.TypeIncome)

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	seedExpense(store, "user-1", "cat-food", 200, march.AddDate(0, 0, 2))
	seedExpense(store, "user-1", "cat-rent", 300, march.AddDate(0, 0, 6))
	seedIncome(store, "user-1", "cat-salary", 5000, march.AddDate(0, 0, 1))

	id := seedBudget(store, domain.Budget{
		UserID:    "user-1",
		Name:      "Everything",
		Amount:    1000,
		Period:    domain.BudgetMonthly,
		StartDate: march,
	})

	status, err := svc.GetBudgetStatus(context.Background(), "user-1", id)
	if err != nil {
		t.Fatalf("GetBudgetStatus: %v", err)
	}
	if status.TotalSpent != 500 {
		t.Errorf("TotalSpent = %v, want 500 (income excluded)", status.TotalSpent)
	}
}

func TestCheckUserBudgets_ThresholdsFireOnce(t *testing.T) {
	store := newMockStore()
	mailer := &mockMailer{}
	svc := newTestService(store, mailer)
	seedCategory(store, "cat-food", "Food", domain.TypeExpense)
	seedUser(store, "user-1", "u1@example.com", domain.EmailPreferences{BudgetAlerts: true})

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	now := march.AddDate(0, 0, 14)
	seedBudget(store, domain.Budget{
		UserID:               "user-1",
		Name:                 "Groceries",
		CategoryID:           "cat-food",
		Amount:               1000,
		Period:               domain.BudgetMonthly,
		StartDate:            march,
		NotificationsEnabled: true,
	})

	ctx := context.Background()

	// 55% spent: nothing fires.
	seedExpense(store, "user-1", "cat-food", 550, march.AddDate(0, 0, 4))
	results, err := svc.CheckUserBudgets(ctx, "user-1", now)
	if err != nil {
		t.Fatalf("CheckUserBudgets: %v", err)
	}
	if results[0].Fire80 || results[0].Fire100 {
		t.Fatalf("unexpected fire at 55%%: %+v", results[0])
	}

	// 85% spent: the 80 alert fires exactly once.
	seedExpense(store, "user-1", "cat-food", 300, march.AddDate(0, 0, 8))
	results, _ = svc.CheckUserBudgets(ctx, "user-1", now)
	if !results[0].Fire80 || results[0].Fire100 {
		t.Fatalf("want Fire80 only at 85%%, got %+v", results[0])
	}
	results, _ = svc.CheckUserBudgets(ctx, "user-1", now)
	if results[0].Fire80 || results[0].Fire100 {
		t.Fatalf("80 alert re-fired on a repeat check: %+v", results[0])
	}

	// 105% spent: the 100 alert fires exactly once.
	seedExpense(store, "user-1", "cat-food", 200, march.AddDate(0, 0, 12))
	results, _ = svc.CheckUserBudgets(ctx, "user-1", now)
	if results[0].Fire80 || !results[0].Fire100 {
		t.Fatalf("want Fire100 only at 105%%, got %+v", results[0])
	}
	results, _ = svc.CheckUserBudgets(ctx, "user-1", now)
	if results[0].Fire80 || results[0].Fire100 {
		t.Fatalf("100 alert re-fired on a repeat check: %+v", results[0])
	}

	if got := len(mailer.budgetAlerts); got != 2 {
		t.Fatalf("mailer received %d alerts, want 2", got)
	}
	if mailer.budgetAlerts[0].Threshold != 80 || mailer.budgetAlerts[1].Threshold != 100 {
		t.Errorf("thresholds = %d, %d; want 80, 100",
			mailer.budgetAlerts[0].Threshold, mailer.budgetAlerts[1].Threshold)
	}
	if got := len(store.notifications); got != 2 {
		t.Errorf("in-app notifications = %d, want 2", got)
	}
}

func TestCheckUserBudgets_SuppressedDispatchStillPersistsState(t *testing.T) {
	store := newMockStore()
	mailer := &mockMailer{}
	svc := newTestService(store, mailer)
	seedCategory(store, "cat-food", "Food", domain.TypeExpense)
	seedUser(store, "user-1", "u1@example.com", domain.EmailPreferences{BudgetAlerts: true})

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	now := march.AddDate(0, 0, 14)
	id := seedBudget(store, domain.Budget{
		UserID:               "user-1",
		Name:                 "Quiet",
		CategoryID:           "cat-food",
		Amount:               1000,
		Period:               domain.BudgetMonthly,
		StartDate:            march,
		NotificationsEnabled: false,
	})
	seedExpense(store, "user-1", "cat-food", 850, march.AddDate(0, 0, 4))

	results, err := svc.CheckUserBudgets(context.Background(), "user-1", now)
	if err != nil {
		t.Fatalf("CheckUserBudgets: %v", err)
	}
	if !results[0].Fire80 {
		t.Fatalf("want Fire80, got %+v", results[0])
	}
	if len(mailer.budgetAlerts) != 0 {
		t.Errorf("email sent despite notifications disabled")
	}
	if !store.budgets[id].NotifiedAt80 {
		t.Errorf("dedup flag not persisted when dispatch suppressed")
	}
	// The in-app notification is still recorded.
	if len(store.notifications) != 1 {
		t.Errorf("in-app notifications = %d, want 1", len(store.notifications))
	}

	// A later check must not re-fire.
	results, _ = svc.CheckUserBudgets(context.Background(), "user-1", now)
	if results[0].Fire80 {
		t.Errorf("80 alert re-fired after suppressed dispatch")
	}
}

func TestCheckUserBudgets_OutsideInstanceRange(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})
	seedCategory(store, "cat-food", "Food", domain.TypeExpense)

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	seedBudget(store, domain.Budget{
		UserID:               "user-1",
		Name:                 "Groceries",
		CategoryID:           "cat-food",
		Amount:               1000,
		Period:               domain.BudgetMonthly,
		StartDate:            march,
		NotificationsEnabled: true,
	})
	seedExpense(store, "user-1", "cat-food", 950, march.AddDate(0, 0, 4))

	// Check runs in April, after the March instance closed.
	results, err := svc.CheckUserBudgets(context.Background(), "user-1", march.AddDate(0, 1, 5))
	if err != nil {
		t.Fatalf("CheckUserBudgets: %v", err)
	}
	if results[0].Fire80 || results[0].Fire100 {
		t.Errorf("alert fired outside the budget instance: %+v", results[0])
	}
	if len(store.stateUpdates) != 0 {
		t.Errorf("state persisted outside the budget instance")
	}
}

func TestUpdateBudget_DedupFlagReset(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})
	seedCategory(store, "cat-food", "Food", domain.TypeExpense)

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	id := seedBudget(store, domain.Budget{
		UserID:       "user-1",
		Name:         "Groceries",
		CategoryID:   "cat-food",
		Amount:       1000,
		Period:       domain.BudgetMonthly,
		StartDate:    march,
		NotifiedAt80: true,
	})

	// Renaming alone keeps the dedup flags.
	renamed := domain.Budget{
		ID: id, UserID: "user-1", Name: "Food & Dining", CategoryID: "cat-food",
		Amount: 1000, Period: domain.BudgetMonthly, StartDate: march,
	}
	updated, err := svc.UpdateBudget(context.Background(), &renamed)
	if err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}
	if !updated.NotifiedAt80 {
		t.Errorf("rename reset the dedup flags")
	}

	// Raising the amount reshapes the instance and resets the flags.
	raised := domain.Budget{
		ID: id, UserID: "user-1", Name: "Food & Dining", CategoryID: "cat-food",
		Amount: 1500, Period: domain.BudgetMonthly, StartDate: march,
	}
	updated, err = svc.UpdateBudget(context.Background(), &raised)
	if err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}
	if updated.NotifiedAt80 {
		t.Errorf("amount change did not reset the dedup flags")
	}
}

func TestEvaluateBudget_RepeatedEvaluationIsStable(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})
	seedCategory(store, "cat-food", "Food", domain.TypeExpense)

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	seedExpense(store, "user-1", "cat-food", 333.33, march.AddDate(0, 0, 3))
	seedExpense(store, "user-1", "cat-food", 120.50, march.AddDate(0, 0, 9))

	id := seedBudget(store, domain.Budget{
		UserID:     "user-1",
		Name:       "Groceries",
		CategoryID: "cat-food",
		Amount:     1000,
		Period:     domain.BudgetMonthly,
		StartDate:  march,
	})

	ctx := context.Background()
	first, err := svc.GetBudgetStatus(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("GetBudgetStatus: %v", err)
	}
	second, err := svc.GetBudgetStatus(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("GetBudgetStatus (repeat): %v", err)
	}
	if *first != *second {
		t.Errorf("repeated evaluation diverged:\nfirst  = %+v\nsecond = %+v", *first, *second)
	}
}

func TestEvaluateBudget_AddedExpenseNeverLowersUsage(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})
	seedCategory(store, "cat-food", "Food", domain.TypeExpense)

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	id := seedBudget(store, domain.Budget{
		UserID:     "user-1",
		Name:       "Groceries",
		CategoryID: "cat-food",
		Amount:     1000,
		Period:     domain.BudgetMonthly,
		StartDate:  march,
	})

	ctx := context.Background()
	prev, err := svc.GetBudgetStatus(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("GetBudgetStatus: %v", err)
	}
	for i, amount := range []float64{150, 400, 275.25, 300, 500} {
		seedExpense(store, "user-1", "cat-food", amount, march.AddDate(0, 0, i+1))
		cur, err := svc.GetBudgetStatus(ctx, "user-1", id)
		if err != nil {
			t.Fatalf("GetBudgetStatus after expense %d: %v", i+1, err)
		}
		if cur.TotalSpent <= prev.TotalSpent {
			t.Errorf("TotalSpent did not rise after expense %d: %v -> %v", i+1, prev.TotalSpent, cur.TotalSpent)
		}
		if cur.PercentageUsed < prev.PercentageUsed {
			t.Errorf("PercentageUsed fell after expense %d: %v -> %v", i+1, prev.PercentageUsed, cur.PercentageUsed)
		}
		if cur.Remaining >= prev.Remaining {
			t.Errorf("Remaining did not fall after expense %d: %v -> %v", i+1, prev.Remaining, cur.Remaining)
		}
		if cur.PercentageUsed > 100 {
			t.Errorf("PercentageUsed exceeded the clamp after expense %d: %v", i+1, cur.PercentageUsed)
		}
		prev = cur
	}
	// The last two expenses push past the limit: usage stays pinned at 100.
	if prev.PercentageUsed != 100 {
		t.Errorf("PercentageUsed = %v past overrun, want 100", prev.PercentageUsed)
	}
}

func TestCreateBudget_RejectsIncomeCategory(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})
	seedCategory(store, "cat-salary", "Salary", domain.TypeIncome)

	_, err := svc.CreateBudget(context.Background(), &domain.Budget{
		UserID:     "user-1",
		Name:       "Wrong",
		CategoryID: "cat-salary",
		Amount:     1000,
		Period:     domain.BudgetMonthly,
		StartDate:  time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	var vErr *domain.ErrValidation
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestUpdateBudget_RejectsIncomeCategory(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})
	seedCategory(store, "cat-food", "Food", domain.TypeExpense)
	seedCategory(store, "cat-salary", "Salary", domain.TypeIncome)

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	id := seedBudget(store, domain.Budget{
		UserID:     "user-1",
		Name:       "Groceries",
		CategoryID: "cat-food",
		Amount:     1000,
		Period:     domain.BudgetMonthly,
		StartDate:  march,
	})

	repointed := domain.Budget{
		ID: id, UserID: "user-1", Name: "Groceries", CategoryID: "cat-salary",
		Amount: 1000, Period: domain.BudgetMonthly, StartDate: march,
	}
	_, err := svc.UpdateBudget(context.Background(), &repointed)
	var vErr *domain.ErrValidation
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if store.budgets[id].CategoryID != "cat-food" {
		t.Errorf("rejected update still changed the stored category")
	}
}
