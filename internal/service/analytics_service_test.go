package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
)

func TestGetDashboardSummary(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	seedIncome(store, "user-1", "cat-salary", 5000, march.AddDate(0, 0, 1))
	seedExpense(store, "user-1", "cat-food", 1200.50, march.AddDate(0, 0, 5))
	seedExpense(store, "user-1", "cat-rent", 800, march.AddDate(0, 0, 6))

	rng := domain.DateRange{Start: march, End: march.AddDate(0, 1, 0)}
	summary, err := svc.GetDashboardSummary(context.Background(), "user-1", rng)
	if err != nil {
		t.Fatalf("GetDashboardSummary: %v", err)
	}
	if summary.TotalIncome != 5000 {
		t.Errorf("TotalIncome = %v, want 5000", summary.TotalIncome)
	}
	if summary.TotalExpense != 2000.50 {
		t.Errorf("TotalExpense = %v, want 2000.50", summary.TotalExpense)
	}
	if summary.CurrentBalance != 2999.50 {
		t.Errorf("CurrentBalance = %v, want 2999.50", summary.CurrentBalance)
	}
}

func TestGetSavingsRatio(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	seedIncome(store, "user-1", "cat-salary", 4000, march.AddDate(0, 0, 1))
	seedExpense(store, "user-1", "cat-food", 3000, march.AddDate(0, 0, 5))

	rng := domain.DateRange{Start: march, End: march.AddDate(0, 1, 0)}
	ratio, err := svc.GetSavingsRatio(context.Background(), "user-1", rng)
	if err != nil {
		t.Fatalf("GetSavingsRatio: %v", err)
	}
	if ratio.Savings != 1000 {
		t.Errorf("Savings = %v, want 1000", ratio.Savings)
	}
	if ratio.SavingsRatio != 25 {
		t.Errorf("SavingsRatio = %v, want 25", ratio.SavingsRatio)
	}
	if ratio.ExpenseRatio != 75 {
		t.Errorf("ExpenseRatio = %v, want 75", ratio.ExpenseRatio)
	}
}

func TestGetSavingsRatio_NoIncome(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	seedExpense(store, "user-1", "cat-food", 300, march.AddDate(0, 0, 5))

	rng := domain.DateRange{Start: march, End: march.AddDate(0, 1, 0)}
	ratio, err := svc.GetSavingsRatio(context.Background(), "user-1", rng)
	if err != nil {
		t.Fatalf("GetSavingsRatio: %v", err)
	}
	if ratio.SavingsRatio != 0 {
		t.Errorf("SavingsRatio = %v, want 0 with no income", ratio.SavingsRatio)
	}
	if ratio.ExpenseRatio != 100 {
		t.Errorf("ExpenseRatio = %v, want 100 when spending without income", ratio.ExpenseRatio)
	}
	if ratio.Savings != -300 {
		t.Errorf("Savings = %v, want -300", ratio.Savings)
	}
}

func TestGetSavingsRatio_NoActivity(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})

	rng := domain.DateRange{
		Start: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC),
	}
	ratio, err := svc.GetSavingsRatio(context.Background(), "user-1", rng)
	if err != nil {
		t.Fatalf("GetSavingsRatio: %v", err)
	}
	if ratio.SavingsRatio != 0 || ratio.ExpenseRatio != 0 {
		t.Errorf("ratios = %v/%v, want 0/0 for an empty period", ratio.SavingsRatio, ratio.ExpenseRatio)
	}
}

func TestGetTrends_Balance(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})

	seedIncome(store, "user-1", "cat-salary", 5000, time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC))
	seedExpense(store, "user-1", "cat-food", 1500, time.Date(2024, time.March, 1, 18, 0, 0, 0, time.UTC))
	seedExpense(store, "user-1", "cat-food", 700, time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC))

	rng := domain.DateRange{
		Start: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC),
	}
	points, err := svc.GetTrends(context.Background(), "user-1", "balance", domain.GranularityDaily, rng)
	if err != nil {
		t.Fatalf("GetTrends: %v", err)
	}
	want := []domain.TrendPoint{
		{Date: "2024-03-01", Amount: 3500},
		{Date: "2024-03-02", Amount: -700},
	}
	if len(points) != len(want) {
		t.Fatalf("len(points) = %d, want %d", len(points), len(want))
	}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("points[%d] = %+v, want %+v", i, points[i], want[i])
		}
	}
}

func TestGetTrends_UnknownKind(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})

	rng := domain.DateRange{
		Start: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
	}
	if _, err := svc.GetTrends(context.Background(), "user-1", "velocity", domain.GranularityDaily, rng); err == nil {
		t.Fatal("unknown trend kind accepted")
	}
}
