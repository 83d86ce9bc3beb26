package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
)

// ============================================================
// Email reports
// ============================================================

// BuildDailyReport summarises the user's expenses for the calendar day
// containing day, interpreted in the reporting timezone.
func (s *FinanceService) BuildDailyReport(ctx context.Context, userID string, day time.Time) (*domain.DailyReport, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.BuildDailyReport")
	defer span.End()

	local := day.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	rng := domain.DateRange{Start: start, End: end}

	byCategory, err := s.BreakdownByCategory(ctx, userID, domain.TypeExpense, rng, 0)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, c := range byCategory {
		total += c.TotalSpent
	}

	return &domain.DailyReport{
		Date:               start.Format("2006-01-02"),
		TotalSpent:         round2(total),
		ExpensesByCategory: byCategory,
	}, nil
}

// BuildMonthlyReport summarises the full calendar month containing the
// given anchor, with the top five spending categories and suggestions.
func (s *FinanceService) BuildMonthlyReport(ctx context.Context, userID string, anchor time.Time) (*domain.MonthlyReport, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.BuildMonthlyReport")
	defer span.End()

	local := anchor.In(s.loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	rng := domain.DateRange{Start: start, End: end}

	income, err := s.SumByFilter(ctx, userID, domain.TransactionFilter{
		Type: domain.TypeIncome,
		From: rng.Start,
		To:   rng.End,
	})
	if err != nil {
		return nil, err
	}
	expense, err := s.SumByFilter(ctx, userID, domain.TransactionFilter{
		Type: domain.TypeExpense,
		From: rng.Start,
		To:   rng.End,
	})
	if err != nil {
		return nil, err
	}

	topCategories, err := s.BreakdownByCategory(ctx, userID, domain.TypeExpense, rng, 5)
	if err != nil {
		return nil, err
	}

	netSavings := income - expense

	return &domain.MonthlyReport{
		MonthName:             start.Format("January"),
		Year:                  start.Format("2006"),
		TotalIncome:           round2(income),
		TotalExpense:          round2(expense),
		NetSavings:            round2(netSavings),
		TopSpendingCategories: topCategories,
		Suggestions:           buildSuggestions(income, expense, netSavings, topCategories),
	}, nil
}

func buildSuggestions(totalIncome, totalExpense, netSavings float64, topCategories []domain.CategorySpend) []string {
	suggestions := []string{}
	if totalExpense > totalIncome {
		suggestions = append(suggestions, "You spent more than you earned last month. Try to identify areas to cut back.")
	}
	if len(topCategories) > 0 && topCategories[0].TotalSpent > totalExpense*0.3 {
		suggestions = append(suggestions, fmt.Sprintf("Your spending on %q was significant. See if there are ways to optimize it.", topCategories[0].CategoryName))
	}
	if netSavings > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Great job saving ₹%.2f! Consider allocating some of it towards your financial goals.", netSavings))
	}
	return suggestions
}
