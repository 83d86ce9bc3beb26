package service

import (
	"context"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
)

// ============================================================
// Analytics
// ============================================================

// ResolvePeriod turns a symbolic period token into a concrete range in
// the reporting timezone.
func (s *FinanceService) ResolvePeriod(token string, customStart, customEnd *time.Time, now time.Time) (domain.DateRange, error) {
	return domain.ResolvePeriod(token, customStart, customEnd, now, s.loc)
}

// GetDashboardSummary computes the income/expense/balance cards for a
// resolved period.
func (s *FinanceService) GetDashboardSummary(ctx context.Context, userID string, rng domain.DateRange) (*domain.DashboardSummary, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetDashboardSummary")
	defer span.End()

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

	return &domain.DashboardSummary{
		TotalIncome:    round2(income),
		TotalExpense:   round2(expense),
		CurrentBalance: round2(income - expense),
		Period:         rng,
	}, nil
}

// GetCategorySpending returns the top expense categories for the period.
func (s *FinanceService) GetCategorySpending(ctx context.Context, userID string, rng domain.DateRange) ([]domain.CategorySpend, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetCategorySpending")
	defer span.End()

	return s.BreakdownByCategory(ctx, userID, domain.TypeExpense, rng, 7)
}

// GetTrends buckets amounts over the period. kind selects the series:
// income, expense, or balance (income minus expense per bucket).
func (s *FinanceService) GetTrends(ctx context.Context, userID, kind, granularity string, rng domain.DateRange) ([]domain.TrendPoint, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetTrends")
	defer span.End()

	f := domain.TransactionFilter{From: rng.Start, To: rng.End}

	switch kind {
	case domain.TypeIncome, domain.TypeExpense:
		f.Type = kind
		return s.BucketByGranularity(ctx, userID, f, granularity)
	case "balance":
		layout, err := granularityLayout(granularity)
		if err != nil {
			return nil, err
		}
		transactions, err := s.store.ListTransactions(ctx, userID, f)
		if err != nil {
			return nil, err
		}
		// Sign expenses so each bucket nets out.
		signed := make([]domain.Transaction, len(transactions))
		copy(signed, transactions)
		for i := range signed {
			if signed[i].Type == domain.TypeExpense {
				signed[i].Amount = -signed[i].Amount
			}
		}
		return bucketTransactions(signed, layout, s.loc), nil
	default:
		return nil, &domain.ErrValidation{Field: "type", Message: "must be income, expense or balance"}
	}
}

// GetSavingsRatio computes the savings-vs-income breakdown. With zero
// income both ratios are 0, except that existing spending reports a
// 100% expense ratio.
func (s *FinanceService) GetSavingsRatio(ctx context.Context, userID string, rng domain.DateRange) (*domain.SavingsRatio, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetSavingsRatio")
	defer span.End()

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

	savings := income - expense
	var savingsRatio, expenseRatio float64
	if income > 0 {
		savingsRatio = round2(savings / income * 100)
		expenseRatio = round2(expense / income * 100)
	} else if expense > 0 {
		expenseRatio = 100
	}

	return &domain.SavingsRatio{
		TotalIncome:  round2(income),
		TotalExpense: round2(expense),
		Savings:      round2(savings),
		SavingsRatio: savingsRatio,
		ExpenseRatio: expenseRatio,
		Period:       rng,
	}, nil
}
