package service

import (
	"context"
	"sort"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Spending aggregation
// ============================================================
//
// Aggregation always runs in-process over the full row set for the
// filter (PageSize 0 disables pagination at the store). Sums carry raw
// float64 precision; rounding happens once at the presentation edge.

// SumByFilter returns the unrounded sum of amounts matching the filter.
func (s *FinanceService) SumByFilter(ctx context.Context, userID string, f domain.TransactionFilter) (float64, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.SumByFilter")
	defer span.End()

	f.Page = 0
	f.PageSize = 0
	transactions, err := s.store.ListTransactions(ctx, userID, f)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, tx := range transactions {
		total += tx.Amount
	}
	return total, nil
}

// BreakdownByCategory groups totals of the given transaction type per
// category over the range, sorted by total descending. Transactions
// whose category no longer resolves fall into "Uncategorized". A limit
// of 0 means no limit.
func (s *FinanceService) BreakdownByCategory(ctx context.Context, userID, txType string, rng domain.DateRange, limit int) ([]domain.CategorySpend, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.BreakdownByCategory")
	defer span.End()

	if !domain.ValidTransactionType(txType) {
		return nil, &domain.ErrValidation{Field: "type", Message: "must be income or expense"}
	}

	f := domain.TransactionFilter{
		Type: txType,
		From: rng.Start,
		To:   rng.End,
	}
	transactions, err := s.store.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64)
	for _, tx := range transactions {
		totals[tx.CategoryID] += tx.Amount
	}

	breakdown := make([]domain.CategorySpend, 0, len(totals))
	for categoryID, total := range totals {
		name := "Uncategorized"
		if categoryID != "" {
			cat, err := s.lookupCategory(ctx, categoryID)
			if err != nil {
				s.logger.Debug("category lookup failed in breakdown",
					zap.String("category_id", categoryID),
					zap.Error(err),
				)
			} else {
				name = cat.Name
			}
		}
		breakdown = append(breakdown, domain.CategorySpend{
			CategoryID:   categoryID,
			CategoryName: name,
			TotalSpent:   round2(total),
		})
	}

	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].TotalSpent != breakdown[j].TotalSpent {
			return breakdown[i].TotalSpent > breakdown[j].TotalSpent
		}
		return breakdown[i].CategoryName < breakdown[j].CategoryName
	})

	if limit > 0 && len(breakdown) > limit {
		breakdown = breakdown[:limit]
	}
	return breakdown, nil
}

// BucketByGranularity sums amounts into date buckets. Bucket keys are
// formatted in the reporting timezone ("2006-01-02", "2006-01" or
// "2006") and returned in ascending date order. Empty buckets are
// omitted.
func (s *FinanceService) BucketByGranularity(ctx context.Context, userID string, f domain.TransactionFilter, granularity string) ([]domain.TrendPoint, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.BucketByGranularity")
	defer span.End()

	layout, err := granularityLayout(granularity)
	if err != nil {
		return nil, err
	}

	f.Page = 0
	f.PageSize = 0
	transactions, err := s.store.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	return bucketTransactions(transactions, layout, s.loc), nil
}

func granularityLayout(granularity string) (string, error) {
	switch granularity {
	case domain.GranularityDaily:
		return "2006-01-02", nil
	case domain.GranularityMonthly:
		return "2006-01", nil
	case domain.GranularityYearly:
		return "2006", nil
	default:
		return "", &domain.ErrValidation{Field: "granularity", Message: "must be daily, monthly or yearly"}
	}
}

func bucketTransactions(transactions []domain.Transaction, layout string, loc *time.Location) []domain.TrendPoint {
	buckets := make(map[string]float64)
	for _, tx := range transactions {
		key := tx.Date.In(loc).Format(layout)
		buckets[key] += tx.Amount
	}

	points := make([]domain.TrendPoint, 0, len(buckets))
	for key, total := range buckets {
		points = append(points, domain.TrendPoint{Date: key, Amount: round2(total)})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}
