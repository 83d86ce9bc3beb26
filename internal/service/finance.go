// Package service provides the business logic layer (use cases).
// FinanceService handles transactions, budgets, goals, analytics and
// the notification flows that hang off them.
package service

import (
	"context"
	"math"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
	"github.com/rupeetrail/rupeetrail-api-go/internal/infra/observability"
	"github.com/rupeetrail/rupeetrail-api-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var financeTracer = otel.Tracer("service/finance")

// FinanceService orchestrates all finance operations via the store.
// loc is the reporting timezone; every symbolic period resolves in it.
type FinanceService struct {
	store    port.FinanceStore
	mailer   port.NotificationMailer
	catCache port.Cache[domain.Category]
	loc      *time.Location
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewFinanceService creates a new finance service.
func NewFinanceService(store port.FinanceStore, mailer port.NotificationMailer, catCache port.Cache[domain.Category], loc *time.Location, metrics *observability.Metrics, logger *zap.Logger) *FinanceService {
	return &FinanceService{
		store:    store,
		mailer:   mailer,
		catCache: catCache,
		loc:      loc,
		metrics:  metrics,
		logger:   logger,
	}
}

// Location returns the reporting timezone.
func (s *FinanceService) Location() *time.Location {
	return s.loc
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ============================================================
// Transactions
// ============================================================

func (s *FinanceService) ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) (*domain.TransactionPage, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.Page < 1 {
		f.Page = 1
	}

	transactions, err := s.store.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	total, err := s.store.CountTransactions(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	totalPages := (total + f.PageSize - 1) / f.PageSize
	return &domain.TransactionPage{
		Transactions:      transactions,
		CurrentPage:       f.Page,
		TotalPages:        totalPages,
		TotalTransactions: total,
	}, nil
}

func (s *FinanceService) GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetTransaction")
	defer span.End()

	return s.store.GetTransaction(ctx, userID, transactionID)
}

// CreateTransaction validates and persists a transaction. Expenses then
// run a budget breach check for the owning user.
func (s *FinanceService) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", tx.UserID))

	if err := s.validateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	if created.Type == domain.TypeExpense {
		s.checkBudgetsAfterExpense(ctx, created.UserID)
	}

	return created, nil
}

func (s *FinanceService) UpdateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateTransaction")
	defer span.End()

	// Ownership check; also ensures the row exists before patching.
	existing, err := s.store.GetTransaction(ctx, tx.UserID, tx.ID)
	if err != nil {
		return nil, err
	}

	if err := s.validateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	if updated.Type == domain.TypeExpense || existing.Type == domain.TypeExpense {
		s.checkBudgetsAfterExpense(ctx, updated.UserID)
	}

	return updated, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteTransaction")
	defer span.End()

	return s.store.DeleteTransaction(ctx, userID, transactionID)
}

func (s *FinanceService) validateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if !domain.ValidTransactionType(tx.Type) {
		return &domain.ErrValidation{Field: "type", Message: "must be income or expense"}
	}
	if math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
		return &domain.ErrInvalidAmount{Field: "amount", Value: tx.Amount}
	}
	if tx.Amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if tx.Date.IsZero() {
		return &domain.ErrValidation{Field: "date", Message: "required"}
	}
	if tx.SourceDestination == "" {
		return &domain.ErrValidation{Field: "source_destination", Message: "required"}
	}
	if tx.CategoryID == "" {
		return &domain.ErrValidation{Field: "category_id", Message: "required"}
	}

	// The category must exist and carry the same direction as the
	// transaction (an expense cannot point at an income category).
	cat, err := s.lookupCategory(ctx, tx.CategoryID)
	if err != nil {
		return err
	}
	if cat.Type != tx.Type {
		return &domain.ErrValidation{Field: "category_id", Message: "category type does not match transaction type"}
	}
	return nil
}

// lookupCategory resolves a category via the cache.
func (s *FinanceService) lookupCategory(ctx context.Context, categoryID string) (*domain.Category, error) {
	if cat, ok := s.catCache.Get(categoryID); ok {
		s.metrics.IncrCacheHit("category")
		return &cat, nil
	}
	s.metrics.IncrCacheMiss("category")

	cat, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	s.catCache.Set(categoryID, *cat)
	return cat, nil
}

// checkBudgetsAfterExpense runs a breach check for all of the user's
// budgets. Failures are logged, never surfaced; the transaction write
// already succeeded.
func (s *FinanceService) checkBudgetsAfterExpense(ctx context.Context, userID string) {
	if _, err := s.CheckUserBudgets(ctx, userID, time.Now()); err != nil {
		s.logger.Warn("budget breach check failed after expense",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
