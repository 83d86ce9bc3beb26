package service

import (
	"context"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
)

// ============================================================
// Categories
// ============================================================

func (s *FinanceService) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListCategories")
	defer span.End()

	return s.store.ListCategories(ctx, userID)
}

func (s *FinanceService) CreateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateCategory")
	defer span.End()

	if cat.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if !domain.ValidTransactionType(cat.Type) {
		return nil, &domain.ErrValidation{Field: "type", Message: "must be income or expense"}
	}
	cat.IsPredefined = false

	created, err := s.store.CreateCategory(ctx, cat)
	if err != nil {
		return nil, err
	}
	s.catCache.Set(created.ID, *created)
	return created, nil
}

func (s *FinanceService) UpdateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateCategory")
	defer span.End()

	if cat.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}

	updated, err := s.store.UpdateCategory(ctx, cat)
	if err != nil {
		return nil, err
	}
	s.catCache.Set(updated.ID, *updated)
	return updated, nil
}

// DeleteCategory removes a user-owned category. Categories still
// referenced by transactions stay; deleting them would orphan history.
func (s *FinanceService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteCategory")
	defer span.End()

	inUse, err := s.store.CountTransactions(ctx, userID, domain.TransactionFilter{CategoryID: categoryID})
	if err != nil {
		return err
	}
	if inUse > 0 {
		return &domain.ErrValidation{Field: "category_id", Message: "category is referenced by transactions"}
	}

	if err := s.store.DeleteCategory(ctx, userID, categoryID); err != nil {
		return err
	}
	s.catCache.Delete(categoryID)
	return nil
}
