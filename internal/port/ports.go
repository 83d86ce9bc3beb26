// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
)

// FinanceStore defines all persistence operations for the finance tracker.
// Implemented by the Supabase adapter (or any other persistence layer).
// The store serialises per-row writes; transactional boundaries around
// read-modify-write sequences belong to it, not to the services.
type FinanceStore interface {
	// Transactions
	ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error)
	CountTransactions(ctx context.Context, userID string, f domain.TransactionFilter) (int, error)
	GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error

	// Categories
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
	GetCategory(ctx context.Context, categoryID string) (*domain.Category, error)
	CreateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error

	// Budgets
	ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error)
	GetBudget(ctx context.Context, userID, budgetID string) (*domain.Budget, error)
	CreateBudget(ctx context.Context, budget *domain.Budget) (*domain.Budget, error)
	UpdateBudget(ctx context.Context, budget *domain.Budget) (*domain.Budget, error)
	DeleteBudget(ctx context.Context, userID, budgetID string) error
	UpdateBudgetNotificationState(ctx context.Context, budgetID string, state domain.NotificationState) error

	// Goals
	ListGoals(ctx context.Context, userID string, achieved *bool) ([]domain.Goal, error)
	GetGoal(ctx context.Context, userID, goalID string) (*domain.Goal, error)
	CreateGoal(ctx context.Context, goal *domain.Goal) (*domain.Goal, error)
	UpdateGoal(ctx context.Context, goal *domain.Goal) (*domain.Goal, error)
	DeleteGoal(ctx context.Context, userID, goalID string) error

	// Users
	GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	ListUsersWithPreference(ctx context.Context, preference string) ([]domain.UserProfile, error)

	// Notifications (in-app)
	InsertNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// NotificationMailer dispatches fully-formed notification requests to the
// external mailer service. Transport (SMTP, templates, retries beyond this
// process) is the collaborator's concern.
type NotificationMailer interface {
	SendBudgetAlert(ctx context.Context, req *domain.BudgetAlertRequest) error
	SendGoalAchieved(ctx context.Context, req *domain.GoalAchievedRequest) error
	SendDailyReport(ctx context.Context, req *domain.DailyReportRequest) error
	SendMonthlyReport(ctx context.Context, req *domain.MonthlyReportRequest) error
}
