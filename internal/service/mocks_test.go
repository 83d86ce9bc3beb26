package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
	"github.com/rupeetrail/rupeetrail-api-go/internal/infra/cache"
	"github.com/rupeetrail/rupeetrail-api-go/internal/infra/observability"
	"github.com/rupeetrail/rupeetrail-api-go/internal/service"

	"go.uber.org/zap"
)

// mockStore is an in-memory FinanceStore for tests.
type mockStore struct {
	mu            sync.Mutex
	transactions  []domain.Transaction
	categories    map[string]domain.Category
	budgets       map[string]*domain.Budget
	goals         map[string]*domain.Goal
	users         map[string]domain.UserProfile
	notifications []domain.Notification
	nextID        int

	// stateUpdates records every persisted notification-state write.
	stateUpdates []domain.NotificationState

	listErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		categories: make(map[string]domain.Category),
		budgets:    make(map[string]*domain.Budget),
		goals:      make(map[string]*domain.Goal),
		users:      make(map[string]domain.UserProfile),
	}
}

func (m *mockStore) genID() string {
	m.nextID++
	return fmt.Sprintf("id-%d", m.nextID)
}

func matchesFilter(tx domain.Transaction, userID string, f domain.TransactionFilter) bool {
	if tx.UserID != userID {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.CategoryID != "" && tx.CategoryID != f.CategoryID {
		return false
	}
	if !f.From.IsZero() && tx.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && tx.Date.After(f.To) {
		return false
	}
	if f.MinAmount > 0 && tx.Amount < f.MinAmount {
		return false
	}
	if f.MaxAmount > 0 && tx.Amount > f.MaxAmount {
		return false
	}
	return true
}

func (m *mockStore) ListTransactions(_ context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}

	var out []domain.Transaction
	for _, tx := range m.transactions {
		if matchesFilter(tx, userID, f) {
			out = append(out, tx)
		}
	}
	if f.PageSize > 0 {
		start := (f.Page - 1) * f.PageSize
		if start > len(out) {
			start = len(out)
		}
		end := start + f.PageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, nil
}

func (m *mockStore) CountTransactions(_ context.Context, userID string, f domain.TransactionFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, tx := range m.transactions {
		if matchesFilter(tx, userID, f) {
			count++
		}
	}
	return count, nil
}

func (m *mockStore) GetTransaction(_ context.Context, userID, transactionID string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transactions {
		if m.transactions[i].ID == transactionID && m.transactions[i].UserID == userID {
			tx := m.transactions[i]
			return &tx, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
}

func (m *mockStore) CreateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *tx
	created.ID = m.genID()
	m.transactions = append(m.transactions, created)
	return &created, nil
}

func (m *mockStore) UpdateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transactions {
		if m.transactions[i].ID == tx.ID && m.transactions[i].UserID == tx.UserID {
			m.transactions[i] = *tx
			updated := *tx
			return &updated, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "transaction", ID: tx.ID}
}

func (m *mockStore) DeleteTransaction(_ context.Context, userID, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transactions {
		if m.transactions[i].ID == transactionID && m.transactions[i].UserID == userID {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
}

func (m *mockStore) ListCategories(_ context.Context, userID string) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Category
	for _, c := range m.categories {
		if c.UserID == "" || c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockStore) GetCategory(_ context.Context, categoryID string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.categories[categoryID]; ok {
		return &c, nil
	}
	return nil, &domain.ErrNotFound{Resource: "category", ID: categoryID}
}

func (m *mockStore) CreateCategory(_ context.Context, cat *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *cat
	created.ID = m.genID()
	m.categories[created.ID] = created
	return &created, nil
}

func (m *mockStore) UpdateCategory(_ context.Context, cat *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[cat.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "category", ID: cat.ID}
	}
	m.categories[cat.ID] = *cat
	updated := *cat
	return &updated, nil
}

func (m *mockStore) DeleteCategory(_ context.Context, userID, categoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[categoryID]; !ok {
		return &domain.ErrNotFound{Resource: "category", ID: categoryID}
	}
	delete(m.categories, categoryID)
	return nil
}

func (m *mockStore) ListBudgets(_ context.Context, userID string) ([]domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Budget
	for _, b := range m.budgets {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockStore) GetBudget(_ context.Context, userID, budgetID string) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.budgets[budgetID]; ok && b.UserID == userID {
		budget := *b
		return &budget, nil
	}
	return nil, &domain.ErrNotFound{Resource: "budget", ID: budgetID}
}

func (m *mockStore) CreateBudget(_ context.Context, budget *domain.Budget) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *budget
	created.ID = m.genID()
	m.budgets[created.ID] = &created
	result := created
	return &result, nil
}

func (m *mockStore) UpdateBudget(_ context.Context, budget *domain.Budget) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.budgets[budget.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "budget", ID: budget.ID}
	}
	updated := *budget
	m.budgets[budget.ID] = &updated
	result := updated
	return &result, nil
}

func (m *mockStore) DeleteBudget(_ context.Context, userID, budgetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.budgets[budgetID]; ok && b.UserID == userID {
		delete(m.budgets, budgetID)
		return nil
	}
	return &domain.ErrNotFound{Resource: "budget", ID: budgetID}
}

func (m *mockStore) UpdateBudgetNotificationState(_ context.Context, budgetID string, state domain.NotificationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[budgetID]
	if !ok {
		return &domain.ErrNotFound{Resource: "budget", ID: budgetID}
	}
	b.NotifiedAt80 = state.NotifiedAt80
	b.NotifiedAt100 = state.NotifiedAt100
	m.stateUpdates = append(m.stateUpdates, state)
	return nil
}

func (m *mockStore) ListGoals(_ context.Context, userID string, achieved *bool) ([]domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Goal
	for _, g := range m.goals {
		if g.UserID != userID {
			continue
		}
		if achieved != nil && g.IsAchieved != *achieved {
			continue
		}
		out = append(out, *g)
	}
	return out, nil
}

func (m *mockStore) GetGoal(_ context.Context, userID, goalID string) (*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.goals[goalID]; ok && g.UserID == userID {
		goal := *g
		return &goal, nil
	}
	return nil, &domain.ErrNotFound{Resource: "goal", ID: goalID}
}

func (m *mockStore) CreateGoal(_ context.Context, goal *domain.Goal) (*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *goal
	created.ID = m.genID()
	m.goals[created.ID] = &created
	result := created
	return &result, nil
}

func (m *mockStore) UpdateGoal(_ context.Context, goal *domain.Goal) (*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.goals[goal.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "goal", ID: goal.ID}
	}
	updated := *goal
	m.goals[goal.ID] = &updated
	result := updated
	return &result, nil
}

func (m *mockStore) DeleteGoal(_ context.Context, userID, goalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.goals[goalID]; ok && g.UserID == userID {
		delete(m.goals, goalID)
		return nil
	}
	return &domain.ErrNotFound{Resource: "goal", ID: goalID}
}

func (m *mockStore) GetUserProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		return &u, nil
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
}

func (m *mockStore) ListUsersWithPreference(_ context.Context, preference string) ([]domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.UserProfile
	for _, u := range m.users {
		switch preference {
		case "daily_report":
			if u.Preferences.DailyReport {
				out = append(out, u)
			}
		case "monthly_report":
			if u.Preferences.MonthlyReport {
				out = append(out, u)
			}
		case "budget_alerts":
			if u.Preferences.BudgetAlerts {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (m *mockStore) InsertNotification(_ context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *n
	stored.ID = m.genID()
	m.notifications = append(m.notifications, stored)
	return nil
}

func (m *mockStore) ListNotifications(_ context.Context, userID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *mockStore) MarkNotificationRead(_ context.Context, userID, notificationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == notificationID && m.notifications[i].UserID == userID {
			m.notifications[i].Read = true
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "notification", ID: notificationID}
}

// mockMailer records dispatched notifications.
type mockMailer struct {
	mu             sync.Mutex
	budgetAlerts   []domain.BudgetAlertRequest
	goalAchieved   []domain.GoalAchievedRequest
	dailyReports   []domain.DailyReportRequest
	monthlyReports []domain.MonthlyReportRequest
	sendErr        error
}

func (m *mockMailer) SendBudgetAlert(_ context.Context, req *domain.BudgetAlertRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.budgetAlerts = append(m.budgetAlerts, *req)
	return nil
}

func (m *mockMailer) SendGoalAchieved(_ context.Context, req *domain.GoalAchievedRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.goalAchieved = append(m.goalAchieved, *req)
	return nil
}

func (m *mockMailer) SendDailyReport(_ context.Context, req *domain.DailyReportRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.dailyReports = append(m.dailyReports, *req)
	return nil
}

func (m *mockMailer) SendMonthlyReport(_ context.Context, req *domain.MonthlyReportRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.monthlyReports = append(m.monthlyReports, *req)
	return nil
}

func newTestService(store *mockStore, mailer *mockMailer) *service.FinanceService {
	return service.NewFinanceService(
		store,
		mailer,
		cache.New[domain.Category](time.Minute),
		time.UTC,
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

// seedCategory inserts a category directly into the mock store.
func seedCategory(store *mockStore, id, name, catType string) {
	store.categories[id] = domain.Category{ID: id, Name: name, Type: catType, IsPredefined: true}
}

func seedUser(store *mockStore, id, email string, prefs domain.EmailPreferences) {
	store.users[id] = domain.UserProfile{ID: id, Name: "Test User", Email: email, Preferences: prefs}
}

func seedExpense(store *mockStore, userID, categoryID string, amount float64, date time.Time) {
	store.transactions = append(store.transactions, domain.Transaction{
		ID:         store.genID(),
		UserID:     userID,
		Type:       domain.TypeExpense,
		Amount:     amount,
		CategoryID: categoryID,
		Date:       date,
	})
}

func seedIncome(store *mockStore, userID, categoryID string, amount float64, date time.Time) {
	store.transactions = append(store.transactions, domain.Transaction{
		ID:         store.genID(),
		UserID:     userID,
		Type:       domain.TypeIncome,
		Amount:     amount,
		CategoryID: categoryID,
		Date:       date,
	})
}
