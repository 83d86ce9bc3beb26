// Package domain defines the core business entities for the finance
// tracker. These models are independent of external services and represent
// the canonical data structures used throughout the API.
package domain

import "time"

// ============================================================
// Transactions
// ============================================================

// Transaction types.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// ValidTransactionType reports whether t is a known transaction type.
func ValidTransactionType(t string) bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction is a single income or expense entry owned by a user.
// Amount is always positive; Type carries the direction.
type Transaction struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Type              string    `json:"type"`
	Amount            float64   `json:"amount"`
	CategoryID        string    `json:"category_id"`
	SourceDestination string    `json:"source_destination"`
	Date              time.Time `json:"date"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at,omitempty"`
	UpdatedAt         time.Time `json:"updated_at,omitempty"`
}

// TransactionFilter narrows a transaction listing. Zero values mean
// "no constraint". PageSize == 0 disables pagination (used by the
// aggregator, which needs every row in range).
type TransactionFilter struct {
	Type       string
	CategoryID string
	From       time.Time
	To         time.Time
	MinAmount  float64
	MaxAmount  float64
	Search     string
	SortBy     string
	Order      string
	Page       int
	PageSize   int
}

// TransactionPage is a paginated transaction listing.
type TransactionPage struct {
	Transactions      []Transaction `json:"transactions"`
	CurrentPage       int           `json:"current_page"`
	TotalPages        int           `json:"total_pages"`
	TotalTransactions int           `json:"total_transactions"`
}

// ============================================================
// Categories
// ============================================================

// Category classifies transactions. Predefined categories have no owner
// (UserID empty) and are shared by all users.
type Category struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id,omitempty"`
	Name         string `json:"name"`
	Type         string `json:"type"` // income | expense
	Icon         string `json:"icon,omitempty"`
	Color        string `json:"color,omitempty"`
	IsPredefined bool   `json:"is_predefined"`
}

// ============================================================
// Budgets
// ============================================================

// Budget period types.
const (
	BudgetMonthly = "monthly"
	BudgetYearly  = "yearly"
	BudgetCustom  = "custom"
)

// ValidBudgetPeriod reports whether p is a known budget period.
func ValidBudgetPeriod(p string) bool {
	return p == BudgetMonthly || p == BudgetYearly || p == BudgetCustom
}

// Budget is a recurring spending limit template anchored at StartDate.
// CategoryID empty means a global budget over all expense categories.
// The concrete period instance is derived via InstanceRange, never stored.
// NotifiedAt80/NotifiedAt100 deduplicate threshold alerts for the instance.
type Budget struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	Name                 string     `json:"name"`
	CategoryID           string     `json:"category_id,omitempty"`
	Amount               float64    `json:"amount"`
	Period               string     `json:"period"`
	StartDate            time.Time  `json:"start_date"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	NotificationsEnabled bool       `json:"notifications_enabled"`
	NotifiedAt80         bool       `json:"notified_at_80"`
	NotifiedAt100        bool       `json:"notified_at_100"`
	CreatedAt            time.Time  `json:"created_at,omitempty"`
}

// BudgetStatus is the derived consumption state of a budget's current
// period instance. Computed on every read, never persisted.
type BudgetStatus struct {
	BudgetID       string  `json:"budget_id"`
	Name           string  `json:"name"`
	Amount         float64 `json:"amount"`
	TotalSpent     float64 `json:"total_spent"`
	PercentageUsed float64 `json:"percentage_used"`
	Remaining      float64 `json:"remaining"`
}

// BudgetWithStatus pairs a budget definition with its derived status.
type BudgetWithStatus struct {
	Budget
	TotalSpent     float64 `json:"total_spent"`
	PercentageUsed float64 `json:"percentage_used"`
	Remaining      float64 `json:"remaining"`
}

// BreachResult reports which threshold alerts fired during a breach check.
type BreachResult struct {
	BudgetID string `json:"budget_id"`
	Fire80   bool   `json:"fire_80"`
	Fire100  bool   `json:"fire_100"`
}

// ============================================================
// Goals
// ============================================================

// Goal is a savings target. IsAchieved is derived from the amounts and
// recomputed on every mutation, never set independently.
type Goal struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Name          string     `json:"name"`
	TargetAmount  float64    `json:"target_amount"`
	CurrentAmount float64    `json:"current_amount"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Description   string     `json:"description,omitempty"`
	IsAchieved    bool       `json:"is_achieved"`
	CreatedAt     time.Time  `json:"created_at,omitempty"`
}

// GoalContributionResult reports the outcome of a progress update.
// JustAchieved is true only on the transition into the achieved state,
// so callers can trigger a one-time celebratory notification.
type GoalContributionResult struct {
	Goal         *Goal   `json:"goal"`
	Progress     float64 `json:"progress"`
	JustAchieved bool    `json:"just_achieved"`
}

// ============================================================
// Periods & analytics
// ============================================================

// DateRange is a concrete inclusive instant range.
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Trend granularities.
const (
	GranularityDaily   = "daily"
	GranularityMonthly = "monthly"
	GranularityYearly  = "yearly"
)

// CategorySpend is a per-category aggregate.
type CategorySpend struct {
	CategoryID   string  `json:"category_id,omitempty"`
	CategoryName string  `json:"category_name"`
	TotalSpent   float64 `json:"total_spent"`
}

// TrendPoint is one bucket of a time series. Date is formatted per the
// requested granularity ("2006-01-02", "2006-01" or "2006").
type TrendPoint struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// DashboardSummary backs the dashboard cards for a resolved period.
type DashboardSummary struct {
	TotalIncome    float64   `json:"total_income"`
	TotalExpense   float64   `json:"total_expense"`
	CurrentBalance float64   `json:"current_balance"`
	Period         DateRange `json:"period"`
}

// SavingsRatio is the savings-vs-income breakdown for a period.
type SavingsRatio struct {
	TotalIncome  float64   `json:"total_income"`
	TotalExpense float64   `json:"total_expense"`
	Savings      float64   `json:"savings"`
	SavingsRatio float64   `json:"savings_ratio"`
	ExpenseRatio float64   `json:"expense_ratio"`
	Period       DateRange `json:"period"`
}

// ============================================================
// Breach detection
// ============================================================

// NotificationState is the threshold-alert dedup state for one budget
// instance. Persisted on the budget row; treated as immutable by the
// detector, which returns a new state instead of mutating.
type NotificationState struct {
	NotifiedAt80  bool `json:"notified_at_80"`
	NotifiedAt100 bool `json:"notified_at_100"`
}

// BreachDecision is the outcome of a threshold evaluation.
type BreachDecision struct {
	Fire80  bool              `json:"fire_80"`
	Fire100 bool              `json:"fire_100"`
	State   NotificationState `json:"state"`
}

// ============================================================
// Users & notifications
// ============================================================

// EmailPreferences controls which notification emails a user receives.
type EmailPreferences struct {
	DailyReport   bool `json:"daily_report"`
	MonthlyReport bool `json:"monthly_report"`
	BudgetAlerts  bool `json:"budget_alerts"`
}

// UserProfile is the slice of the user record the engine needs:
// identity for ownership checks and preferences for dispatch policy.
type UserProfile struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Preferences EmailPreferences `json:"email_preferences"`
}

// Notification is an in-app notification row.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"` // budget_alert | goal_achieved
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ============================================================
// Mailer requests (fully formed; transport is external)
// ============================================================

// BudgetAlertRequest is a complete budget-threshold alert for the mailer.
type BudgetAlertRequest struct {
	UserID       string  `json:"user_id"`
	Email        string  `json:"email"`
	UserName     string  `json:"user_name"`
	BudgetID     string  `json:"budget_id"`
	BudgetName   string  `json:"budget_name"`
	Threshold    int     `json:"threshold"` // 80 or 100
	TotalSpent   float64 `json:"total_spent"`
	BudgetAmount float64 `json:"budget_amount"`
}

// GoalAchievedRequest is a complete goal-achievement notification.
type GoalAchievedRequest struct {
	UserID       string  `json:"user_id"`
	Email        string  `json:"email"`
	UserName     string  `json:"user_name"`
	GoalID       string  `json:"goal_id"`
	GoalName     string  `json:"goal_name"`
	TargetAmount float64 `json:"target_amount"`
}

// DailyReport summarises one day of spending.
type DailyReport struct {
	Date               string          `json:"date"` // YYYY-MM-DD in the report timezone
	TotalSpent         float64         `json:"total_spent"`
	ExpensesByCategory []CategorySpend `json:"expenses_by_category"`
}

// DailyReportRequest is a daily report addressed to a user.
type DailyReportRequest struct {
	UserID   string      `json:"user_id"`
	Email    string      `json:"email"`
	UserName string      `json:"user_name"`
	Report   DailyReport `json:"report"`
}

// MonthlyReport summarises a full calendar month.
type MonthlyReport struct {
	MonthName             string          `json:"month_name"`
	Year                  string          `json:"year"`
	TotalIncome           float64         `json:"total_income"`
	TotalExpense          float64         `json:"total_expense"`
	NetSavings            float64         `json:"net_savings"`
	TopSpendingCategories []CategorySpend `json:"top_spending_categories"`
	Suggestions           []string        `json:"suggestions"`
}

// MonthlyReportRequest is a monthly overview addressed to a user.
type MonthlyReportRequest struct {
	UserID   string        `json:"user_id"`
	Email    string        `json:"email"`
	UserName string        `json:"user_name"`
	Report   MonthlyReport `json:"report"`
}

// ============================================================
// Misc API types
// ============================================================

// SuccessResponse is a generic confirmation payload.
type SuccessResponse struct {
	Message string `json:"message"`
}

// AlertMetrics is a snapshot of engine counters for the metrics endpoint.
type AlertMetrics struct {
	BudgetEvaluations float64 `json:"budget_evaluations"`
	AlertsAt80        float64 `json:"alerts_at_80"`
	AlertsAt100       float64 `json:"alerts_at_100"`
	GoalsAchieved     float64 `json:"goals_achieved"`
	ReportRunsDaily   float64 `json:"report_runs_daily"`
	ReportRunsMonthly float64 `json:"report_runs_monthly"`
	CacheHitRate      float64 `json:"cache_hit_rate"`
}
