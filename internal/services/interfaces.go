package services

import (
	"context"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/projection"
	"fintrack/internal/repository"
	"fintrack/internal/subscription"
)

// CategoryServicer defines the interface for category operations.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, name string, categoryType models.CategoryType, description, icon, color string) (*models.Category, error)
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*models.Category, error)
}

// TransactionInput carries the fields of a transaction to record. Expense
// amounts may be given with either sign; they are stored negative.
type TransactionInput struct {
	Date        time.Time
	Description string
	Amount      float64
	Currency    string
	Type        models.TransactionType
	CategoryID  *string
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	Imported     int                  `json:"imported"`
	Transactions []models.Transaction `json:"transactions"`
}

// TransactionServicer defines the interface for transaction operations.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, in TransactionInput) (*models.Transaction, error)
	ImportTransactions(ctx context.Context, in []TransactionInput) (*ImportResult, error)
	GetTransactions(ctx context.Context, page pagination.PageRequest, filter repository.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error)
	GetSummary(ctx context.Context, from, to *time.Time) (*models.TransactionSummary, error)
}

// SubscriptionInput carries the fields of a hand-made subscription.
type SubscriptionInput struct {
	Name                string
	Amount              float64
	Currency            string
	BillingFrequency    models.BillingFrequency
	CustomFrequencyDays *int
	NextPaymentDate     time.Time
	CategoryID          string
	StartDate           time.Time
	EndDate             *time.Time
	UsageRating         *int
	Notes               string
}

// SubscriptionUpdate holds the optional changes to a subscription. Nil fields
// are left untouched.
type SubscriptionUpdate struct {
	Name                *string
	Amount              *float64
	BillingFrequency    *models.BillingFrequency
	CustomFrequencyDays *int
	NextPaymentDate     *time.Time
	CategoryID          *string
	IsActive            *bool
	EndDate             *time.Time
	UsageRating         *int
	LastUsedAt          *time.Time
	Notes               *string
}

// ConfirmOverrides lets the user correct a detected candidate while
// confirming it.
type ConfirmOverrides struct {
	Name            *string
	Amount          *float64
	CategoryID      *string
	NextPaymentDate *time.Time
	Notes           string
}

// SubscriptionServicer defines the interface for subscription operations.
type SubscriptionServicer interface {
	DetectSubscriptions(ctx context.Context) ([]subscription.Candidate, error)
	AnalyzeRecurringPatterns(ctx context.Context) ([]subscription.RecurringPattern, error)
	ConfirmSubscription(ctx context.Context, candidate subscription.Candidate, overrides ConfirmOverrides) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, in SubscriptionInput) (*models.Subscription, error)
	GetSubscriptions(ctx context.Context) ([]models.Subscription, error)
	GetSubscriptionByID(ctx context.Context, id string) (*models.Subscription, error)
	UpdateSubscription(ctx context.Context, id string, update SubscriptionUpdate) (*models.Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error
	CancelSubscription(ctx context.Context, id string) (*models.Subscription, error)
	GetSubscriptionTransactions(ctx context.Context, id string) ([]models.Transaction, error)
	GetUpcomingRenewals(ctx context.Context, days int) ([]models.Subscription, error)
	GetUnusedSubscriptions(ctx context.Context, days int) ([]models.Subscription, error)
	GetMonthlyCost(ctx context.Context) (float64, error)
	MatchTransactions(ctx context.Context) ([]subscription.Match, error)
	AddPattern(ctx context.Context, subscriptionID, pattern string, patternType models.PatternType) (*models.SubscriptionPattern, error)
	RecordPatternFeedback(ctx context.Context, patternID string, wasCorrect bool) (*models.SubscriptionPattern, error)
	Reconcile(ctx context.Context) (*subscription.ReconcileResult, error)
}

// BudgetInput carries the fields of a new budget.
type BudgetInput struct {
	CategoryID      string
	Name            string
	Amount          float64
	Currency        string
	Period          models.BudgetPeriod
	StartDate       time.Time
	EndDate         *time.Time
	AlertThresholds []float64
	ScenarioID      *string
}

// BudgetUpdate holds the optional changes to a budget.
type BudgetUpdate struct {
	Name            *string
	Amount          *float64
	Period          *models.BudgetPeriod
	StartDate       *time.Time
	EndDate         *time.Time
	ClearEndDate    bool
	IsActive        *bool
	AlertThresholds []float64
	ScenarioID      *string
}

// BudgetSuggestions combines the weighted multi-window suggestion with the
// plain tiers of the primary analysis window.
type BudgetSuggestions struct {
	analytics.Suggestions
	PrimaryTiers analytics.Tiers `json:"primary_tiers"`
}

// BudgetServicer defines the interface for budget operations.
type BudgetServicer interface {
	CreateBudget(ctx context.Context, in BudgetInput) (*models.Budget, error)
	GetBudgets(ctx context.Context, filter repository.BudgetFilter) ([]models.Budget, error)
	GetBudgetByID(ctx context.Context, id string) (*models.Budget, error)
	UpdateBudget(ctx context.Context, id string, update BudgetUpdate) (*models.Budget, error)
	DeleteBudget(ctx context.Context, id string) error
	GetBudgetProgress(ctx context.Context, id string) (*analytics.BudgetProgress, error)
	GetAllBudgetProgress(ctx context.Context) ([]analytics.BudgetProgress, error)
	AnalyzeHistoricalSpending(ctx context.Context, categoryID string, months int) (*analytics.SpendingAnalysis, error)
	GetBudgetVariance(ctx context.Context, id string) (*analytics.VarianceAnalysis, error)
	GetBudgetProjection(ctx context.Context, id string) (*analytics.BudgetProjection, error)
	GetBudgetSuggestions(ctx context.Context, categoryID string, period models.BudgetPeriod) (*BudgetSuggestions, error)

	CreateScenario(ctx context.Context, name, description string) (*models.BudgetScenario, error)
	GetScenarios(ctx context.Context) ([]models.BudgetScenario, error)
	ActivateScenario(ctx context.Context, id string) (*models.BudgetScenario, error)
}

// AlertServicer raises and lists budget alerts. Raise methods never fail the
// caller; storage errors are logged.
type AlertServicer interface {
	Raise(ctx context.Context, budgetID string, alertType models.AlertType, threshold *float64, message string)
	RaiseForCategory(ctx context.Context, categoryID string, alertType models.AlertType, message string)
	GetAlerts(ctx context.Context, budgetID *string) ([]models.BudgetAlert, error)
	GetUnreadAlerts(ctx context.Context) ([]models.BudgetAlert, error)
	MarkAsRead(ctx context.Context, id string) error
}

// ProjectionServicer defines the interface for investment projections.
type ProjectionServicer interface {
	CompoundReturns(monthlyAmount, years float64, opts projection.Options) float64
	CompareSubscription(ctx context.Context, subscriptionID string, opts projection.Options) (*projection.Comparison, error)
	CompareCost(name string, amount float64, frequency models.BillingFrequency, customDays *int, opts projection.Options) (*projection.Comparison, error)
}

// AuditServicer defines the interface for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
