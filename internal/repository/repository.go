// Package repository defines the storage contract used by the engines and
// services, and implements it on top of GORM.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate       *time.Time
	ToDate         *time.Time
	Type           *models.TransactionType
	CategoryID     *string
	SubscriptionID *string
	Search         string
}

// TransactionRepository stores imported transactions and their subscription links.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	CreateTransactions(ctx context.Context, txs []models.Transaction) error
	FindAllTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
	FindTransactionsPage(ctx context.Context, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	FindTransactionByID(ctx context.Context, id string) (*models.Transaction, error)
	FindTransactionsByDateRange(ctx context.Context, from, to time.Time) ([]models.Transaction, error)
	FindTransactionsByCategory(ctx context.Context, categoryID string, from, to time.Time) ([]models.Transaction, error)
	CalculateSummary(ctx context.Context, from, to *time.Time) (*models.TransactionSummary, error)
	UpdateTransactionCategory(ctx context.Context, id string, categoryID *string) error

	FlagTransactionAsSubscription(ctx context.Context, transactionID, subscriptionID string) error
	UnflagTransactionAsSubscription(ctx context.Context, transactionID string) error
	FindSubscriptionTransactions(ctx context.Context, subscriptionID string) ([]models.Transaction, error)
}

// CategoryRepository stores categories.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*models.Category, error)
}

// SubscriptionRepository stores subscriptions.
type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	FindAllSubscriptions(ctx context.Context) ([]models.Subscription, error)
	FindSubscriptionByID(ctx context.Context, id string) (*models.Subscription, error)
	FindSubscriptionsByCategory(ctx context.Context, categoryID string) ([]models.Subscription, error)
	FindActiveSubscriptions(ctx context.Context) ([]models.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
	DeleteSubscription(ctx context.Context, id string) error
	FindUpcomingPayments(ctx context.Context, days int) ([]models.Subscription, error)
	CalculateTotalMonthlyCost(ctx context.Context) (float64, error)
	FindUnusedSubscriptions(ctx context.Context, days int) ([]models.Subscription, error)
}

// PatternRepository stores subscription patterns.
type PatternRepository interface {
	CreateSubscriptionPattern(ctx context.Context, pattern *models.SubscriptionPattern) error
	FindPatternsBySubscription(ctx context.Context, subscriptionID string) ([]models.SubscriptionPattern, error)
	FindSubscriptionPatternByID(ctx context.Context, id string) (*models.SubscriptionPattern, error)
	UpdatePatternUsage(ctx context.Context, id string, wasCorrect bool) (*models.SubscriptionPattern, error)
	DeleteSubscriptionPattern(ctx context.Context, id string) error
}

// BudgetFilter holds optional filter parameters for listing budgets.
type BudgetFilter struct {
	IsActive   *bool
	Period     *models.BudgetPeriod
	CategoryID *string
	ScenarioID *string
}

// BudgetRepository stores budgets and scenarios.
type BudgetRepository interface {
	CreateBudget(ctx context.Context, budget *models.Budget) error
	FindAllBudgets(ctx context.Context, filter BudgetFilter) ([]models.Budget, error)
	FindBudgetByID(ctx context.Context, id string) (*models.Budget, error)
	FindBudgetsByCategory(ctx context.Context, categoryID string) ([]models.Budget, error)
	FindBudgetsByPeriod(ctx context.Context, period models.BudgetPeriod) ([]models.Budget, error)
	FindBudgetsByScenario(ctx context.Context, scenarioID string) ([]models.Budget, error)
	FindBudgetsByActiveScenario(ctx context.Context) ([]models.Budget, error)
	UpdateBudget(ctx context.Context, budget *models.Budget) error
	DeleteBudget(ctx context.Context, id string) error

	CreateBudgetScenario(ctx context.Context, scenario *models.BudgetScenario) error
	FindAllBudgetScenarios(ctx context.Context) ([]models.BudgetScenario, error)
	FindBudgetScenarioByID(ctx context.Context, id string) (*models.BudgetScenario, error)
	ActivateBudgetScenario(ctx context.Context, id string) error
}

// AlertRepository stores budget alerts. Alerts are append-only apart from the
// read flag.
type AlertRepository interface {
	CreateBudgetAlert(ctx context.Context, alert *models.BudgetAlert) error
	FindBudgetAlerts(ctx context.Context, budgetID *string) ([]models.BudgetAlert, error)
	FindUnreadBudgetAlerts(ctx context.Context) ([]models.BudgetAlert, error)
	FindBudgetAlertsSince(ctx context.Context, budgetID string, alertType models.AlertType, since time.Time) ([]models.BudgetAlert, error)
	MarkBudgetAlertRead(ctx context.Context, id string) error
}

// AuditRepository stores audit log entries.
type AuditRepository interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// Repository is the full storage contract.
type Repository interface {
	TransactionRepository
	CategoryRepository
	SubscriptionRepository
	PatternRepository
	BudgetRepository
	AlertRepository
	AuditRepository

	// WithinTransaction runs fn against a Repository bound to a single
	// database transaction. Any error from fn rolls every write back.
	WithinTransaction(ctx context.Context, fn func(Repository) error) error
}

// GormRepository implements Repository with GORM.
type GormRepository struct {
	db       *gorm.DB
	adjuster ConfidenceAdjuster
	now      func() time.Time
}

// Option configures a GormRepository.
type Option func(*GormRepository)

// WithConfidenceAdjuster replaces the pattern feedback policy.
func WithConfidenceAdjuster(a ConfidenceAdjuster) Option {
	return func(r *GormRepository) { r.adjuster = a }
}

// WithClock replaces time.Now, used for date-relative queries.
func WithClock(now func() time.Time) Option {
	return func(r *GormRepository) { r.now = now }
}

// New creates a GORM-backed Repository.
func New(db *gorm.DB, opts ...Option) *GormRepository {
	r := &GormRepository{
		db:       db,
		adjuster: FixedStepAdjuster{Step: DefaultConfidenceStep},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ Repository = (*GormRepository)(nil)

// WithinTransaction implements Repository.
func (r *GormRepository) WithinTransaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := *r
		txRepo.db = tx
		return fn(&txRepo)
	})
}

// first loads a single record and maps gorm.ErrRecordNotFound to a typed
// not-found error naming the id.
func (r *GormRepository) first(ctx context.Context, dest any, sentinel *apperrors.AppError, resource, id string, preload ...string) error {
	q := r.db.WithContext(ctx)
	for _, p := range preload {
		q = q.Preload(p)
	}
	if err := q.Where("id = ?", id).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(sentinel, resource, id)
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func wrapDB(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
