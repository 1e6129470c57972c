package services

import (
	"context"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/models"
	"fintrack/internal/repository"
)

// Alert trigger ratios relative to a budget's amount.
const (
	LargeTransactionRatio = 0.10
	BulkImportRatio       = 0.15
)

// DefaultRenewalLookaheadDays is used when no look-ahead is configured.
const DefaultRenewalLookaheadDays = 7

type options struct {
	now             func() time.Time
	defaultCurrency string
	lookaheadDays   int
}

// Option configures a service.
type Option func(*options)

// WithClock replaces time.Now for date-relative logic.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithDefaultCurrency sets the currency used when input omits one.
func WithDefaultCurrency(currency string) Option {
	return func(o *options) { o.defaultCurrency = currency }
}

// WithRenewalLookahead sets how many days ahead renewals raise alerts.
func WithRenewalLookahead(days int) Option {
	return func(o *options) { o.lookaheadDays = days }
}

func newOptions(opts []Option) options {
	o := options{
		now:             time.Now,
		defaultCurrency: "NOK",
		lookaheadDays:   DefaultRenewalLookaheadDays,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// subscriptionMonthlyForCategory sums the monthly cost of the active
// subscriptions in a category.
func subscriptionMonthlyForCategory(ctx context.Context, repo repository.SubscriptionRepository, categoryID string) (float64, bool, error) {
	subs, err := repo.FindSubscriptionsByCategory(ctx, categoryID)
	if err != nil {
		return 0, false, err
	}
	var total float64
	for i := range subs {
		total += subs[i].MonthlyCost()
	}
	return total, len(subs) > 0, nil
}

// progressFor computes a budget's progress for the period containing now.
func progressFor(ctx context.Context, repo repository.Repository, b *models.Budget, now time.Time) (*analytics.BudgetProgress, error) {
	start, end := b.CurrentPeriod(now)
	txs, err := repo.FindTransactionsByCategory(ctx, b.CategoryID, start, end)
	if err != nil {
		return nil, err
	}
	subMonthly, _, err := subscriptionMonthlyForCategory(ctx, repo, b.CategoryID)
	if err != nil {
		return nil, err
	}
	p := analytics.CalculateProgress(b, txs, subMonthly, now)
	return &p, nil
}
