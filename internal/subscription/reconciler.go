package subscription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/matching"
	"fintrack/internal/models"
	"fintrack/internal/repository"
)

// ReconcileLookbackMonths bounds the transactions searched for new payments.
const ReconcileLookbackMonths = 6

// ReconcileUpdate describes one advanced payment date.
type ReconcileUpdate struct {
	SubscriptionID      string    `json:"subscription_id"`
	SubscriptionName    string    `json:"subscription_name"`
	TransactionID       string    `json:"transaction_id"`
	PreviousPaymentDate time.Time `json:"previous_payment_date"`
	NextPaymentDate     time.Time `json:"next_payment_date"`
}

// ReconcileResult summarises one reconciliation run. Errors holds one entry
// per subscription that could not be reconciled.
type ReconcileResult struct {
	Processed       int               `json:"processed"`
	Updated         int               `json:"updated"`
	PatternsCreated int               `json:"patterns_created"`
	Updates         []ReconcileUpdate `json:"updates"`
	Errors          []string          `json:"errors"`
}

// ReconcilerRepository is the storage the Reconciler needs.
type ReconcilerRepository interface {
	FindActiveSubscriptions(ctx context.Context) ([]models.Subscription, error)
	FindPatternsBySubscription(ctx context.Context, subscriptionID string) ([]models.SubscriptionPattern, error)
	CreateSubscriptionPattern(ctx context.Context, pattern *models.SubscriptionPattern) error
	FindAllTransactions(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, error)
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
	FlagTransactionAsSubscription(ctx context.Context, transactionID, subscriptionID string) error
}

// Reconciler advances subscription payment dates from recent transactions.
type Reconciler struct {
	repo ReconcilerRepository
	now  func() time.Time
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithReconcilerClock replaces time.Now for the look-back window.
func WithReconcilerClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) { r.now = now }
}

// NewReconciler creates a Reconciler.
func NewReconciler(repo ReconcilerRepository, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile processes every active subscription. A subscription without
// patterns gets a default contains pattern and is skipped until the next
// run. Failures are collected per subscription and never stop the run.
func (r *Reconciler) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	subs, err := r.repo.FindActiveSubscriptions(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	from := now.AddDate(0, -ReconcileLookbackMonths, 0)
	expense := models.TransactionTypeExpense
	txs, err := r.repo.FindAllTransactions(ctx, repository.TransactionFilter{
		FromDate: &from,
		ToDate:   &now,
		Type:     &expense,
	})
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{Updates: []ReconcileUpdate{}, Errors: []string{}}
	for i := range subs {
		result.Processed++
		if err := r.reconcileOne(ctx, &subs[i], txs, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", subs[i].Name, err))
		}
	}
	return result, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, sub *models.Subscription, txs []models.Transaction, result *ReconcileResult) error {
	patterns, err := r.repo.FindPatternsBySubscription(ctx, sub.ID)
	if err != nil {
		return err
	}
	if len(patterns) == 0 {
		pattern := PatternSpec{
			Pattern:    strings.ToLower(strings.TrimSpace(sub.Name)),
			Type:       models.PatternTypeContains,
			Confidence: ContainsPatternConfidence,
		}.Model(sub.ID)
		if err := r.repo.CreateSubscriptionPattern(ctx, &pattern); err != nil {
			return err
		}
		result.PatternsCreated++
		return nil
	}

	latest := latestMatch(patterns, txs)
	if latest == nil {
		return nil
	}

	next := sub.AdvanceDate(latest.Date)
	if sameDay(next, sub.NextPaymentDate) {
		return nil
	}

	previous := sub.NextPaymentDate
	sub.NextPaymentDate = next
	if err := r.repo.UpdateSubscription(ctx, sub); err != nil {
		return err
	}
	if err := r.repo.FlagTransactionAsSubscription(ctx, latest.ID, sub.ID); err != nil {
		return err
	}

	result.Updated++
	result.Updates = append(result.Updates, ReconcileUpdate{
		SubscriptionID:      sub.ID,
		SubscriptionName:    sub.Name,
		TransactionID:       latest.ID,
		PreviousPaymentDate: previous,
		NextPaymentDate:     next,
	})
	return nil
}

// latestMatch returns the most recent transaction matched by any active
// pattern. Contains patterns also accept a fuzzy word overlap.
func latestMatch(patterns []models.SubscriptionPattern, txs []models.Transaction) *models.Transaction {
	var latest *models.Transaction
	for i := range txs {
		tx := &txs[i]
		if latest != nil && !tx.Date.After(latest.Date) {
			continue
		}
		for _, p := range patterns {
			if !p.IsActive {
				continue
			}
			if PatternMatches(p, tx.Description) ||
				(p.PatternType == models.PatternTypeContains && matching.FuzzyWordMatch(p.Pattern, tx.Description)) {
				latest = tx
				break
			}
		}
	}
	return latest
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
