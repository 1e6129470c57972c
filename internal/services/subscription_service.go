package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/matching"
	"fintrack/internal/models"
	"fintrack/internal/repository"
	"fintrack/internal/subscription"
)

// DefaultUnusedDays is the idle period after which a subscription counts as unused.
const DefaultUnusedDays = 60

// UserPatternConfidence is the starting confidence of a hand-written pattern.
const UserPatternConfidence = 0.9

// subscriptionService handles subscription detection, confirmation and
// lifecycle. Lifecycle events raise alerts on the budgets of the
// subscription's category.
type subscriptionService struct {
	repo       repository.Repository
	alerts     AlertServicer
	detector   *subscription.Detector
	matcher    *subscription.Matcher
	reconciler *subscription.Reconciler
	opts       options
}

// NewSubscriptionService creates a new SubscriptionServicer.
func NewSubscriptionService(repo repository.Repository, alerts AlertServicer, opts ...Option) SubscriptionServicer {
	o := newOptions(opts)
	return &subscriptionService{
		repo:       repo,
		alerts:     alerts,
		detector:   subscription.NewDetector(o.defaultCurrency, subscription.WithDetectorClock(o.now)),
		matcher:    subscription.NewMatcher(repo),
		reconciler: subscription.NewReconciler(repo, subscription.WithReconcilerClock(o.now)),
		opts:       o,
	}
}

func validateFrequency(freq models.BillingFrequency, customDays *int) error {
	if !freq.Valid() {
		return apperrors.ErrInvalidBillingFrequency
	}
	if freq == models.BillingFrequencyCustom && (customDays == nil || *customDays <= 0) {
		return apperrors.ErrCustomFrequencyDays
	}
	return nil
}

func validateSubscription(sub *models.Subscription) error {
	if strings.TrimSpace(sub.Name) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "subscription name is required")
	}
	if sub.Amount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if err := validateFrequency(sub.BillingFrequency, sub.CustomFrequencyDays); err != nil {
		return err
	}
	if sub.CategoryID == "" {
		return apperrors.ErrCategoryRequired
	}
	if sub.EndDate != nil && sub.EndDate.Before(sub.StartDate) {
		return apperrors.ErrInvalidDateRange
	}
	if sub.UsageRating != nil && (*sub.UsageRating < 1 || *sub.UsageRating > 5) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "usage rating must be between 1 and 5")
	}
	return nil
}

// unflaggedExpenses returns expenses not yet linked to a subscription,
// optionally since from.
func (s *subscriptionService) unflaggedExpenses(ctx context.Context, from *time.Time) ([]models.Transaction, error) {
	expense := models.TransactionTypeExpense
	txs, err := s.repo.FindAllTransactions(ctx, repository.TransactionFilter{FromDate: from, Type: &expense})
	if err != nil {
		return nil, err
	}
	out := txs[:0]
	for _, tx := range txs {
		if !tx.IsFlagged() {
			out = append(out, tx)
		}
	}
	return out, nil
}

// DetectSubscriptions proposes candidates from the unflagged expenses.
func (s *subscriptionService) DetectSubscriptions(ctx context.Context) ([]subscription.Candidate, error) {
	txs, err := s.unflaggedExpenses(ctx, nil)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindActiveSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	return s.detector.DetectSubscriptions(txs, existing), nil
}

// AnalyzeRecurringPatterns returns every recurring group among the
// unflagged expenses, without filtering.
func (s *subscriptionService) AnalyzeRecurringPatterns(ctx context.Context) ([]subscription.RecurringPattern, error) {
	txs, err := s.unflaggedExpenses(ctx, nil)
	if err != nil {
		return nil, err
	}
	return s.detector.AnalyzeRecurringPatterns(txs), nil
}

// ConfirmSubscription turns a detected candidate into a subscription, stores
// the patterns generated from its descriptions and flags its transactions.
func (s *subscriptionService) ConfirmSubscription(ctx context.Context, c subscription.Candidate, overrides ConfirmOverrides) (*models.Subscription, error) {
	if len(c.MatchingTransactions) == 0 {
		return nil, apperrors.Prefix("Failed to confirm subscription", apperrors.ErrEmptyCandidate)
	}

	first, last := c.MatchingTransactions[0].Date, c.MatchingTransactions[0].Date
	for _, tx := range c.MatchingTransactions[1:] {
		if tx.Date.Before(first) {
			first = tx.Date
		}
		if tx.Date.After(last) {
			last = tx.Date
		}
	}

	sub := &models.Subscription{
		Name:             c.Name,
		Amount:           c.Amount,
		Currency:         c.Currency,
		BillingFrequency: c.BillingFrequency,
		IsActive:         true,
		StartDate:        first,
		Notes:            overrides.Notes,
	}
	if c.CategoryID != nil {
		sub.CategoryID = *c.CategoryID
	}
	if overrides.Name != nil {
		sub.Name = strings.TrimSpace(*overrides.Name)
	}
	if overrides.Amount != nil {
		sub.Amount = *overrides.Amount
	}
	if overrides.CategoryID != nil {
		sub.CategoryID = *overrides.CategoryID
	}
	if sub.Currency == "" {
		sub.Currency = s.opts.defaultCurrency
	}
	sub.NextPaymentDate = sub.AdvanceDate(last)
	if overrides.NextPaymentDate != nil {
		sub.NextPaymentDate = *overrides.NextPaymentDate
	}

	if err := validateSubscription(sub); err != nil {
		return nil, apperrors.Prefix("Failed to confirm subscription", err)
	}
	if _, err := s.repo.GetCategoryByID(ctx, sub.CategoryID); err != nil {
		return nil, apperrors.Prefix("Failed to confirm subscription", err)
	}
	err := s.repo.WithinTransaction(ctx, func(repo repository.Repository) error {
		if err := repo.CreateSubscription(ctx, sub); err != nil {
			return err
		}
		for _, spec := range subscription.CreatePatternsForCandidate(c) {
			pattern := spec.Model(sub.ID)
			if err := repo.CreateSubscriptionPattern(ctx, &pattern); err != nil {
				return err
			}
			sub.Patterns = append(sub.Patterns, pattern)
		}
		for _, tx := range c.MatchingTransactions {
			if tx.ID == "" {
				continue
			}
			if err := repo.FlagTransactionAsSubscription(ctx, tx.ID, sub.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Prefix("Failed to confirm subscription", err)
	}

	s.notifyAdded(ctx, sub)
	return sub, nil
}

// CreateSubscription stores a hand-made subscription.
func (s *subscriptionService) CreateSubscription(ctx context.Context, in SubscriptionInput) (*models.Subscription, error) {
	now := s.opts.now()
	sub := &models.Subscription{
		Name:                strings.TrimSpace(in.Name),
		Amount:              in.Amount,
		Currency:            strings.ToUpper(in.Currency),
		BillingFrequency:    in.BillingFrequency,
		CustomFrequencyDays: in.CustomFrequencyDays,
		NextPaymentDate:     in.NextPaymentDate,
		CategoryID:          in.CategoryID,
		IsActive:            true,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		UsageRating:         in.UsageRating,
		Notes:               in.Notes,
	}
	if sub.Currency == "" {
		sub.Currency = s.opts.defaultCurrency
	}
	if sub.StartDate.IsZero() {
		sub.StartDate = now
	}
	if err := validateSubscription(sub); err != nil {
		return nil, apperrors.Prefix("Failed to create subscription", err)
	}
	if sub.NextPaymentDate.IsZero() {
		sub.NextPaymentDate = sub.AdvanceDate(sub.StartDate)
	}
	if _, err := s.repo.GetCategoryByID(ctx, sub.CategoryID); err != nil {
		return nil, apperrors.Prefix("Failed to create subscription", err)
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, apperrors.Prefix("Failed to create subscription", err)
	}

	s.notifyAdded(ctx, sub)
	return sub, nil
}

// GetSubscriptions returns every subscription ordered by name.
func (s *subscriptionService) GetSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	return s.repo.FindAllSubscriptions(ctx)
}

// GetSubscriptionByID returns a subscription with its patterns.
func (s *subscriptionService) GetSubscriptionByID(ctx context.Context, id string) (*models.Subscription, error) {
	sub, err := s.repo.FindSubscriptionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patterns, err := s.repo.FindPatternsBySubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	sub.Patterns = patterns
	return sub, nil
}

// UpdateSubscription applies the non-nil fields of update and alerts the
// affected budgets about category, amount and frequency changes.
func (s *subscriptionService) UpdateSubscription(ctx context.Context, id string, update SubscriptionUpdate) (*models.Subscription, error) {
	sub, err := s.repo.FindSubscriptionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *sub

	if update.Name != nil {
		sub.Name = strings.TrimSpace(*update.Name)
	}
	if update.Amount != nil {
		sub.Amount = *update.Amount
	}
	if update.BillingFrequency != nil {
		sub.BillingFrequency = *update.BillingFrequency
	}
	if update.CustomFrequencyDays != nil {
		sub.CustomFrequencyDays = update.CustomFrequencyDays
	}
	if update.NextPaymentDate != nil {
		sub.NextPaymentDate = *update.NextPaymentDate
	}
	if update.CategoryID != nil {
		sub.CategoryID = *update.CategoryID
	}
	if update.IsActive != nil {
		sub.IsActive = *update.IsActive
	}
	if update.EndDate != nil {
		sub.EndDate = update.EndDate
	}
	if update.UsageRating != nil {
		sub.UsageRating = update.UsageRating
	}
	if update.LastUsedAt != nil {
		sub.LastUsedAt = update.LastUsedAt
	}
	if update.Notes != nil {
		sub.Notes = *update.Notes
	}

	if err := validateSubscription(sub); err != nil {
		return nil, apperrors.Prefix("Failed to update subscription", err)
	}
	if sub.CategoryID != before.CategoryID {
		if _, err := s.repo.GetCategoryByID(ctx, sub.CategoryID); err != nil {
			return nil, apperrors.Prefix("Failed to update subscription", err)
		}
	}
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, apperrors.Prefix("Failed to update subscription", err)
	}

	s.notifyChanges(ctx, &before, sub)
	return sub, nil
}

// detach unflags the subscription's transactions and deletes its patterns.
func (s *subscriptionService) detach(ctx context.Context, sub *models.Subscription) error {
	txs, err := s.repo.FindSubscriptionTransactions(ctx, sub.ID)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if err := s.repo.UnflagTransactionAsSubscription(ctx, tx.ID); err != nil {
			return err
		}
	}
	patterns, err := s.repo.FindPatternsBySubscription(ctx, sub.ID)
	if err != nil {
		return err
	}
	for _, p := range patterns {
		if err := s.repo.DeleteSubscriptionPattern(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteSubscription removes a subscription together with its patterns and
// transaction flags.
func (s *subscriptionService) DeleteSubscription(ctx context.Context, id string) error {
	sub, err := s.repo.FindSubscriptionByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.detach(ctx, sub); err != nil {
		return apperrors.Prefix("Failed to delete subscription", err)
	}
	if err := s.repo.DeleteSubscription(ctx, id); err != nil {
		return apperrors.Prefix("Failed to delete subscription", err)
	}
	if sub.IsActive {
		s.notifyRemoved(ctx, sub)
	}
	return nil
}

// CancelSubscription deactivates a subscription as of today. Its patterns
// are deleted and its transactions unflagged. Cancelling an inactive
// subscription is a no-op.
func (s *subscriptionService) CancelSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	sub, err := s.repo.FindSubscriptionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive {
		return sub, nil
	}

	now := s.opts.now()
	sub.IsActive = false
	if sub.EndDate == nil || sub.EndDate.After(now) {
		sub.EndDate = &now
	}
	if err := s.detach(ctx, sub); err != nil {
		return nil, apperrors.Prefix("Failed to cancel subscription", err)
	}
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, apperrors.Prefix("Failed to cancel subscription", err)
	}

	s.notifyRemoved(ctx, sub)
	return sub, nil
}

// GetSubscriptionTransactions returns the transactions flagged for a subscription.
func (s *subscriptionService) GetSubscriptionTransactions(ctx context.Context, id string) ([]models.Transaction, error) {
	if _, err := s.repo.FindSubscriptionByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.FindSubscriptionTransactions(ctx, id)
}

// GetUpcomingRenewals returns the active subscriptions due within days days
// and raises one renewal alert per payment on the budgets of their category.
func (s *subscriptionService) GetUpcomingRenewals(ctx context.Context, days int) ([]models.Subscription, error) {
	if days <= 0 {
		days = s.opts.lookaheadDays
	}
	subs, err := s.repo.FindUpcomingPayments(ctx, days)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		s.notifyRenewal(ctx, &subs[i], days)
	}
	return subs, nil
}

// GetUnusedSubscriptions returns the active subscriptions not used within days days.
func (s *subscriptionService) GetUnusedSubscriptions(ctx context.Context, days int) ([]models.Subscription, error) {
	if days <= 0 {
		days = DefaultUnusedDays
	}
	return s.repo.FindUnusedSubscriptions(ctx, days)
}

// GetMonthlyCost totals the monthly cost of all active subscriptions.
func (s *subscriptionService) GetMonthlyCost(ctx context.Context) (float64, error) {
	total, err := s.repo.CalculateTotalMonthlyCost(ctx)
	if err != nil {
		return 0, err
	}
	return matching.RoundCents(total), nil
}

// MatchTransactions scores the recent unflagged expenses against the
// patterns of the active subscriptions.
func (s *subscriptionService) MatchTransactions(ctx context.Context) ([]subscription.Match, error) {
	from := s.opts.now().AddDate(0, -subscription.ReconcileLookbackMonths, 0)
	txs, err := s.unflaggedExpenses(ctx, &from)
	if err != nil {
		return nil, err
	}
	matches, err := s.matcher.MatchExistingSubscriptions(ctx, txs)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []subscription.Match{}
	}
	return matches, nil
}

// RecordPatternFeedback adjusts a pattern's confidence after the user
// accepted or rejected one of its matches.
func (s *subscriptionService) RecordPatternFeedback(ctx context.Context, patternID string, wasCorrect bool) (*models.SubscriptionPattern, error) {
	return s.matcher.UpdatePatternConfidence(ctx, patternID, wasCorrect)
}

// AddPattern attaches a user-written pattern to a subscription. Regex
// patterns must compile.
func (s *subscriptionService) AddPattern(ctx context.Context, subscriptionID, pattern string, patternType models.PatternType) (*models.SubscriptionPattern, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "pattern is required")
	}
	if !patternType.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("unsupported pattern type %q", patternType))
	}
	if patternType == models.PatternTypeRegex {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid regex: "+err.Error())
		}
	}

	if _, err := s.repo.FindSubscriptionByID(ctx, subscriptionID); err != nil {
		return nil, err
	}

	p := &models.SubscriptionPattern{
		SubscriptionID:  subscriptionID,
		Pattern:         pattern,
		PatternType:     patternType,
		ConfidenceScore: UserPatternConfidence,
		CreatedBy:       models.PatternCreatedByUser,
		IsActive:        true,
	}
	if err := s.repo.CreateSubscriptionPattern(ctx, p); err != nil {
		return nil, apperrors.Prefix("Failed to create pattern", err)
	}
	return p, nil
}

// Reconcile advances the next payment dates from matched transactions.
func (s *subscriptionService) Reconcile(ctx context.Context) (*subscription.ReconcileResult, error) {
	result, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		logger.Get().Warnw("subscription reconciliation failed", "error", msg)
	}
	return result, nil
}

func describeCost(sub *models.Subscription) string {
	return fmt.Sprintf("%s %s %s", matching.FormatMoney(sub.Amount), sub.Currency, sub.BillingFrequency)
}

func (s *subscriptionService) notifyAdded(ctx context.Context, sub *models.Subscription) {
	s.alerts.RaiseForCategory(ctx, sub.CategoryID, models.AlertTypeSubscriptionAdded,
		fmt.Sprintf("Subscription %q added (%s)", sub.Name, describeCost(sub)))
	s.checkBudgetCapacity(ctx, sub)
}

func (s *subscriptionService) notifyRemoved(ctx context.Context, sub *models.Subscription) {
	s.alerts.RaiseForCategory(ctx, sub.CategoryID, models.AlertTypeSubscriptionRemoved,
		fmt.Sprintf("Subscription %q removed, freeing %s per month", sub.Name, matching.FormatMoney(sub.MonthlyCost())))
}

func (s *subscriptionService) notifyChanges(ctx context.Context, before, after *models.Subscription) {
	if before.IsActive && !after.IsActive {
		s.notifyRemoved(ctx, after)
		return
	}
	if !after.IsActive {
		return
	}

	if before.CategoryID != after.CategoryID {
		s.alerts.RaiseForCategory(ctx, before.CategoryID, models.AlertTypeSubscriptionCategoryChanged,
			fmt.Sprintf("Subscription %q moved to another category", after.Name))
		s.alerts.RaiseForCategory(ctx, after.CategoryID, models.AlertTypeSubscriptionCategoryChanged,
			fmt.Sprintf("Subscription %q moved into this category (%s)", after.Name, describeCost(after)))
	}
	if before.Amount != after.Amount {
		s.alerts.RaiseForCategory(ctx, after.CategoryID, models.AlertTypeSubscriptionAmountChanged,
			fmt.Sprintf("Subscription %q changed from %s to %s", after.Name,
				matching.FormatMoney(before.Amount), matching.FormatMoney(after.Amount)))
	}
	if before.BillingFrequency != after.BillingFrequency {
		s.alerts.RaiseForCategory(ctx, after.CategoryID, models.AlertTypeSubscriptionFrequencyChanged,
			fmt.Sprintf("Subscription %q now bills %s instead of %s", after.Name, after.BillingFrequency, before.BillingFrequency))
	}
	if before.CategoryID != after.CategoryID || after.MonthlyCost() > before.MonthlyCost() {
		s.checkBudgetCapacity(ctx, after)
	}
}

// checkBudgetCapacity raises an alert on every budget of the subscription's
// category whose remaining amount cannot cover its monthly cost.
func (s *subscriptionService) checkBudgetCapacity(ctx context.Context, sub *models.Subscription) {
	budgets, err := s.repo.FindBudgetsByCategory(ctx, sub.CategoryID)
	if err != nil {
		logger.Get().Errorw("failed to load budgets for capacity check", "error", err, "subscription_id", sub.ID)
		return
	}
	now := s.opts.now()
	monthly := sub.MonthlyCost()
	for i := range budgets {
		b := &budgets[i]
		p, err := progressFor(ctx, s.repo, b, now)
		if err != nil {
			logger.Get().Errorw("failed to compute budget progress", "error", err, "budget_id", b.ID)
			continue
		}
		if monthly <= p.RemainingAmount {
			continue
		}
		s.alerts.Raise(ctx, b.ID, models.AlertTypeSubscriptionInsufficientFunds, nil,
			fmt.Sprintf("Budget %q has %s left, not enough for %q at %s per month",
				b.Name, matching.FormatMoney(p.RemainingAmount), sub.Name, matching.FormatMoney(monthly)))
	}
}

// notifyRenewal raises a renewal alert unless the same payment was already
// announced within the look-ahead window.
func (s *subscriptionService) notifyRenewal(ctx context.Context, sub *models.Subscription, days int) {
	budgets, err := s.repo.FindBudgetsByCategory(ctx, sub.CategoryID)
	if err != nil {
		logger.Get().Errorw("failed to load budgets for renewal alert", "error", err, "subscription_id", sub.ID)
		return
	}
	msg := fmt.Sprintf("Subscription %q renews on %s (%s)",
		sub.Name, sub.NextPaymentDate.Format("2006-01-02"), describeCost(sub))
	since := s.opts.now().AddDate(0, 0, -days)
	for i := range budgets {
		existing, err := s.repo.FindBudgetAlertsSince(ctx, budgets[i].ID, models.AlertTypeSubscriptionRenewal, since)
		if err != nil {
			logger.Get().Errorw("failed to load renewal alerts", "error", err, "budget_id", budgets[i].ID, "subscription_id", sub.ID)
			continue
		}
		announced := false
		for _, a := range existing {
			if a.Message == msg {
				announced = true
				break
			}
		}
		if !announced {
			s.alerts.Raise(ctx, budgets[i].ID, models.AlertTypeSubscriptionRenewal, nil, msg)
		}
	}
}
