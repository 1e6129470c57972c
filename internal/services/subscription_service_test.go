package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/repository"
	"fintrack/internal/subscription"
	"fintrack/internal/testutil"
)

func newSubscriptionService(repo repository.Repository) SubscriptionServicer {
	return NewSubscriptionService(repo, NewAlertService(repo), WithClock(fixedClock))
}

// seedNetflix stores three monthly Netflix charges in a category.
func seedNetflix(t *testing.T, db *gorm.DB, categoryID string) {
	t.Helper()
	testutil.CreateTestExpense(t, db, &categoryID, "NETFLIX.COM", 149, testutil.Date(2026, time.February, 8))
	testutil.CreateTestExpense(t, db, &categoryID, "NETFLIX.COM", 149, testutil.Date(2026, time.March, 10))
	testutil.CreateTestExpense(t, db, &categoryID, "NETFLIX.COM", 149, testutil.Date(2026, time.April, 9))
}

func TestDetectAndConfirmSubscription(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	repo := newTestRepo(db)
	svc := newSubscriptionService(repo)
	cat := testutil.CreateTestCategory(t, db)
	budget := testutil.CreateTestBudget(t, db, cat.ID, 1000, testutil.Date(2026, time.January, 1))
	seedNetflix(t, db, cat.ID)
	testutil.CreateTestExpense(t, db, &cat.ID, "Cinema", 220, testutil.Date(2026, time.April, 20))

	candidates, err := svc.DetectSubscriptions(ctx)
	testutil.AssertNoError(t, err)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.Name != "Netflix Com" || c.BillingFrequency != models.BillingFrequencyMonthly {
		t.Errorf("unexpected candidate %s (%s)", c.Name, c.BillingFrequency)
	}

	sub, err := svc.ConfirmSubscription(ctx, c, ConfirmOverrides{Name: ptr("Netflix")})
	testutil.AssertNoError(t, err)

	t.Run("subscription_created", func(t *testing.T) {
		if sub.Name != "Netflix" {
			t.Errorf("expected overridden name, got %s", sub.Name)
		}
		if sub.CategoryID != cat.ID {
			t.Errorf("expected category from candidate, got %s", sub.CategoryID)
		}
		testutil.AssertDate(t, "start date", testutil.Date(2026, time.February, 8), sub.StartDate)
		testutil.AssertDate(t, "next payment date", testutil.Date(2026, time.May, 9), sub.NextPaymentDate)
		if len(sub.Patterns) != 3 {
			t.Errorf("expected 3 generated patterns, got %d", len(sub.Patterns))
		}
	})

	t.Run("transactions_flagged", func(t *testing.T) {
		txs, err := svc.GetSubscriptionTransactions(ctx, sub.ID)
		testutil.AssertNoError(t, err)
		if len(txs) != 3 {
			t.Errorf("expected 3 flagged transactions, got %d", len(txs))
		}

		again, err := svc.DetectSubscriptions(ctx)
		testutil.AssertNoError(t, err)
		if len(again) != 0 {
			t.Errorf("expected no candidates once confirmed, got %d", len(again))
		}
	})

	t.Run("budget_alerted", func(t *testing.T) {
		added := alertsOfType(t, repo, models.AlertTypeSubscriptionAdded)
		if len(added) != 1 || added[0].BudgetID != budget.ID {
			t.Errorf("expected one subscription added alert on the budget, got %+v", added)
		}
	})

	t.Run("patterns_loaded_with_subscription", func(t *testing.T) {
		loaded, err := svc.GetSubscriptionByID(ctx, sub.ID)
		testutil.AssertNoError(t, err)
		if len(loaded.Patterns) != 3 {
			t.Errorf("expected 3 patterns, got %d", len(loaded.Patterns))
		}
	})
}

func TestConfirmSubscriptionValidation(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newSubscriptionService(newTestRepo(db))

	t.Run("empty_candidate", func(t *testing.T) {
		_, err := svc.ConfirmSubscription(ctx, subscription.Candidate{Name: "Ghost", Amount: 10}, ConfirmOverrides{})
		testutil.AssertAppError(t, err, "EMPTY_CANDIDATE")
	})

	t.Run("category_required", func(t *testing.T) {
		c := subscription.Candidate{
			Name:             "Spotify",
			Amount:           119,
			BillingFrequency: models.BillingFrequencyMonthly,
			MatchingTransactions: []models.Transaction{
				{Date: testutil.Date(2026, time.April, 1), Description: "SPOTIFY", Amount: -119, Type: models.TransactionTypeExpense},
			},
		}
		_, err := svc.ConfirmSubscription(ctx, c, ConfirmOverrides{})
		testutil.AssertAppError(t, err, "CATEGORY_REQUIRED")
	})

	t.Run("unknown_transaction_rolls_back", func(t *testing.T) {
		cat := testutil.CreateTestCategory(t, db)
		known := testutil.CreateTestExpense(t, db, &cat.ID, "HBO MAX", 99, testutil.Date(2026, time.March, 3))
		c := subscription.Candidate{
			Name:             "Hbo Max",
			Amount:           99,
			BillingFrequency: models.BillingFrequencyMonthly,
			CategoryID:       &cat.ID,
			MatchingTransactions: []models.Transaction{
				*known,
				{Base: models.Base{ID: "0190a5f4-0000-7000-8000-0000000000ff"}, Date: testutil.Date(2026, time.April, 3), Description: "HBO MAX", Amount: -99, Type: models.TransactionTypeExpense},
			},
		}

		_, err := svc.ConfirmSubscription(ctx, c, ConfirmOverrides{})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")

		var subs, patterns int64
		db.Model(&models.Subscription{}).Where("name = ?", "Hbo Max").Count(&subs)
		db.Model(&models.SubscriptionPattern{}).Count(&patterns)
		if subs != 0 || patterns != 0 {
			t.Errorf("expected nothing stored, got %d subscriptions and %d patterns", subs, patterns)
		}
		var reloaded models.Transaction
		testutil.AssertNoError(t, db.First(&reloaded, "id = ?", known.ID).Error)
		if reloaded.SubscriptionID != nil {
			t.Errorf("expected transaction to stay unflagged, got %v", *reloaded.SubscriptionID)
		}
	})
}

func TestCreateSubscription(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newSubscriptionService(newTestRepo(db))
		cat := testutil.CreateTestCategory(t, db)

		sub, err := svc.CreateSubscription(ctx, SubscriptionInput{
			Name:             "Gym",
			Amount:           499,
			BillingFrequency: models.BillingFrequencyMonthly,
			CategoryID:       cat.ID,
			StartDate:        testutil.Date(2026, time.May, 2),
		})
		testutil.AssertNoError(t, err)

		if !sub.IsActive {
			t.Error("expected active subscription")
		}
		if sub.Currency != "NOK" {
			t.Errorf("expected default currency, got %s", sub.Currency)
		}
		testutil.AssertDate(t, "next payment date", testutil.Date(2026, time.June, 2), sub.NextPaymentDate)
	})

	t.Run("validation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newSubscriptionService(newTestRepo(db))
		cat := testutil.CreateTestCategory(t, db)

		tests := []struct {
			name string
			in   SubscriptionInput
			code string
		}{
			{
				name: "custom_without_days",
				in:   SubscriptionInput{Name: "Water", Amount: 300, BillingFrequency: models.BillingFrequencyCustom, CategoryID: cat.ID},
				code: "CUSTOM_FREQUENCY_DAYS_REQUIRED",
			},
			{
				name: "unknown_frequency",
				in:   SubscriptionInput{Name: "Odd", Amount: 10, BillingFrequency: "weekly", CategoryID: cat.ID},
				code: "INVALID_BILLING_FREQUENCY",
			},
			{
				name: "missing_category",
				in:   SubscriptionInput{Name: "Nowhere", Amount: 10, BillingFrequency: models.BillingFrequencyMonthly},
				code: "CATEGORY_REQUIRED",
			},
			{
				name: "unknown_category",
				in:   SubscriptionInput{Name: "Lost", Amount: 10, BillingFrequency: models.BillingFrequencyMonthly, CategoryID: "00000000-0000-0000-0000-000000000000"},
				code: "CATEGORY_NOT_FOUND",
			},
			{
				name: "bad_rating",
				in:   SubscriptionInput{Name: "Meh", Amount: 10, BillingFrequency: models.BillingFrequencyMonthly, CategoryID: cat.ID, UsageRating: ptr(7)},
				code: "INVALID_INPUT",
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.CreateSubscription(ctx, tt.in)
				testutil.AssertAppError(t, err, tt.code)
			})
		}
	})

	t.Run("insufficient_budget_alert", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		repo := newTestRepo(db)
		svc := newSubscriptionService(repo)
		cat := testutil.CreateTestCategory(t, db)
		testutil.CreateTestBudget(t, db, cat.ID, 200, testutil.Date(2026, time.January, 1))
		testutil.CreateTestExpense(t, db, &cat.ID, "Cinema", 120, testutil.Date(2026, time.May, 3))

		_, err := svc.CreateSubscription(ctx, SubscriptionInput{
			Name:             "HBO",
			Amount:           99,
			BillingFrequency: models.BillingFrequencyMonthly,
			CategoryID:       cat.ID,
		})
		testutil.AssertNoError(t, err)

		if n := len(alertsOfType(t, repo, models.AlertTypeSubscriptionInsufficientFunds)); n != 1 {
			t.Errorf("expected 1 insufficient budget alert, got %d", n)
		}
	})
}

func TestUpdateSubscription(t *testing.T) {
	ctx := context.Background()

	t.Run("amount_and_frequency_alerts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		repo := newTestRepo(db)
		svc := newSubscriptionService(repo)
		cat := testutil.CreateTestCategory(t, db)
		testutil.CreateTestBudget(t, db, cat.ID, 5000, testutil.Date(2026, time.January, 1))
		sub := testutil.CreateTestSubscription(t, db, cat.ID, "Spotify", 119, testutil.Date(2026, time.June, 1))

		annual := models.BillingFrequencyAnnually
		updated, err := svc.UpdateSubscription(ctx, sub.ID, SubscriptionUpdate{Amount: ptr(1190.0), BillingFrequency: &annual})
		testutil.AssertNoError(t, err)
		testutil.AssertFloat(t, "amount", 1190, updated.Amount)

		if n := len(alertsOfType(t, repo, models.AlertTypeSubscriptionAmountChanged)); n != 1 {
			t.Errorf("expected 1 amount changed alert, got %d", n)
		}
		if n := len(alertsOfType(t, repo, models.AlertTypeSubscriptionFrequencyChanged)); n != 1 {
			t.Errorf("expected 1 frequency changed alert, got %d", n)
		}
	})

	t.Run("category_change_alerts_both_sides", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		repo := newTestRepo(db)
		svc := newSubscriptionService(repo)
		from := testutil.CreateTestCategory(t, db)
		to := testutil.CreateTestCategory(t, db)
		oldBudget := testutil.CreateTestBudget(t, db, from.ID, 5000, testutil.Date(2026, time.January, 1))
		newBudget := testutil.CreateTestBudget(t, db, to.ID, 5000, testutil.Date(2026, time.January, 1))
		sub := testutil.CreateTestSubscription(t, db, from.ID, "Spotify", 119, testutil.Date(2026, time.June, 1))

		_, err := svc.UpdateSubscription(ctx, sub.ID, SubscriptionUpdate{CategoryID: &to.ID})
		testutil.AssertNoError(t, err)

		moved := alertsOfType(t, repo, models.AlertTypeSubscriptionCategoryChanged)
		budgets := map[string]bool{}
		for _, a := range moved {
			budgets[a.BudgetID] = true
		}
		if len(moved) != 2 || !budgets[oldBudget.ID] || !budgets[newBudget.ID] {
			t.Errorf("expected alerts on both budgets, got %+v", moved)
		}
	})

	t.Run("custom_frequency_needs_days", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newSubscriptionService(newTestRepo(db))
		cat := testutil.CreateTestCategory(t, db)
		sub := testutil.CreateTestSubscription(t, db, cat.ID, "Water", 300, testutil.Date(2026, time.June, 1))

		custom := models.BillingFrequencyCustom
		_, err := svc.UpdateSubscription(ctx, sub.ID, SubscriptionUpdate{BillingFrequency: &custom})
		testutil.AssertAppError(t, err, "CUSTOM_FREQUENCY_DAYS_REQUIRED")

		updated, err := svc.UpdateSubscription(ctx, sub.ID, SubscriptionUpdate{BillingFrequency: &custom, CustomFrequencyDays: ptr(14)})
		testutil.AssertNoError(t, err)
		if updated.CustomFrequencyDays == nil || *updated.CustomFrequencyDays != 14 {
			t.Error("expected custom frequency of 14 days")
		}
	})
}

func TestCancelAndDeleteSubscription(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel_detaches", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		repo := newTestRepo(db)
		svc := newSubscriptionService(repo)
		cat := testutil.CreateTestCategory(t, db)
		testutil.CreateTestBudget(t, db, cat.ID, 1000, testutil.Date(2026, time.January, 1))
		sub := testutil.CreateTestSubscription(t, db, cat.ID, "Netflix", 149, testutil.Date(2026, time.June, 9))
		testutil.CreateTestPattern(t, db, sub.ID, "netflix", models.PatternTypeContains, 0.8)
		tx := testutil.CreateTestExpense(t, db, &cat.ID, "NETFLIX.COM", 149, testutil.Date(2026, time.May, 9))
		testutil.AssertNoError(t, repo.FlagTransactionAsSubscription(ctx, tx.ID, sub.ID))

		cancelled, err := svc.CancelSubscription(ctx, sub.ID)
		testutil.AssertNoError(t, err)

		if cancelled.IsActive {
			t.Error("expected subscription to be inactive")
		}
		if cancelled.EndDate == nil || !cancelled.EndDate.Equal(testNow) {
			t.Errorf("expected end date now, got %v", cancelled.EndDate)
		}
		patterns, err := repo.FindPatternsBySubscription(ctx, sub.ID)
		testutil.AssertNoError(t, err)
		if len(patterns) != 0 {
			t.Errorf("expected patterns to be deleted, got %d", len(patterns))
		}
		reloaded, err := repo.FindTransactionByID(ctx, tx.ID)
		testutil.AssertNoError(t, err)
		if reloaded.IsFlagged() {
			t.Error("expected transaction to be unflagged")
		}
		if n := len(alertsOfType(t, repo, models.AlertTypeSubscriptionRemoved)); n != 1 {
			t.Errorf("expected 1 removed alert, got %d", n)
		}

		_, err = svc.CancelSubscription(ctx, sub.ID)
		testutil.AssertNoError(t, err)
		if n := len(alertsOfType(t, repo, models.AlertTypeSubscriptionRemoved)); n != 1 {
			t.Errorf("expected cancelling twice to be a no-op, got %d alerts", n)
		}
	})

	t.Run("delete", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newSubscriptionService(newTestRepo(db))
		cat := testutil.CreateTestCategory(t, db)
		sub := testutil.CreateTestSubscription(t, db, cat.ID, "Netflix", 149, testutil.Date(2026, time.June, 9))

		testutil.AssertNoError(t, svc.DeleteSubscription(ctx, sub.ID))

		_, err := svc.GetSubscriptionByID(ctx, sub.ID)
		testutil.AssertAppError(t, err, "SUBSCRIPTION_NOT_FOUND")

		err = svc.DeleteSubscription(ctx, sub.ID)
		testutil.AssertAppError(t, err, "SUBSCRIPTION_NOT_FOUND")
	})
}

func TestUpcomingAndUnused(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	repo := newTestRepo(db)
	svc := newSubscriptionService(repo)
	cat := testutil.CreateTestCategory(t, db)
	testutil.CreateTestBudget(t, db, cat.ID, 5000, testutil.Date(2026, time.January, 1))

	soon := testutil.CreateTestSubscription(t, db, cat.ID, "Netflix", 149, testutil.Date(2026, time.May, 25))
	testutil.CreateTestSubscription(t, db, cat.ID, "Adobe", 3000, testutil.Date(2026, time.August, 1))

	t.Run("renewals_alert_once", func(t *testing.T) {
		upcoming, err := svc.GetUpcomingRenewals(ctx, 0)
		testutil.AssertNoError(t, err)
		if len(upcoming) != 1 || upcoming[0].ID != soon.ID {
			t.Fatalf("expected only Netflix within 7 days, got %+v", upcoming)
		}

		_, err = svc.GetUpcomingRenewals(ctx, 0)
		testutil.AssertNoError(t, err)
		if n := len(alertsOfType(t, repo, models.AlertTypeSubscriptionRenewal)); n != 1 {
			t.Errorf("expected one renewal alert, got %d", n)
		}
	})

	t.Run("unused", func(t *testing.T) {
		unused, err := svc.GetUnusedSubscriptions(ctx, 0)
		testutil.AssertNoError(t, err)
		if len(unused) != 2 {
			t.Errorf("expected both never-used subscriptions, got %d", len(unused))
		}

		recent := testNow.AddDate(0, 0, -3)
		_, err = svc.UpdateSubscription(ctx, soon.ID, SubscriptionUpdate{LastUsedAt: &recent})
		testutil.AssertNoError(t, err)

		unused, err = svc.GetUnusedSubscriptions(ctx, 30)
		testutil.AssertNoError(t, err)
		if len(unused) != 1 {
			t.Errorf("expected 1 unused subscription, got %d", len(unused))
		}
	})

	t.Run("monthly_cost", func(t *testing.T) {
		total, err := svc.GetMonthlyCost(ctx)
		testutil.AssertNoError(t, err)
		testutil.AssertFloat(t, "monthly cost", 3149, total)
	})
}

func TestMatchTransactions(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	repo := newTestRepo(db)
	svc := newSubscriptionService(repo)
	cat := testutil.CreateTestCategory(t, db)
	sub := testutil.CreateTestSubscription(t, db, cat.ID, "Spotify", 119, testutil.Date(2026, time.June, 1))
	pattern := testutil.CreateTestPattern(t, db, sub.ID, "spotify", models.PatternTypeContains, 0.8)

	testutil.CreateTestExpense(t, db, &cat.ID, "SPOTIFY AB", 119, testutil.Date(2026, time.May, 1))
	testutil.CreateTestExpense(t, db, &cat.ID, "REMA 1000", 312, testutil.Date(2026, time.May, 2))
	testutil.CreateTestExpense(t, db, &cat.ID, "SPOTIFY AB", 119, testutil.Date(2025, time.June, 1))

	matches, err := svc.MatchTransactions(ctx)
	testutil.AssertNoError(t, err)
	if len(matches) != 1 {
		t.Fatalf("expected 1 recent match, got %d", len(matches))
	}
	if matches[0].Subscription.ID != sub.ID || matches[0].Pattern.ID != pattern.ID {
		t.Errorf("unexpected match %+v", matches[0])
	}

	updated, err := svc.RecordPatternFeedback(ctx, pattern.ID, false)
	testutil.AssertNoError(t, err)
	testutil.AssertFloat(t, "confidence", 0.75, updated.ConfidenceScore)
	if updated.MatchCount != 1 || updated.CorrectCount != 0 {
		t.Errorf("expected 1 match and 0 correct, got %d/%d", updated.MatchCount, updated.CorrectCount)
	}

	_, err = svc.RecordPatternFeedback(ctx, "00000000-0000-0000-0000-000000000000", true)
	testutil.AssertAppError(t, err, "PATTERN_NOT_FOUND")
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	repo := newTestRepo(db)
	svc := newSubscriptionService(repo)
	cat := testutil.CreateTestCategory(t, db)
	sub := testutil.CreateTestSubscription(t, db, cat.ID, "Spotify", 119, testutil.Date(2026, time.April, 1))
	testutil.CreateTestPattern(t, db, sub.ID, "spotify", models.PatternTypeContains, 0.8)
	tx := testutil.CreateTestExpense(t, db, &cat.ID, "SPOTIFY AB", 119, testutil.Date(2026, time.May, 1))

	result, err := svc.Reconcile(ctx)
	testutil.AssertNoError(t, err)
	if result.Processed != 1 || result.Updated != 1 {
		t.Fatalf("expected 1 processed and updated, got %d/%d", result.Processed, result.Updated)
	}

	reloaded, err := svc.GetSubscriptionByID(ctx, sub.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDate(t, "next payment date", testutil.Date(2026, time.June, 1), reloaded.NextPaymentDate)
	flagged, err := repo.FindTransactionByID(ctx, tx.ID)
	testutil.AssertNoError(t, err)
	if !flagged.IsFlagged() {
		t.Error("expected matched transaction to be flagged")
	}
}

func TestAddPattern(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newSubscriptionService(newTestRepo(db))
	cat := testutil.CreateTestCategory(t, db)
	sub := testutil.CreateTestSubscription(t, db, cat.ID, "Spotify", 119, testutil.Date(2026, time.June, 1))

	t.Run("user_pattern", func(t *testing.T) {
		p, err := svc.AddPattern(ctx, sub.ID, "  ^spotify\\s+ab$ ", models.PatternTypeRegex)
		testutil.AssertNoError(t, err)
		if p.Pattern != "^spotify\\s+ab$" || p.CreatedBy != models.PatternCreatedByUser {
			t.Errorf("unexpected pattern %+v", p)
		}
		testutil.AssertFloat(t, "confidence", UserPatternConfidence, p.ConfidenceScore)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.AddPattern(ctx, sub.ID, "  ", models.PatternTypeContains)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.AddPattern(ctx, sub.ID, "spotify(", models.PatternTypeRegex)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.AddPattern(ctx, sub.ID, "spotify", "fuzzy")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.AddPattern(ctx, "00000000-0000-0000-0000-000000000000", "spotify", models.PatternTypeContains)
		testutil.AssertAppError(t, err, "SUBSCRIPTION_NOT_FOUND")
	})
}
