package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/projection"
	"fintrack/internal/testutil"
)

func TestProjectionService(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewProjectionService(newTestRepo(db), projection.NewEngine(projection.DefaultConfig()))
	cat := testutil.CreateTestCategory(t, db)
	sub := testutil.CreateTestSubscription(t, db, cat.ID, "Netflix", 149, testutil.Date(2026, time.June, 9))

	t.Run("compound_returns", func(t *testing.T) {
		zero := 0.0
		got := svc.CompoundReturns(100, 1, projection.Options{AnnualReturnRate: &zero})
		testutil.AssertFloat(t, "future value", 1200, got)

		if svc.CompoundReturns(100, 10, projection.Options{}) <= 12000 {
			t.Error("expected positive returns to beat the amount paid in")
		}
	})

	t.Run("stored_subscription", func(t *testing.T) {
		c, err := svc.CompareSubscription(ctx, sub.ID, projection.Options{})
		testutil.AssertNoError(t, err)

		if c.SubscriptionID != sub.ID || c.Name != "Netflix" {
			t.Errorf("unexpected comparison subject %s/%s", c.SubscriptionID, c.Name)
		}
		testutil.AssertFloat(t, "monthly cost", 149, c.MonthlyCost)
		if len(c.Projections) != len(projection.Horizons) {
			t.Errorf("expected %d horizons, got %d", len(projection.Horizons), len(c.Projections))
		}
		if c.Recommendation == "" || c.Reason == "" {
			t.Error("expected a recommendation with a reason")
		}
	})

	t.Run("unknown_subscription", func(t *testing.T) {
		_, err := svc.CompareSubscription(ctx, "00000000-0000-0000-0000-000000000000", projection.Options{})
		testutil.AssertAppError(t, err, "SUBSCRIPTION_NOT_FOUND")
	})

	t.Run("ad_hoc_cost", func(t *testing.T) {
		c, err := svc.CompareCost("", 1200, models.BillingFrequencyAnnually, nil, projection.Options{})
		testutil.AssertNoError(t, err)
		testutil.AssertFloat(t, "monthly cost", 100, c.MonthlyCost)
		if c.Name != "Recurring cost" {
			t.Errorf("expected default name, got %s", c.Name)
		}

		_, err = svc.CompareCost("Water", 300, models.BillingFrequencyCustom, nil, projection.Options{})
		testutil.AssertAppError(t, err, "CUSTOM_FREQUENCY_DAYS_REQUIRED")

		_, err = svc.CompareCost("Free", 0, models.BillingFrequencyMonthly, nil, projection.Options{})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
