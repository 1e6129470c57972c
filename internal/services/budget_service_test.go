package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/models"
	"fintrack/internal/repository"
	"fintrack/internal/testutil"
)

func newBudgetService(repo repository.Repository) BudgetServicer {
	return NewBudgetService(repo, NewAlertService(repo), WithClock(fixedClock))
}

func TestCreateBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetService(newTestRepo(db))
		cat := testutil.CreateTestCategory(t, db)

		budget, err := svc.CreateBudget(ctx, BudgetInput{
			CategoryID: cat.ID,
			Name:       "Groceries",
			Amount:     5000,
			Period:     models.BudgetPeriodMonthly,
			StartDate:  testutil.Date(2026, time.January, 1),
		})
		testutil.AssertNoError(t, err)

		if budget.ID == "" {
			t.Fatal("expected budget ID to be set")
		}
		if !budget.IsActive {
			t.Error("expected budget to be active")
		}
		if budget.Currency != "NOK" {
			t.Errorf("expected default currency NOK, got %s", budget.Currency)
		}
		if len(budget.AlertThresholds) != 3 || budget.AlertThresholds[0] != 50 || budget.AlertThresholds[2] != 100 {
			t.Errorf("expected default thresholds [50 80 100], got %v", budget.AlertThresholds)
		}
		if budget.EndDate != nil {
			t.Error("expected indefinite budget")
		}
	})

	t.Run("defaults_start_to_current_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetService(newTestRepo(db))
		cat := testutil.CreateTestCategory(t, db)

		budget, err := svc.CreateBudget(ctx, BudgetInput{CategoryID: cat.ID, Name: "Fun", Amount: 800})
		testutil.AssertNoError(t, err)
		testutil.AssertDate(t, "start date", testutil.Date(2026, time.May, 1), budget.StartDate)
		if budget.Period != models.BudgetPeriodMonthly {
			t.Errorf("expected monthly, got %s", budget.Period)
		}
	})

	t.Run("invalid_date_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetService(newTestRepo(db))
		cat := testutil.CreateTestCategory(t, db)

		end := testutil.Date(2026, time.January, 1)
		_, err := svc.CreateBudget(ctx, BudgetInput{
			CategoryID: cat.ID,
			Name:       "Backwards",
			Amount:     100,
			StartDate:  testutil.Date(2026, time.March, 1),
			EndDate:    &end,
		})
		testutil.AssertAppError(t, err, "INVALID_DATE_RANGE")
		if !strings.HasPrefix(err.Error(), "Failed to create budget: ") {
			t.Errorf("expected prefixed message, got %q", err.Error())
		}
	})

	t.Run("invalid_thresholds", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetService(newTestRepo(db))
		cat := testutil.CreateTestCategory(t, db)

		_, err := svc.CreateBudget(ctx, BudgetInput{
			CategoryID:      cat.ID,
			Name:            "Unordered",
			Amount:          100,
			AlertThresholds: []float64{80, 50},
		})
		testutil.AssertAppError(t, err, "INVALID_ALERT_THRESHOLDS")
	})

	t.Run("invalid_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetService(newTestRepo(db))
		cat := testutil.CreateTestCategory(t, db)

		_, err := svc.CreateBudget(ctx, BudgetInput{CategoryID: cat.ID, Name: "Nothing", Amount: 0})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetService(newTestRepo(db))

		_, err := svc.CreateBudget(ctx, BudgetInput{CategoryID: "00000000-0000-0000-0000-000000000000", Name: "Lost", Amount: 100})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")

		_, err = svc.CreateBudget(ctx, BudgetInput{Name: "None", Amount: 100})
		testutil.AssertAppError(t, err, "CATEGORY_REQUIRED")
	})

	t.Run("unknown_scenario", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetService(newTestRepo(db))
		cat := testutil.CreateTestCategory(t, db)

		_, err := svc.CreateBudget(ctx, BudgetInput{
			CategoryID: cat.ID,
			Name:       "Plan B",
			Amount:     100,
			ScenarioID: ptr("00000000-0000-0000-0000-000000000000"),
		})
		testutil.AssertAppError(t, err, "SCENARIO_NOT_FOUND")
	})
}

func TestUpdateBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("partial_update", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetService(newTestRepo(db))
		cat := testutil.CreateTestCategory(t, db)
		budget := testutil.CreateTestBudget(t, db, cat.ID, 1000, testutil.Date(2026, time.January, 1))

		end := testutil.Date(2026, time.December, 31)
		updated, err := svc.UpdateBudget(ctx, budget.ID, BudgetUpdate{Amount: ptr(1500.0), EndDate: &end})
		testutil.AssertNoError(t, err)
		testutil.AssertFloat(t, "amount", 1500, updated.Amount)
		if updated.EndDate == nil {
			t.Fatal("expected end date to be set")
		}

		cleared, err := svc.UpdateBudget(ctx, budget.ID, BudgetUpdate{ClearEndDate: true})
		testutil.AssertNoError(t, err)
		if cleared.EndDate != nil {
			t.Error("expected end date to be cleared")
		}

		reloaded, err := svc.GetBudgetByID(ctx, budget.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertFloat(t, "stored amount", 1500, reloaded.Amount)
	})

	t.Run("invalid_end_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetService(newTestRepo(db))
		cat := testutil.CreateTestCategory(t, db)
		budget := testutil.CreateTestBudget(t, db, cat.ID, 1000, testutil.Date(2026, time.March, 1))

		end := testutil.Date(2026, time.February, 1)
		_, err := svc.UpdateBudget(ctx, budget.ID, BudgetUpdate{EndDate: &end})
		testutil.AssertAppError(t, err, "INVALID_DATE_RANGE")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetService(newTestRepo(db))

		_, err := svc.UpdateBudget(ctx, "00000000-0000-0000-0000-000000000000", BudgetUpdate{Amount: ptr(10.0)})
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestDeleteBudget(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newBudgetService(newTestRepo(db))
	cat := testutil.CreateTestCategory(t, db)
	budget := testutil.CreateTestBudget(t, db, cat.ID, 1000, testutil.Date(2026, time.January, 1))

	testutil.AssertNoError(t, svc.DeleteBudget(ctx, budget.ID))

	_, err := svc.GetBudgetByID(ctx, budget.ID)
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")

	err = svc.DeleteBudget(ctx, budget.ID)
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
}

func TestGetBudgetProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("progress_and_alerts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		repo := newTestRepo(db)
		svc := newBudgetService(repo)
		cat := testutil.CreateTestCategory(t, db)
		budget := testutil.CreateTestBudget(t, db, cat.ID, 1000, testutil.Date(2026, time.January, 1))

		testutil.CreateTestExpense(t, db, &cat.ID, "Kiwi", 450, testutil.Date(2026, time.May, 5))
		testutil.CreateTestExpense(t, db, &cat.ID, "Rema", 200, testutil.Date(2026, time.May, 15))
		testutil.CreateTestExpense(t, db, &cat.ID, "Meny", 999, testutil.Date(2026, time.April, 28))

		p, err := svc.GetBudgetProgress(ctx, budget.ID)
		testutil.AssertNoError(t, err)

		testutil.AssertFloat(t, "spent", 650, p.CurrentSpent)
		testutil.AssertFloat(t, "percentage", 65, p.PercentageSpent)
		testutil.AssertFloat(t, "remaining", 350, p.RemainingAmount)
		testutil.AssertFloat(t, "average daily", 32.5, p.AverageDailySpend)
		testutil.AssertFloat(t, "projected", 1007.5, p.ProjectedSpent)
		if p.DaysElapsed != 20 || p.DaysRemaining != 11 {
			t.Errorf("expected 20 days elapsed and 11 remaining, got %d and %d", p.DaysElapsed, p.DaysRemaining)
		}
		if p.Status != analytics.StatusAtRisk {
			t.Errorf("expected at-risk from projection, got %s", p.Status)
		}

		thresholds := alertsOfType(t, repo, models.AlertTypeThreshold)
		if len(thresholds) != 1 || thresholds[0].ThresholdPercentage == nil || *thresholds[0].ThresholdPercentage != 50 {
			t.Fatalf("expected a single 50%% threshold alert, got %+v", thresholds)
		}
		if n := len(alertsOfType(t, repo, models.AlertTypeProjection)); n != 1 {
			t.Errorf("expected 1 projection alert, got %d", n)
		}

		// A second check in the same period raises nothing new.
		_, err = svc.GetBudgetProgress(ctx, budget.ID)
		testutil.AssertNoError(t, err)
		if n := len(alertsOfType(t, repo, models.AlertTypeThreshold)); n != 1 {
			t.Errorf("expected threshold alerts to be de-duplicated, got %d", n)
		}
		if n := len(alertsOfType(t, repo, models.AlertTypeProjection)); n != 1 {
			t.Errorf("expected projection alert to be de-duplicated, got %d", n)
		}
	})

	t.Run("subscription_share", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		repo := newTestRepo(db)
		svc := newBudgetService(repo)
		cat := testutil.CreateTestCategory(t, db)
		budget := testutil.CreateTestBudget(t, db, cat.ID, 1000, testutil.Date(2026, time.January, 1))
		sub := testutil.CreateTestSubscription(t, db, cat.ID, "Netflix", 149, testutil.Date(2026, time.June, 9))

		flagged := testutil.CreateTestExpense(t, db, &cat.ID, "NETFLIX.COM", 149, testutil.Date(2026, time.May, 9))
		testutil.CreateTestExpense(t, db, &cat.ID, "Cinema", 100, testutil.Date(2026, time.May, 10))
		testutil.AssertNoError(t, repo.FlagTransactionAsSubscription(ctx, flagged.ID, sub.ID))

		p, err := svc.GetBudgetProgress(ctx, budget.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertFloat(t, "spent", 249, p.CurrentSpent)
		testutil.AssertFloat(t, "variable", 100, p.VariableSpent)
		testutil.AssertFloat(t, "allocated", 149, p.SubscriptionAllocated)
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newBudgetService(newTestRepo(db))

		_, err := svc.GetBudgetProgress(ctx, "00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestGetAllBudgetProgress(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	repo := newTestRepo(db)
	svc := newBudgetService(repo)
	cat := testutil.CreateTestCategory(t, db)
	other := testutil.CreateTestCategory(t, db)

	first := testutil.CreateTestBudget(t, db, cat.ID, 1000, testutil.Date(2026, time.January, 1))
	second := testutil.CreateTestBudget(t, db, other.ID, 500, testutil.Date(2026, time.January, 1))
	testutil.CreateTestExpense(t, db, &cat.ID, "Kiwi", 100, testutil.Date(2026, time.May, 2))

	t.Run("all_active_budgets", func(t *testing.T) {
		progress, err := svc.GetAllBudgetProgress(ctx)
		testutil.AssertNoError(t, err)
		if len(progress) != 2 {
			t.Fatalf("expected 2 progress entries, got %d", len(progress))
		}
		byID := map[string]float64{}
		for _, p := range progress {
			byID[p.BudgetID] = p.CurrentSpent
		}
		testutil.AssertFloat(t, "first spent", 100, byID[first.ID])
		testutil.AssertFloat(t, "second spent", 0, byID[second.ID])
	})

	t.Run("active_scenario_only", func(t *testing.T) {
		scenario, err := svc.CreateScenario(ctx, "Lean month", "")
		testutil.AssertNoError(t, err)
		if scenario.IsActive {
			t.Error("expected new scenario to be inactive")
		}

		_, err = svc.UpdateBudget(ctx, second.ID, BudgetUpdate{ScenarioID: &scenario.ID})
		testutil.AssertNoError(t, err)

		activated, err := svc.ActivateScenario(ctx, scenario.ID)
		testutil.AssertNoError(t, err)
		if !activated.IsActive {
			t.Error("expected scenario to be active")
		}

		progress, err := svc.GetAllBudgetProgress(ctx)
		testutil.AssertNoError(t, err)
		if len(progress) != 1 || progress[0].BudgetID != second.ID {
			t.Errorf("expected only the scenario budget, got %+v", progress)
		}
	})
}

func TestAnalyzeHistoricalSpending(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newBudgetService(newTestRepo(db))
	cat := testutil.CreateTestCategory(t, db)

	testutil.CreateTestExpense(t, db, &cat.ID, "Kiwi", 300, testutil.Date(2026, time.February, 10))
	testutil.CreateTestExpense(t, db, &cat.ID, "Kiwi", 300, testutil.Date(2026, time.March, 10))
	testutil.CreateTestExpense(t, db, &cat.ID, "Kiwi", 300, testutil.Date(2026, time.April, 10))
	testutil.CreateTestExpense(t, db, &cat.ID, "Kiwi", 5000, testutil.Date(2026, time.May, 10))

	t.Run("complete_months_only", func(t *testing.T) {
		a, err := svc.AnalyzeHistoricalSpending(ctx, cat.ID, 3)
		testutil.AssertNoError(t, err)

		if a.Months != 3 || a.MonthsWithData != 3 {
			t.Errorf("expected 3 months all with data, got %d/%d", a.MonthsWithData, a.Months)
		}
		testutil.AssertFloat(t, "average", 300, a.AverageMonthly)
		testutil.AssertFloat(t, "confidence", 1, a.Confidence)
		if a.MonthlyTotals[0].Month != "2026-02" || a.MonthlyTotals[2].Month != "2026-04" {
			t.Errorf("expected Feb..Apr window, got %v", a.MonthlyTotals)
		}
	})

	t.Run("invalid_months", func(t *testing.T) {
		_, err := svc.AnalyzeHistoricalSpending(ctx, cat.ID, 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_category", func(t *testing.T) {
		_, err := svc.AnalyzeHistoricalSpending(ctx, "00000000-0000-0000-0000-000000000000", 3)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestGetBudgetVariance(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newBudgetService(newTestRepo(db))
	cat := testutil.CreateTestCategory(t, db)
	budget := testutil.CreateTestBudget(t, db, cat.ID, 500, testutil.Date(2026, time.March, 1))

	testutil.CreateTestExpense(t, db, &cat.ID, "Kiwi", 600, testutil.Date(2026, time.March, 10))
	testutil.CreateTestExpense(t, db, &cat.ID, "Kiwi", 400, testutil.Date(2026, time.April, 10))
	testutil.CreateTestExpense(t, db, &cat.ID, "Kiwi", 650, testutil.Date(2026, time.May, 10))

	v, err := svc.GetBudgetVariance(ctx, budget.ID)
	testutil.AssertNoError(t, err)

	if len(v.MonthlyVariances) != 3 {
		t.Fatalf("expected 3 months, got %d", len(v.MonthlyVariances))
	}
	if v.MonthsOverBudget != 2 || v.MonthsUnderBudget != 1 {
		t.Errorf("expected 2 over and 1 under, got %d and %d", v.MonthsOverBudget, v.MonthsUnderBudget)
	}
	testutil.AssertFloat(t, "overspend", 250, v.TotalOverspend)
	testutil.AssertFloat(t, "underspend", 100, v.TotalUnderspend)
	if len(v.Insights) == 0 {
		t.Error("expected insights")
	}
}

func TestGetBudgetProjection(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newBudgetService(newTestRepo(db))
	cat := testutil.CreateTestCategory(t, db)
	budget := testutil.CreateTestBudget(t, db, cat.ID, 1000, testutil.Date(2026, time.January, 1))

	testutil.CreateTestExpense(t, db, &cat.ID, "Kiwi", 650, testutil.Date(2026, time.May, 5))

	p, err := svc.GetBudgetProjection(ctx, budget.ID)
	testutil.AssertNoError(t, err)

	testutil.AssertFloat(t, "projected total", 1008, p.ProjectedTotalSpent)
	testutil.AssertFloat(t, "remaining", 350, p.RemainingBudget)
	if p.DaysRemaining != 11 {
		t.Errorf("expected 11 days remaining, got %d", p.DaysRemaining)
	}
	if p.RiskLevel == analytics.RiskLow {
		t.Errorf("expected elevated risk, got %s", p.RiskLevel)
	}
}

func TestGetBudgetSuggestions(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newBudgetService(newTestRepo(db))
	cat := testutil.CreateTestCategory(t, db)

	testutil.CreateTestExpense(t, db, &cat.ID, "Kiwi", 300, testutil.Date(2026, time.February, 10))
	testutil.CreateTestExpense(t, db, &cat.ID, "Kiwi", 300, testutil.Date(2026, time.March, 10))
	testutil.CreateTestExpense(t, db, &cat.ID, "Kiwi", 300, testutil.Date(2026, time.April, 10))

	t.Run("monthly", func(t *testing.T) {
		s, err := svc.GetBudgetSuggestions(ctx, cat.ID, "")
		testutil.AssertNoError(t, err)

		if len(s.Analyses) != 3 {
			t.Fatalf("expected 3 analyses, got %d", len(s.Analyses))
		}
		if s.Analyses[0].Months != 3 || s.Analyses[2].Months != 12 {
			t.Errorf("expected windows in 3/6/12 order, got %d..%d", s.Analyses[0].Months, s.Analyses[2].Months)
		}
		testutil.AssertFloat(t, "primary moderate", 330, s.PrimaryTiers.Moderate.Amount)
		if s.Tiers.Conservative.Amount < s.Tiers.Moderate.Amount || s.Tiers.Moderate.Amount < s.Tiers.Aggressive.Amount {
			t.Errorf("expected conservative >= moderate >= aggressive, got %+v", s.Tiers)
		}
	})

	t.Run("invalid_period", func(t *testing.T) {
		_, err := svc.GetBudgetSuggestions(ctx, cat.ID, models.BudgetPeriod("weekly"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestScenarios(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newBudgetService(newTestRepo(db))

	lean, err := svc.CreateScenario(ctx, "Lean", "")
	testutil.AssertNoError(t, err)
	comfy, err := svc.CreateScenario(ctx, "Comfortable", "")
	testutil.AssertNoError(t, err)

	_, err = svc.CreateScenario(ctx, " ", "")
	testutil.AssertAppError(t, err, "INVALID_INPUT")

	_, err = svc.ActivateScenario(ctx, lean.ID)
	testutil.AssertNoError(t, err)
	_, err = svc.ActivateScenario(ctx, comfy.ID)
	testutil.AssertNoError(t, err)

	scenarios, err := svc.GetScenarios(ctx)
	testutil.AssertNoError(t, err)
	active := 0
	for _, s := range scenarios {
		if s.IsActive {
			active++
			if s.ID != comfy.ID {
				t.Errorf("expected %s to be active, got %s", comfy.Name, s.Name)
			}
		}
	}
	if active != 1 {
		t.Errorf("expected exactly one active scenario, got %d", active)
	}

	_, err = svc.ActivateScenario(ctx, "00000000-0000-0000-0000-000000000000")
	testutil.AssertAppError(t, err, "SCENARIO_NOT_FOUND")
}
