package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/models"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestCategory creates an expense category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:  fmt.Sprintf("Category %d", nextID()),
		Type:  models.CategoryTypeExpense,
		Color: "#3366FF",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestExpense creates an expense transaction. amount is the positive
// spend; it is stored negated.
func CreateTestExpense(t *testing.T, db *gorm.DB, categoryID *string, description string, amount float64, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		Date:        date,
		Description: description,
		Amount:      -amount,
		Currency:    "NOK",
		Type:        models.TransactionTypeExpense,
		CategoryID:  categoryID,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestIncome creates an income transaction.
func CreateTestIncome(t *testing.T, db *gorm.DB, description string, amount float64, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Currency:    "NOK",
		Type:        models.TransactionTypeIncome,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestSubscription creates an active monthly subscription.
func CreateTestSubscription(t *testing.T, db *gorm.DB, categoryID, name string, amount float64, nextPayment time.Time) *models.Subscription {
	t.Helper()

	sub := &models.Subscription{
		Name:             name,
		Amount:           amount,
		Currency:         "NOK",
		BillingFrequency: models.BillingFrequencyMonthly,
		NextPaymentDate:  nextPayment,
		CategoryID:       categoryID,
		IsActive:         true,
		StartDate:        nextPayment.AddDate(0, -1, 0),
	}
	if err := db.Omit("Category", "Patterns").Create(sub).Error; err != nil {
		t.Fatalf("failed to create test subscription: %v", err)
	}
	return sub
}

// CreateTestPattern creates an active system pattern for a subscription.
func CreateTestPattern(t *testing.T, db *gorm.DB, subscriptionID, pattern string, patternType models.PatternType, confidence float64) *models.SubscriptionPattern {
	t.Helper()

	p := &models.SubscriptionPattern{
		SubscriptionID:  subscriptionID,
		Pattern:         pattern,
		PatternType:     patternType,
		ConfidenceScore: confidence,
		CreatedBy:       models.PatternCreatedBySystem,
		IsActive:        true,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create test pattern: %v", err)
	}
	return p
}

// CreateTestBudget creates an active monthly budget with default thresholds.
func CreateTestBudget(t *testing.T, db *gorm.DB, categoryID string, amount float64, start time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		CategoryID:      categoryID,
		Name:            fmt.Sprintf("Budget %d", nextID()),
		Amount:          amount,
		Currency:        "NOK",
		Period:          models.BudgetPeriodMonthly,
		StartDate:       start,
		IsActive:        true,
		AlertThresholds: models.DefaultAlertThresholds,
	}
	if err := db.Omit("Category").Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestScenario creates an inactive budget scenario.
func CreateTestScenario(t *testing.T, db *gorm.DB, name string) *models.BudgetScenario {
	t.Helper()

	scenario := &models.BudgetScenario{Name: name}
	if err := db.Omit("Budgets").Create(scenario).Error; err != nil {
		t.Fatalf("failed to create test scenario: %v", err)
	}
	return scenario
}
