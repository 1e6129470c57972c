package models

import "time"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Valid reports whether p is monthly or yearly.
func (p BudgetPeriod) Valid() bool {
	return p == BudgetPeriodMonthly || p == BudgetPeriodYearly
}

// DefaultAlertThresholds are applied when a budget is created without thresholds.
var DefaultAlertThresholds = []float64{50, 80, 100}

// Budget represents a spending limit for a category. A nil EndDate means the
// budget runs indefinitely.
type Budget struct {
	Base
	CategoryID      string       `gorm:"type:uuid;not null;index" json:"category_id"`
	ScenarioID      *string      `gorm:"type:uuid;index" json:"scenario_id,omitempty"`
	Name            string       `gorm:"not null" json:"name"`
	Amount          float64      `gorm:"not null" json:"amount"`
	Currency        string       `gorm:"not null" json:"currency"`
	Period          BudgetPeriod `gorm:"not null" json:"period"`
	StartDate       time.Time    `gorm:"not null" json:"start_date"`
	EndDate         *time.Time   `json:"end_date,omitempty"`
	IsActive        bool         `gorm:"default:true" json:"is_active"`
	AlertThresholds []float64    `gorm:"serializer:json" json:"alert_thresholds"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}

// MonthlyAmount returns the budget amount per calendar month.
func (b *Budget) MonthlyAmount() float64 {
	if b.Period == BudgetPeriodYearly {
		return b.Amount / 12
	}
	return b.Amount
}

// CurrentPeriod returns the calendar window the budget is measured against at
// now: the current month for monthly budgets and the current year for yearly
// ones, clipped to the budget's own start and end dates.
func (b *Budget) CurrentPeriod(now time.Time) (start, end time.Time) {
	loc := now.Location()
	switch b.Period {
	case BudgetPeriodYearly:
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc)
		end = time.Date(now.Year(), 12, 31, 23, 59, 59, 999999999, loc)
	default:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		last := start.AddDate(0, 1, -1)
		end = time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, 999999999, loc)
	}

	if b.StartDate.After(start) {
		start = b.StartDate
	}
	if b.EndDate != nil && b.EndDate.Before(end) {
		end = *b.EndDate
	}
	return start, end
}

// BudgetScenario groups budgets into a named set. At most one scenario is active.
type BudgetScenario struct {
	Base
	Name        string   `gorm:"not null" json:"name"`
	Description string   `json:"description"`
	IsActive    bool     `gorm:"default:false" json:"is_active"`
	Budgets     []Budget `gorm:"foreignKey:ScenarioID" json:"budgets,omitempty"`
}
