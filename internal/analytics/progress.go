package analytics

import (
	"math"
	"time"

	"fintrack/internal/matching"
	"fintrack/internal/models"
)

// ProgressStatus classifies spending against a budget.
type ProgressStatus string

const (
	StatusOnTrack    ProgressStatus = "on-track"
	StatusAtRisk     ProgressStatus = "at-risk"
	StatusOverBudget ProgressStatus = "over-budget"
)

// AtRiskPercentage is the share of the budget at which progress turns at-risk.
const AtRiskPercentage = 80

// BudgetProgress is a budget's spending within its current period.
type BudgetProgress struct {
	BudgetID              string         `json:"budget_id"`
	BudgetAmount          float64        `json:"budget_amount"`
	CurrentSpent          float64        `json:"current_spent"`
	RemainingAmount       float64        `json:"remaining_amount"`
	PercentageSpent       float64        `json:"percentage_spent"`
	Status                ProgressStatus `json:"status"`
	ProjectedSpent        float64        `json:"projected_spent"`
	DaysElapsed           int            `json:"days_elapsed"`
	DaysRemaining         int            `json:"days_remaining"`
	AverageDailySpend     float64        `json:"average_daily_spend"`
	SubscriptionAllocated float64        `json:"subscription_allocated"`
	VariableSpent         float64        `json:"variable_spent"`
	PeriodStart           time.Time      `json:"period_start"`
	PeriodEnd             time.Time      `json:"period_end"`
}

// daysBetween counts calendar days from a to b, both inclusive.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours()/24) + 1
}

// CalculateProgress measures the expense transactions of the budget's
// current period. subscriptionMonthly is the monthly cost of the active
// subscriptions in the budget's category.
func CalculateProgress(b *models.Budget, txs []models.Transaction, subscriptionMonthly float64, now time.Time) BudgetProgress {
	start, end := b.CurrentPeriod(now)

	var spent, flagged float64
	for _, tx := range txs {
		if !tx.IsExpense() || tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		spent += tx.Spent()
		if tx.IsFlagged() {
			flagged += tx.Spent()
		}
	}

	total := max(daysBetween(start, end), 0)
	elapsed := 0
	if !now.Before(start) {
		elapsed = min(daysBetween(start, now), total)
	}
	remainingDays := total - elapsed

	p := BudgetProgress{
		BudgetID:      b.ID,
		BudgetAmount:  b.Amount,
		CurrentSpent:  matching.RoundCents(spent),
		DaysElapsed:   elapsed,
		DaysRemaining: remainingDays,
		VariableSpent: matching.RoundCents(spent - flagged),
		PeriodStart:   start,
		PeriodEnd:     end,
	}

	allocated := subscriptionMonthly
	if b.Period == models.BudgetPeriodYearly {
		allocated *= 12
	}
	p.SubscriptionAllocated = matching.RoundCents(allocated)

	p.RemainingAmount = matching.RoundCents(b.Amount - spent)
	if b.Amount > 0 {
		p.PercentageSpent = matching.RoundCents(spent / b.Amount * 100)
	}
	if elapsed > 0 {
		p.AverageDailySpend = matching.RoundCents(spent / float64(elapsed))
	}
	p.ProjectedSpent = matching.RoundCents(spent + p.AverageDailySpend*float64(remainingDays))

	switch {
	case p.PercentageSpent > 100:
		p.Status = StatusOverBudget
	case p.PercentageSpent >= AtRiskPercentage || p.ProjectedSpent > b.Amount:
		p.Status = StatusAtRisk
	default:
		p.Status = StatusOnTrack
	}
	return p
}

// RiskLevel grades how likely a budget is to be exceeded.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// BudgetProjection extrapolates current spending to the end of the period.
// Money values are whole currency units.
type BudgetProjection struct {
	BudgetID              string    `json:"budget_id"`
	ProjectedTotalSpent   float64   `json:"projected_total_spent"`
	ProjectedPercentage   float64   `json:"projected_percentage"`
	RiskLevel             RiskLevel `json:"risk_level"`
	DaysRemaining         int       `json:"days_remaining"`
	DaysUntilDepletion    *int      `json:"days_until_depletion"`
	RecommendedDailySpend float64   `json:"recommended_daily_spend"`
	RemainingBudget       float64   `json:"remaining_budget"`
}

// ProjectBudgetPerformance projects p to the end of its period.
func ProjectBudgetPerformance(p BudgetProgress) BudgetProjection {
	projected := p.CurrentSpent + p.AverageDailySpend*float64(p.DaysRemaining)

	var projectedPct float64
	if p.BudgetAmount > 0 {
		projectedPct = projected / p.BudgetAmount * 100
	}

	risk := RiskLow
	switch {
	case projectedPct > 100:
		risk = RiskHigh
	case projectedPct > 85 || p.PercentageSpent > 75:
		risk = RiskMedium
	}

	remaining := p.BudgetAmount - p.CurrentSpent
	out := BudgetProjection{
		BudgetID:            p.BudgetID,
		ProjectedTotalSpent: math.Round(projected),
		ProjectedPercentage: math.Round(projectedPct),
		RiskLevel:           risk,
		DaysRemaining:       p.DaysRemaining,
		RemainingBudget:     math.Round(remaining),
	}
	if p.AverageDailySpend > 0 {
		days := int(math.Floor(remaining / p.AverageDailySpend))
		out.DaysUntilDepletion = &days
	}
	if p.DaysRemaining > 0 {
		out.RecommendedDailySpend = math.Round(remaining / float64(p.DaysRemaining))
	}
	return out
}
