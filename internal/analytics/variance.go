package analytics

import (
	"fmt"
	"math"
	"time"

	"fintrack/internal/matching"
	"fintrack/internal/models"
)

// Insight messages produced by CalculateBudgetVariance.
const (
	InsightNoData                = "No spending data recorded for this budget yet."
	InsightNormal                = "Spending looks normal for this budget."
	insightFrequentlyExceed      = "You frequently exceed this budget (%d of %d months over)."
	insightOccasionallyOverspend = "You occasionally overspend this budget (%d of %d months over)."
	insightConsistentlyUnder     = "You consistently spend less than budgeted; consider lowering the budget."
	insightVariesSignificantly   = "Your spending varies significantly from month to month (%.0f point range)."
	insightVeryConsistent        = "Your spending is very consistent from month to month."
	insightTrendUp               = "Spending has increased for three months in a row."
	insightTrendDown             = "Spending has decreased for three months in a row."
)

// MonthlyVariance compares one month's spend with the monthly budget.
type MonthlyVariance struct {
	Month              string  `json:"month"`
	Budgeted           float64 `json:"budgeted"`
	Actual             float64 `json:"actual"`
	Variance           float64 `json:"variance"`
	VariancePercentage float64 `json:"variance_percentage"`
	OverBudget         bool    `json:"over_budget"`
}

// VarianceAnalysis aggregates the monthly variances of a budget.
type VarianceAnalysis struct {
	BudgetID          string            `json:"budget_id"`
	MonthlyVariances  []MonthlyVariance `json:"monthly_variances"`
	AverageVariance   float64           `json:"average_variance"`
	TotalOverspend    float64           `json:"total_overspend"`
	TotalUnderspend   float64           `json:"total_underspend"`
	StdDevVariance    float64           `json:"std_dev_variance"`
	MonthsOverBudget  int               `json:"months_over_budget"`
	MonthsUnderBudget int               `json:"months_under_budget"`
	Insights          []string          `json:"insights"`
}

// VarianceWindow returns the range of months a variance analysis covers:
// from the budget's start month to the month of min(end date, now).
// ok is false when the budget has not started yet.
func VarianceWindow(b *models.Budget, now time.Time) (start, end time.Time, ok bool) {
	last := now
	if b.EndDate != nil && b.EndDate.Before(now) {
		last = *b.EndDate
	}
	start = monthStart(b.StartDate)
	end = monthStart(last).AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end, !start.After(last)
}

// CalculateBudgetVariance compares every elapsed month of b with its monthly
// amount. actuals maps MonthKey to the month's spend; missing months count
// as zero.
func CalculateBudgetVariance(b *models.Budget, actuals map[string]float64, now time.Time) VarianceAnalysis {
	analysis := VarianceAnalysis{BudgetID: b.ID, MonthlyVariances: []MonthlyVariance{}}

	start, end, ok := VarianceWindow(b, now)
	if !ok {
		analysis.Insights = []string{InsightNoData}
		return analysis
	}

	budgeted := b.MonthlyAmount()
	var variances, percentages []float64
	for m := start; m.Before(end); m = m.AddDate(0, 1, 0) {
		actual := matching.RoundCents(actuals[MonthKey(m)])
		v := MonthlyVariance{
			Month:    MonthKey(m),
			Budgeted: matching.RoundCents(budgeted),
			Actual:   actual,
			Variance: matching.RoundCents(actual - budgeted),
		}
		if budgeted > 0 {
			v.VariancePercentage = matching.RoundCents(v.Variance / budgeted * 100)
		}
		v.OverBudget = v.Variance > 0

		if v.OverBudget {
			analysis.MonthsOverBudget++
			analysis.TotalOverspend += v.Variance
		} else if v.Variance < 0 {
			analysis.MonthsUnderBudget++
			analysis.TotalUnderspend += -v.Variance
		}

		analysis.MonthlyVariances = append(analysis.MonthlyVariances, v)
		variances = append(variances, v.Variance)
		percentages = append(percentages, v.VariancePercentage)
	}

	analysis.AverageVariance = matching.RoundCents(matching.Mean(variances))
	analysis.TotalOverspend = matching.RoundCents(analysis.TotalOverspend)
	analysis.TotalUnderspend = matching.RoundCents(analysis.TotalUnderspend)
	analysis.StdDevVariance = matching.RoundCents(matching.SampleStdDev(variances))
	analysis.Insights = varianceInsights(analysis, percentages)
	return analysis
}

func varianceInsights(a VarianceAnalysis, percentages []float64) []string {
	n := len(a.MonthlyVariances)
	hasData := false
	for _, v := range a.MonthlyVariances {
		if v.Actual != 0 {
			hasData = true
			break
		}
	}
	if n == 0 || !hasData {
		return []string{InsightNoData}
	}

	var insights []string

	overRatio := float64(a.MonthsOverBudget) / float64(n)
	switch {
	case overRatio > 0.7:
		insights = append(insights, fmt.Sprintf(insightFrequentlyExceed, a.MonthsOverBudget, n))
	case overRatio >= 0.3:
		insights = append(insights, fmt.Sprintf(insightOccasionallyOverspend, a.MonthsOverBudget, n))
	}

	wellUnder := 0
	for _, p := range percentages {
		if p < -10 {
			wellUnder++
		}
	}
	if wellUnder*2 > n {
		insights = append(insights, insightConsistentlyUnder)
	}

	if n >= 2 {
		lo, hi := percentages[0], percentages[0]
		for _, p := range percentages[1:] {
			lo, hi = math.Min(lo, p), math.Max(hi, p)
		}
		switch spread := hi - lo; {
		case spread > 100:
			insights = append(insights, fmt.Sprintf(insightVariesSignificantly, spread))
		case spread < 20:
			insights = append(insights, insightVeryConsistent)
		}
	}

	if n >= 3 {
		last := a.MonthlyVariances[n-3:]
		switch {
		case last[0].Actual < last[1].Actual && last[1].Actual < last[2].Actual:
			insights = append(insights, insightTrendUp)
		case last[0].Actual > last[1].Actual && last[1].Actual > last[2].Actual:
			insights = append(insights, insightTrendDown)
		}
	}

	if len(insights) == 0 {
		insights = []string{InsightNormal}
	}
	return insights
}
