// Package analytics computes budget statistics from transaction history:
// monthly spending analysis, progress within the current period, month by
// month variance, performance projection and suggested budget tiers.
package analytics

import (
	"math"
	"time"

	"fintrack/internal/matching"
	"fintrack/internal/models"
)

// MinConfidence is the floor for every confidence score in this package.
const MinConfidence = 0.1

// MonthlyTotal is the expense total of one calendar month.
type MonthlyTotal struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// SpendingAnalysis summarises a category's spending over a window of months.
type SpendingAnalysis struct {
	CategoryID          string         `json:"category_id"`
	Months              int            `json:"months"`
	MonthsWithData      int            `json:"months_with_data"`
	AverageMonthly      float64        `json:"average_monthly"`
	MinMonthly          float64        `json:"min_monthly"`
	MaxMonthly          float64        `json:"max_monthly"`
	StdDev              float64        `json:"std_dev"`
	Trend               float64        `json:"trend"`
	SubscriptionMonthly float64        `json:"subscription_monthly"`
	VariableMonthly     float64        `json:"variable_monthly"`
	Confidence          float64        `json:"confidence"`
	MonthlyTotals       []MonthlyTotal `json:"monthly_totals"`
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// monthStart returns midnight on the first day of t's month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// HistoryWindow returns the months complete calendar months before now's
// month: [start, end].
func HistoryWindow(now time.Time, months int) (start, end time.Time) {
	current := monthStart(now)
	return current.AddDate(0, -months, 0), current.Add(-time.Nanosecond)
}

// BucketByMonth sums the spend of expense transactions into consecutive
// months beginning at start. Transactions outside the window are ignored.
func BucketByMonth(txs []models.Transaction, start time.Time, months int) []MonthlyTotal {
	start = monthStart(start)
	totals := make([]MonthlyTotal, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		key := MonthKey(start.AddDate(0, i, 0))
		totals[i].Month = key
		index[key] = i
	}

	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		if i, ok := index[MonthKey(tx.Date.In(start.Location()))]; ok {
			totals[i].Amount += tx.Spent()
		}
	}
	for i := range totals {
		totals[i].Amount = matching.RoundCents(totals[i].Amount)
	}
	return totals
}

// AnalyzeSpending computes the statistics of monthly totals. Confidence is
// the share of months with spending scaled down by the coefficient of
// variation, never below MinConfidence.
func AnalyzeSpending(categoryID string, totals []MonthlyTotal, subscriptionMonthly float64) SpendingAnalysis {
	a := SpendingAnalysis{
		CategoryID:          categoryID,
		Months:              len(totals),
		SubscriptionMonthly: matching.RoundCents(subscriptionMonthly),
		Confidence:          MinConfidence,
		MonthlyTotals:       totals,
	}
	if len(totals) == 0 {
		return a
	}

	values := make([]float64, len(totals))
	a.MinMonthly = math.Inf(1)
	for i, t := range totals {
		values[i] = t.Amount
		if t.Amount > 0 {
			a.MonthsWithData++
		}
		a.MinMonthly = math.Min(a.MinMonthly, t.Amount)
		a.MaxMonthly = math.Max(a.MaxMonthly, t.Amount)
	}

	a.AverageMonthly = matching.RoundCents(matching.Mean(values))
	a.StdDev = matching.RoundCents(matching.SampleStdDev(values))
	a.Trend = matching.RoundCents(matching.LinearTrend(values))
	a.VariableMonthly = matching.RoundCents(math.Max(0, a.AverageMonthly-subscriptionMonthly))

	coverage := float64(a.MonthsWithData) / float64(a.Months)
	consistency := 1.0
	if a.AverageMonthly > 0 {
		consistency = 1 - math.Min(0.5, (a.StdDev/a.AverageMonthly)/2)
	}
	a.Confidence = math.Max(MinConfidence, coverage*consistency)
	return a
}
