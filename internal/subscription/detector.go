// Package subscription finds recurring payments in transaction history,
// matches new transactions against persisted subscription patterns and keeps
// subscription payment dates in step with what the bank actually charged.
package subscription

import (
	"fmt"
	"math"
	"sort"
	"time"

	"fintrack/internal/matching"
	"fintrack/internal/models"
)

const (
	// MinCandidateConfidence is the lowest confidence DetectSubscriptions reports.
	MinCandidateConfidence = 0.6
	// DuplicateNameSimilarity is the name similarity above which a candidate
	// is considered a copy of an existing subscription.
	DuplicateNameSimilarity = 0.6
	// DuplicateAmountTolerance is the largest amount difference, in currency
	// units, between a candidate and the subscription it duplicates.
	DuplicateAmountTolerance = 1.0
	// StaleAfterMonths drops monthly candidates whose last payment is older.
	StaleAfterMonths = 4
)

// frequencyBand describes how a billing frequency is recognised from day
// intervals and how interval spread maps to confidence.
type frequencyBand struct {
	frequency models.BillingFrequency
	days      float64
	tolerance float64
	floor     float64
	scale     float64
}

var frequencyBands = []frequencyBand{
	{models.BillingFrequencyMonthly, 30, 7, 0.5, 100},
	{models.BillingFrequencyQuarterly, 91, 14, 0.4, 200},
	{models.BillingFrequencyAnnually, 365, 30, 0.3, 500},
}

// classifyFrequency returns the band nearest to avgInterval that contains it.
func classifyFrequency(avgInterval float64) (frequencyBand, bool) {
	var (
		best     frequencyBand
		bestDiff = math.Inf(1)
		found    bool
	)
	for _, band := range frequencyBands {
		diff := math.Abs(avgInterval - band.days)
		if diff <= band.tolerance && diff < bestDiff {
			best, bestDiff, found = band, diff, true
		}
	}
	return best, found
}

// Candidate is a recurring payment that looks like an unregistered subscription.
type Candidate struct {
	Name                 string                  `json:"name"`
	Amount               float64                 `json:"amount"`
	Currency             string                  `json:"currency"`
	BillingFrequency     models.BillingFrequency `json:"billing_frequency"`
	CategoryID           *string                 `json:"category_id,omitempty"`
	Confidence           float64                 `json:"confidence"`
	MatchingTransactions []models.Transaction    `json:"matching_transactions"`
	DetectedPatterns     []string                `json:"detected_patterns"`
	Reason               string                  `json:"reason"`
}

// RecurringPattern is one group of same-description, same-amount expenses
// whose spacing fits a billing frequency.
type RecurringPattern struct {
	Description     string                  `json:"description"`
	Amount          float64                 `json:"amount"`
	Frequency       models.BillingFrequency `json:"frequency"`
	Confidence      float64                 `json:"confidence"`
	AverageInterval float64                 `json:"average_interval"`
	Intervals       []float64               `json:"intervals"`
	CategoryID      *string                 `json:"category_id,omitempty"`
	LastDate        time.Time               `json:"last_date"`
	Transactions    []models.Transaction    `json:"transactions"`
}

// Detector groups transactions into subscription candidates.
type Detector struct {
	defaultCurrency string
	now             func() time.Time
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithDetectorClock replaces time.Now for the staleness check.
func WithDetectorClock(now func() time.Time) DetectorOption {
	return func(d *Detector) { d.now = now }
}

// NewDetector creates a Detector. defaultCurrency is used for candidates
// whose transactions carry no currency.
func NewDetector(defaultCurrency string, opts ...DetectorOption) *Detector {
	d := &Detector{defaultCurrency: defaultCurrency, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectSubscriptions returns candidates for recurring expenses that are not
// yet tracked by any of the existing active subscriptions, most confident first.
func (d *Detector) DetectSubscriptions(transactions []models.Transaction, existing []models.Subscription) []Candidate {
	patterns := d.AnalyzeRecurringPatterns(transactions)
	staleBefore := d.now().AddDate(0, -StaleAfterMonths, 0)

	candidates := make([]Candidate, 0, len(patterns))
	for _, p := range patterns {
		if p.Confidence < MinCandidateConfidence {
			continue
		}
		c := d.newCandidate(p)
		if isDuplicate(c, existing) {
			continue
		}
		if c.BillingFrequency == models.BillingFrequencyMonthly && p.LastDate.Before(staleBefore) {
			continue
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Name < candidates[j].Name
	})
	return candidates
}

// AnalyzeRecurringPatterns groups expenses by normalized description and
// amount and classifies every group of two or more by billing frequency.
// No confidence floor, de-duplication or staleness filter is applied.
func (d *Detector) AnalyzeRecurringPatterns(transactions []models.Transaction) []RecurringPattern {
	type group struct {
		description string
		amount      float64
		txs         []models.Transaction
	}

	groups := make(map[string]*group)
	var order []string
	for _, tx := range transactions {
		if !tx.IsExpense() {
			continue
		}
		desc := matching.NormalizeDescription(tx.Description)
		key := desc + "|" + matching.CentKey(tx.Amount)
		g, ok := groups[key]
		if !ok {
			g = &group{description: desc, amount: matching.RoundCents(tx.Spent())}
			groups[key] = g
			order = append(order, key)
		}
		g.txs = append(g.txs, tx)
	}

	var patterns []RecurringPattern
	for _, key := range order {
		g := groups[key]
		if len(g.txs) < 2 {
			continue
		}
		if p, ok := analyzeGroup(g.description, g.amount, g.txs); ok {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

func analyzeGroup(description string, amount float64, txs []models.Transaction) (RecurringPattern, bool) {
	sorted := make([]models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	intervals := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		intervals = append(intervals, sorted[i].Date.Sub(sorted[i-1].Date).Hours()/24)
	}

	avg := matching.Mean(intervals)
	band, ok := classifyFrequency(avg)
	if !ok {
		return RecurringPattern{}, false
	}

	confidence := math.Max(band.floor, 1-matching.Variance(intervals)/band.scale)
	confidence *= math.Min(1, 0.5+0.1*float64(len(sorted)))

	return RecurringPattern{
		Description:     description,
		Amount:          amount,
		Frequency:       band.frequency,
		Confidence:      confidence,
		AverageInterval: avg,
		Intervals:       intervals,
		CategoryID:      mostFrequentCategory(sorted),
		LastDate:        sorted[len(sorted)-1].Date,
		Transactions:    sorted,
	}, true
}

// mostFrequentCategory returns the most common category; ties go to the one
// seen first.
func mostFrequentCategory(txs []models.Transaction) *string {
	counts := make(map[string]int)
	var order []string
	for _, tx := range txs {
		if tx.CategoryID == nil || *tx.CategoryID == "" {
			continue
		}
		id := *tx.CategoryID
		if _, seen := counts[id]; !seen {
			order = append(order, id)
		}
		counts[id]++
	}

	var best string
	bestCount := 0
	for _, id := range order {
		if counts[id] > bestCount {
			best, bestCount = id, counts[id]
		}
	}
	if bestCount == 0 {
		return nil
	}
	return &best
}

func (d *Detector) newCandidate(p RecurringPattern) Candidate {
	currency := p.Transactions[0].Currency
	if currency == "" {
		currency = d.defaultCurrency
	}

	c := Candidate{
		Name:                 matching.Titleize(p.Description),
		Amount:               p.Amount,
		Currency:             currency,
		BillingFrequency:     p.Frequency,
		CategoryID:           p.CategoryID,
		Confidence:           p.Confidence,
		MatchingTransactions: p.Transactions,
		Reason: fmt.Sprintf("%d %s payments of %s %s, on average every %.0f days",
			len(p.Transactions), p.Frequency, matching.FormatMoney(p.Amount), currency, p.AverageInterval),
	}
	for _, spec := range CreatePatternsForCandidate(c) {
		c.DetectedPatterns = append(c.DetectedPatterns, spec.Pattern)
	}
	return c
}

func isDuplicate(c Candidate, existing []models.Subscription) bool {
	for _, sub := range existing {
		if !sub.IsActive {
			continue
		}
		if matching.Similarity(c.Name, sub.Name) > DuplicateNameSimilarity &&
			math.Abs(c.Amount-sub.Amount) <= DuplicateAmountTolerance {
			return true
		}
	}
	return false
}
