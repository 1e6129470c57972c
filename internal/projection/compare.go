package projection

import (
	"encoding/json"
	"fmt"
	"math"

	"fintrack/internal/matching"
	"fintrack/internal/models"
)

// Horizons are the years at which a comparison reports cost and value.
var Horizons = []int{1, 5, 10, 20}

// Break-even search bounds, in years.
const (
	breakEvenMin       = 0.1
	breakEvenMax       = 50.0
	breakEvenPrecision = 0.1
	breakEvenTolerance = 0.01
)

// Recommendation is the advice attached to a comparison.
type Recommendation string

const (
	RecommendCancelImmediately Recommendation = "cancel_immediately"
	RecommendConsiderCancel    Recommendation = "consider_cancelling"
	RecommendKeep              Recommendation = "keep"
)

// monthlyCostThreshold marks a subscription as expensive.
const monthlyCostThreshold = 50.0

// HorizonProjection is the cost and forgone investment value after Years.
type HorizonProjection struct {
	Years           int     `json:"years"`
	TotalCost       float64 `json:"total_cost"`
	InvestmentValue float64 `json:"investment_value"`
	Savings         float64 `json:"savings"`
}

// Comparison weighs a subscription against investing its cost.
// BreakEvenYears is +Inf when investing never catches up within 50 years.
type Comparison struct {
	SubscriptionID string              `json:"subscription_id,omitempty"`
	Name           string              `json:"name"`
	MonthlyCost    float64             `json:"monthly_cost"`
	Projections    []HorizonProjection `json:"projections"`
	BreakEvenYears float64             `json:"-"`
	Recommendation Recommendation      `json:"recommendation"`
	Reason         string              `json:"reason"`
	Config         Config              `json:"config"`
}

// MarshalJSON renders an infinite break-even as null.
func (c Comparison) MarshalJSON() ([]byte, error) {
	type plain Comparison
	var breakEven *float64
	if !math.IsInf(c.BreakEvenYears, 0) {
		v := c.BreakEvenYears
		breakEven = &v
	}
	return json.Marshal(struct {
		plain
		BreakEvenYears *float64 `json:"break_even_years"`
	}{plain(c), breakEven})
}

// Projection returns the horizon for years, if reported.
func (c *Comparison) Projection(years int) (HorizonProjection, bool) {
	for _, p := range c.Projections {
		if p.Years == years {
			return p, true
		}
	}
	return HorizonProjection{}, false
}

// CompareSubscriptionVsInvestment projects sub at every horizon, finds the
// break-even year and recommends whether to keep it.
func (e *Engine) CompareSubscriptionVsInvestment(sub *models.Subscription, opts Options) (*Comparison, error) {
	monthly, err := MonthlyEquivalent(sub)
	if err != nil {
		return nil, err
	}
	cfg := e.resolve(opts)

	c := &Comparison{
		SubscriptionID: sub.ID,
		Name:           sub.Name,
		MonthlyCost:    matching.RoundCents(monthly),
		Config:         cfg,
	}
	for _, years := range Horizons {
		cost := subscriptionCost(monthly, float64(years), cfg)
		value := compoundReturns(monthly, float64(years), cfg)
		c.Projections = append(c.Projections, HorizonProjection{
			Years:           years,
			TotalCost:       matching.RoundCents(cost),
			InvestmentValue: matching.RoundCents(value),
			Savings:         matching.RoundCents(value - cost),
		})
	}

	c.BreakEvenYears = breakEven(monthly, cfg)
	c.Recommendation, c.Reason = recommend(c, monthly)
	return c, nil
}

// breakEven returns the first year, to 0.1 precision, at which the invested
// value exceeds the subscription cost by at least a cent.
func breakEven(monthly float64, cfg Config) float64 {
	ahead := func(years float64) bool {
		return compoundReturns(monthly, years, cfg)-subscriptionCost(monthly, years, cfg) >= breakEvenTolerance
	}

	if !ahead(breakEvenMax) {
		return math.Inf(1)
	}
	if ahead(breakEvenMin) {
		return breakEvenMin
	}

	lo, hi := breakEvenMin, breakEvenMax
	for hi-lo > breakEvenPrecision {
		mid := (lo + hi) / 2
		if ahead(mid) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return math.Round(hi*10) / 10
}

func recommend(c *Comparison, monthly float64) (Recommendation, string) {
	five, _ := c.Projection(5)
	ten, _ := c.Projection(10)
	annualCost := monthly * 12
	be := c.BreakEvenYears

	switch {
	case be < 2:
		return RecommendCancelImmediately, fmt.Sprintf(
			"Investing %s a month instead would be worth more than the subscription costs after %.1f years.",
			matching.FormatMoney(monthly), be)
	case be < 5 && ten.Savings > annualCost:
		return RecommendConsiderCancel, fmt.Sprintf(
			"Investing instead breaks even after %.1f years and would leave you %s ahead after 10 years, more than a year of payments (%s).",
			be, matching.FormatMoney(ten.Savings), matching.FormatMoney(annualCost))
	case monthly > monthlyCostThreshold && be < 7 && five.Savings > 0:
		return RecommendConsiderCancel, fmt.Sprintf(
			"At %s a month this is an expensive subscription; investing instead breaks even after %.1f years and gains %s over 5 years.",
			matching.FormatMoney(monthly), be, matching.FormatMoney(five.Savings))
	case be > 10 || five.Savings < 0:
		if math.IsInf(be, 1) {
			return RecommendKeep, "Investing the same amount never catches up with the cost of this subscription."
		}
		return RecommendKeep, fmt.Sprintf(
			"Investing instead would take %.1f years to break even (5-year difference %s); the subscription is reasonable value.",
			be, matching.FormatMoney(five.Savings))
	default:
		return RecommendKeep, fmt.Sprintf(
			"The opportunity cost is modest: %s after 5 years.", matching.FormatMoney(five.Savings))
	}
}
