package analytics

import (
	"fmt"
	"math"

	"fintrack/internal/matching"
	"fintrack/internal/models"
)

// SuggestionWindows are the history lengths, in months, behind a suggestion.
var SuggestionWindows = []int{3, 6, 12}

// recencyWeights favour shorter, more recent windows.
var recencyWeights = map[int]float64{3: 1.5, 6: 1.2, 12: 1.0}

// minWindowConfidence drops windows too unreliable to blend.
const minWindowConfidence = 0.3

// Tier is one suggested budget amount.
type Tier struct {
	Amount     float64 `json:"amount"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Tiers holds the three suggested budget levels.
type Tiers struct {
	Conservative Tier `json:"conservative"`
	Moderate     Tier `json:"moderate"`
	Aggressive   Tier `json:"aggressive"`
}

// Suggestions is the output of GenerateSuggestions.
type Suggestions struct {
	CategoryID          string              `json:"category_id"`
	Period              models.BudgetPeriod `json:"period"`
	Tiers               Tiers               `json:"tiers"`
	Confidence          float64             `json:"confidence"`
	AverageMonthly      float64             `json:"average_monthly"`
	SubscriptionMonthly float64             `json:"subscription_monthly"`
	Volatility          float64             `json:"volatility"`
	TrendAdjustment     float64             `json:"trend_adjustment"`
	Analyses            []SpendingAnalysis  `json:"analyses"`
}

// tierFloors are the multiples of the subscription cost a tier never goes below.
var tierFloors = struct{ conservative, moderate, aggressive float64 }{1.1, 1.0, 1.0}

func periodFactor(period models.BudgetPeriod) float64 {
	if period == models.BudgetPeriodYearly {
		return 12
	}
	return 1
}

// PrimaryAnalysis returns the analysis with the highest confidence; ties go
// to the earlier one.
func PrimaryAnalysis(analyses []SpendingAnalysis) (SpendingAnalysis, bool) {
	if len(analyses) == 0 {
		return SpendingAnalysis{}, false
	}
	best := analyses[0]
	for _, a := range analyses[1:] {
		if a.Confidence > best.Confidence {
			best = a
		}
	}
	return best, true
}

func tierAmount(monthly, multiplier, subscriptionMonthly, floorMultiplier, factor float64) float64 {
	amount := monthly * multiplier * factor
	floor := subscriptionMonthly * floorMultiplier * factor
	return matching.RoundCents(math.Max(amount, floor))
}

func tierConfidences(c float64) (conservative, moderate, aggressive float64) {
	return math.Min(0.9, c+0.1), c, math.Max(0.6, c-0.2)
}

// CalculateBudgetTiers scales the average of the most confident analysis by
// fixed multipliers, never going below the category's subscription cost.
func CalculateBudgetTiers(analyses []SpendingAnalysis, subscriptionMonthly float64, period models.BudgetPeriod) Tiers {
	primary, ok := PrimaryAnalysis(analyses)
	if !ok {
		return Tiers{}
	}
	factor := periodFactor(period)
	cons, mod, aggr := tierConfidences(primary.Confidence)
	basis := fmt.Sprintf("%d-month average of %s", primary.Months, matching.FormatMoney(primary.AverageMonthly))

	return Tiers{
		Conservative: Tier{
			Amount:     tierAmount(primary.AverageMonthly, 1.2, subscriptionMonthly, tierFloors.conservative, factor),
			Confidence: cons,
			Reasoning:  fmt.Sprintf("20%% above your %s, leaving room for unexpected costs", basis),
		},
		Moderate: Tier{
			Amount:     tierAmount(primary.AverageMonthly, 1.1, subscriptionMonthly, tierFloors.moderate, factor),
			Confidence: mod,
			Reasoning:  fmt.Sprintf("10%% above your %s", basis),
		},
		Aggressive: Tier{
			Amount:     tierAmount(primary.AverageMonthly, 0.9, subscriptionMonthly, tierFloors.aggressive, factor),
			Confidence: aggr,
			Reasoning:  fmt.Sprintf("10%% below your %s, to push spending down", basis),
		},
	}
}

// GenerateSuggestions blends the analyses by confidence and recency and
// derives tier multipliers from the blended volatility and trend.
// hasSubscriptions reports whether the category has active subscriptions.
func GenerateSuggestions(categoryID string, analyses []SpendingAnalysis, subscriptionMonthly float64, hasSubscriptions bool, period models.BudgetPeriod) Suggestions {
	s := Suggestions{
		CategoryID:          categoryID,
		Period:              period,
		SubscriptionMonthly: matching.RoundCents(subscriptionMonthly),
		Analyses:            analyses,
		Confidence:          MinConfidence,
	}

	var usable []SpendingAnalysis
	for _, a := range analyses {
		if a.Confidence > minWindowConfidence {
			usable = append(usable, a)
		}
	}
	if len(usable) == 0 {
		best, ok := PrimaryAnalysis(analyses)
		if !ok {
			return s
		}
		usable = []SpendingAnalysis{best}
	}

	var totalWeight, avg, stdDev, trend, baseConfidence float64
	longest := 0
	for _, a := range usable {
		recency, ok := recencyWeights[a.Months]
		if !ok {
			recency = 1.0
		}
		w := a.Confidence * recency
		totalWeight += w
		avg += a.AverageMonthly * w
		stdDev += a.StdDev * w
		trend += a.Trend * w
		baseConfidence += a.Confidence * w
		longest = max(longest, a.MonthsWithData)
	}
	if totalWeight > 0 {
		avg /= totalWeight
		stdDev /= totalWeight
		trend /= totalWeight
		baseConfidence /= totalWeight
	}

	volatility := 1.1
	if stdDev > 0 && avg > 0 {
		volatility = math.Min(1.5, 1+stdDev/avg)
	}
	trendAdj := 1.0
	if trend > 0 && avg > 0 {
		trendAdj = math.Min(1.2, 1+math.Abs(trend)/avg)
	}

	moderate := math.Min(1.5, volatility*trendAdj)
	conservative := math.Min(2.0, volatility*trendAdj*1.1)
	aggressive := math.Max(0.8, math.Max(1/(volatility*1.1), 0.9*1.1/volatility))

	confidence := baseConfidence
	if hasSubscriptions {
		confidence += 0.15
	}
	if avg > 0 {
		confidence -= math.Min(0.2, stdDev/avg*0.2)
	}
	if longest >= 6 {
		confidence += 0.1
	}
	confidence = math.Min(1.0, math.Max(MinConfidence, confidence))

	factor := periodFactor(period)
	cons, mod, aggr := tierConfidences(confidence)
	basis := fmt.Sprintf("weighted average of %s across %d windows", matching.FormatMoney(avg), len(usable))

	s.AverageMonthly = matching.RoundCents(avg)
	s.Volatility = volatility
	s.TrendAdjustment = trendAdj
	s.Confidence = confidence
	s.Tiers = Tiers{
		Conservative: Tier{
			Amount:     tierAmount(avg, conservative, subscriptionMonthly, tierFloors.conservative, factor),
			Confidence: cons,
			Reasoning:  fmt.Sprintf("%.2fx your %s, covering volatility and upward trend", conservative, basis),
		},
		Moderate: Tier{
			Amount:     tierAmount(avg, moderate, subscriptionMonthly, tierFloors.moderate, factor),
			Confidence: mod,
			Reasoning:  fmt.Sprintf("%.2fx your %s", moderate, basis),
		},
		Aggressive: Tier{
			Amount:     tierAmount(avg, aggressive, subscriptionMonthly, tierFloors.aggressive, factor),
			Confidence: aggr,
			Reasoning:  fmt.Sprintf("%.2fx your %s, a stretch target", aggressive, basis),
		},
	}
	return s
}
