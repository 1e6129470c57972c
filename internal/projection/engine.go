// Package projection compares what a subscription costs over time with what
// the same money would be worth if it were invested instead.
package projection

import (
	"math"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// Compounding is how often investment returns are credited.
type Compounding string

const (
	CompoundingMonthly Compounding = "monthly"
	CompoundingAnnual  Compounding = "annual"
)

// Config holds the assumptions behind every projection.
type Config struct {
	AnnualReturnRate float64     `json:"annual_return_rate"`
	InflationRate    float64     `json:"inflation_rate"`
	Compounding      Compounding `json:"compounding"`
}

// DefaultConfig is a 7% return, 2.5% inflation, compounded monthly.
func DefaultConfig() Config {
	return Config{AnnualReturnRate: 0.07, InflationRate: 0.025, Compounding: CompoundingMonthly}
}

// Options overrides parts of the engine's Config for a single call.
type Options struct {
	AnnualReturnRate *float64     `json:"annual_return_rate,omitempty"`
	InflationRate    *float64     `json:"inflation_rate,omitempty"`
	Compounding      *Compounding `json:"compounding,omitempty"`
}

// Engine runs projections with a fixed Config. It is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine. An empty compounding mode means monthly.
func NewEngine(cfg Config) *Engine {
	if cfg.Compounding == "" {
		cfg.Compounding = CompoundingMonthly
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// WithConfig returns a new Engine using cfg; e is unchanged.
func (e *Engine) WithConfig(cfg Config) *Engine {
	return NewEngine(cfg)
}

func (e *Engine) resolve(opts Options) Config {
	cfg := e.cfg
	if opts.AnnualReturnRate != nil {
		cfg.AnnualReturnRate = *opts.AnnualReturnRate
	}
	if opts.InflationRate != nil {
		cfg.InflationRate = *opts.InflationRate
	}
	if opts.Compounding != nil && *opts.Compounding != "" {
		cfg.Compounding = *opts.Compounding
	}
	return cfg
}

// CompoundReturns is the future value of investing monthlyAmount every month
// for years years.
func (e *Engine) CompoundReturns(monthlyAmount, years float64, opts Options) float64 {
	return compoundReturns(monthlyAmount, years, e.resolve(opts))
}

func compoundReturns(monthlyAmount, years float64, cfg Config) float64 {
	if years <= 0 {
		return 0
	}
	if cfg.Compounding == CompoundingAnnual {
		value := 0.0
		whole := math.Floor(years)
		for y := 0; y < int(whole); y++ {
			value = (value + 12*monthlyAmount) * (1 + cfg.AnnualReturnRate)
		}
		if frac := years - whole; frac > 0 {
			value = (value + 12*monthlyAmount*frac) * (1 + cfg.AnnualReturnRate*frac)
		}
		return value
	}

	n := years * 12
	r := cfg.AnnualReturnRate / 12
	if r == 0 {
		return monthlyAmount * n
	}
	return monthlyAmount * (math.Pow(1+r, n) - 1) / r
}

// MonthlyEquivalent normalizes a subscription's amount to one month.
func MonthlyEquivalent(sub *models.Subscription) (float64, error) {
	switch sub.BillingFrequency {
	case models.BillingFrequencyMonthly, models.BillingFrequencyQuarterly, models.BillingFrequencyAnnually:
		return sub.MonthlyCost(), nil
	case models.BillingFrequencyCustom:
		if sub.CustomFrequencyDays == nil || *sub.CustomFrequencyDays <= 0 {
			return 0, apperrors.ErrCustomFrequencyDays
		}
		return sub.MonthlyCost(), nil
	default:
		return 0, apperrors.ErrInvalidBillingFrequency
	}
}

// SubscriptionCost is the total paid for sub over years years, with each
// year's price raised by inflation. A partial final year is charged pro rata.
func (e *Engine) SubscriptionCost(sub *models.Subscription, years float64, opts Options) (float64, error) {
	monthly, err := MonthlyEquivalent(sub)
	if err != nil {
		return 0, err
	}
	return subscriptionCost(monthly, years, e.resolve(opts)), nil
}

func subscriptionCost(monthly, years float64, cfg Config) float64 {
	var total float64
	for y := 1; float64(y-1) < years; y++ {
		share := math.Min(1, years-float64(y-1))
		total += monthly * 12 * math.Pow(1+cfg.InflationRate, float64(y-1)) * share
	}
	return total
}
