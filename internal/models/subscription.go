package models

import "time"

// BillingFrequency is how often a subscription is charged.
type BillingFrequency string

const (
	BillingFrequencyMonthly   BillingFrequency = "monthly"
	BillingFrequencyQuarterly BillingFrequency = "quarterly"
	BillingFrequencyAnnually  BillingFrequency = "annually"
	BillingFrequencyCustom    BillingFrequency = "custom"
)

// Valid reports whether f is a known billing frequency.
func (f BillingFrequency) Valid() bool {
	switch f {
	case BillingFrequencyMonthly, BillingFrequencyQuarterly, BillingFrequencyAnnually, BillingFrequencyCustom:
		return true
	}
	return false
}

// Subscription is a recurring payment, either confirmed from a detected
// candidate or created by hand. Custom frequencies require CustomFrequencyDays.
type Subscription struct {
	Base
	Name                string           `gorm:"not null" json:"name"`
	Amount              float64          `gorm:"not null" json:"amount"`
	Currency            string           `gorm:"not null" json:"currency"`
	BillingFrequency    BillingFrequency `gorm:"not null" json:"billing_frequency"`
	CustomFrequencyDays *int             `json:"custom_frequency_days,omitempty"`
	NextPaymentDate     time.Time        `gorm:"not null;index" json:"next_payment_date"`
	CategoryID          string           `gorm:"type:uuid;not null;index" json:"category_id"`
	IsActive            bool             `gorm:"default:true" json:"is_active"`
	StartDate           time.Time        `gorm:"not null" json:"start_date"`
	EndDate             *time.Time       `json:"end_date,omitempty"`
	UsageRating         *int             `json:"usage_rating,omitempty"`
	LastUsedAt          *time.Time       `json:"last_used_at,omitempty"`
	Notes               string           `json:"notes,omitempty"`

	// Relationships
	Category Category              `gorm:"foreignKey:CategoryID" json:"category"`
	Patterns []SubscriptionPattern `gorm:"foreignKey:SubscriptionID" json:"patterns,omitempty"`
}

// AdvanceDate returns from moved forward by one billing cycle. Custom
// frequencies without a day count fall back to one month.
func (s *Subscription) AdvanceDate(from time.Time) time.Time {
	switch s.BillingFrequency {
	case BillingFrequencyQuarterly:
		return from.AddDate(0, 3, 0)
	case BillingFrequencyAnnually:
		return from.AddDate(1, 0, 0)
	case BillingFrequencyCustom:
		if s.CustomFrequencyDays != nil && *s.CustomFrequencyDays > 0 {
			return from.AddDate(0, 0, *s.CustomFrequencyDays)
		}
		return from.AddDate(0, 1, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// AverageDaysPerMonth converts custom day-based frequencies to months.
const AverageDaysPerMonth = 30.44

// MonthlyCost returns the subscription amount normalized to one month.
func (s *Subscription) MonthlyCost() float64 {
	switch s.BillingFrequency {
	case BillingFrequencyQuarterly:
		return s.Amount / 3
	case BillingFrequencyAnnually:
		return s.Amount / 12
	case BillingFrequencyCustom:
		if s.CustomFrequencyDays != nil && *s.CustomFrequencyDays > 0 {
			return s.Amount / (float64(*s.CustomFrequencyDays) / AverageDaysPerMonth)
		}
		return s.Amount
	default:
		return s.Amount
	}
}

// PatternType is the matching strategy of a subscription pattern.
type PatternType string

const (
	PatternTypeExact      PatternType = "exact"
	PatternTypeContains   PatternType = "contains"
	PatternTypeStartsWith PatternType = "starts_with"
	PatternTypeRegex      PatternType = "regex"
)

func (p PatternType) Valid() bool {
	switch p {
	case PatternTypeExact, PatternTypeContains, PatternTypeStartsWith, PatternTypeRegex:
		return true
	}
	return false
}

// PatternCreator records who created a pattern.
type PatternCreator string

const (
	PatternCreatedByUser   PatternCreator = "user"
	PatternCreatedBySystem PatternCreator = "system"
)

// SubscriptionPattern is a persisted description matcher for a subscription.
type SubscriptionPattern struct {
	Base
	SubscriptionID  string         `gorm:"type:uuid;not null;index" json:"subscription_id"`
	Pattern         string         `gorm:"not null" json:"pattern"`
	PatternType     PatternType    `gorm:"not null" json:"pattern_type"`
	ConfidenceScore float64        `gorm:"not null" json:"confidence_score"`
	CreatedBy       PatternCreator `gorm:"not null" json:"created_by"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	MatchCount      int            `gorm:"default:0" json:"match_count"`
	CorrectCount    int            `gorm:"default:0" json:"correct_count"`
	LastMatchedAt   *time.Time     `json:"last_matched_at,omitempty"`
}
