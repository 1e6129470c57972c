package models

// AlertType identifies why a budget alert was raised.
type AlertType string

const (
	AlertTypeThreshold                     AlertType = "threshold"
	AlertTypeProjection                    AlertType = "projection"
	AlertTypeLargeTransaction              AlertType = "large_transaction"
	AlertTypeBulkImport                    AlertType = "bulk_import"
	AlertTypeSubscriptionAdded             AlertType = "subscription_added"
	AlertTypeSubscriptionRemoved           AlertType = "subscription_removed"
	AlertTypeSubscriptionCategoryChanged   AlertType = "subscription_category_changed"
	AlertTypeSubscriptionAmountChanged     AlertType = "subscription_amount_changed"
	AlertTypeSubscriptionFrequencyChanged  AlertType = "subscription_frequency_changed"
	AlertTypeSubscriptionRenewal           AlertType = "subscription_renewal"
	AlertTypeSubscriptionInsufficientFunds AlertType = "subscription_insufficient_budget"
)

// BudgetAlert is an append-only notification attached to a budget.
type BudgetAlert struct {
	Base
	BudgetID            string    `gorm:"type:uuid;not null;index" json:"budget_id"`
	AlertType           AlertType `gorm:"not null;index" json:"alert_type"`
	ThresholdPercentage *float64  `json:"threshold_percentage,omitempty"`
	Message             string    `gorm:"not null" json:"message"`
	IsRead              bool      `gorm:"default:false" json:"is_read"`
}
