package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// Transaction represents an imported bank transaction. Amounts are signed:
// expenses are negative. Only CategoryID and SubscriptionID change after import.
type Transaction struct {
	Base
	Date           time.Time       `gorm:"not null;index" json:"date"`
	Description    string          `gorm:"not null" json:"description"`
	Amount         float64         `gorm:"not null" json:"amount"`
	Currency       string          `json:"currency,omitempty"`
	Type           TransactionType `gorm:"not null;index" json:"type"`
	CategoryID     *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	SubscriptionID *string         `gorm:"type:uuid;index" json:"subscription_id,omitempty"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// IsExpense reports whether the transaction is an expense.
func (t *Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

// IsFlagged reports whether the transaction is linked to a subscription.
func (t *Transaction) IsFlagged() bool {
	return t.SubscriptionID != nil && *t.SubscriptionID != ""
}

// Spent returns the absolute amount of the transaction.
func (t *Transaction) Spent() float64 {
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}

// TransactionSummary aggregates income and expenses over a set of transactions.
type TransactionSummary struct {
	TotalIncome   float64 `json:"total_income"`
	TotalExpenses float64 `json:"total_expenses"`
	Net           float64 `json:"net"`
	Count         int64   `json:"count"`
}
