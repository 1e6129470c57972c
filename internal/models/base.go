package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate assigns a time-ordered UUIDv7 to new records.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID != "" {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	b.ID = id.String()
	return nil
}

// All lists every persisted model, parents before children.
func All() []any {
	return []any{
		&Category{},
		&Transaction{},
		&Subscription{},
		&SubscriptionPattern{},
		&BudgetScenario{},
		&Budget{},
		&BudgetAlert{},
		&AuditLog{},
	}
}
