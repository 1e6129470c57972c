package repository

import (
	"context"
	"time"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// CreateBudgetAlert inserts an alert.
func (r *GormRepository) CreateBudgetAlert(ctx context.Context, alert *models.BudgetAlert) error {
	return wrapDB(r.db.WithContext(ctx).Create(alert).Error)
}

// FindBudgetAlerts returns alerts newest first, optionally for one budget.
func (r *GormRepository) FindBudgetAlerts(ctx context.Context, budgetID *string) ([]models.BudgetAlert, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if budgetID != nil {
		q = q.Where("budget_id = ?", *budgetID)
	}
	var alerts []models.BudgetAlert
	if err := q.Find(&alerts).Error; err != nil {
		return nil, wrapDB(err)
	}
	return alerts, nil
}

// FindUnreadBudgetAlerts returns unread alerts newest first.
func (r *GormRepository) FindUnreadBudgetAlerts(ctx context.Context) ([]models.BudgetAlert, error) {
	var alerts []models.BudgetAlert
	err := r.db.WithContext(ctx).Where("is_read = ?", false).Order("created_at DESC").Find(&alerts).Error
	if err != nil {
		return nil, wrapDB(err)
	}
	return alerts, nil
}

// FindBudgetAlertsSince returns the alerts of one type raised for a budget
// at or after since.
func (r *GormRepository) FindBudgetAlertsSince(ctx context.Context, budgetID string, alertType models.AlertType, since time.Time) ([]models.BudgetAlert, error) {
	var alerts []models.BudgetAlert
	err := r.db.WithContext(ctx).
		Where("budget_id = ? AND alert_type = ? AND created_at >= ?", budgetID, alertType, since).
		Order("created_at ASC").
		Find(&alerts).Error
	if err != nil {
		return nil, wrapDB(err)
	}
	return alerts, nil
}

// MarkBudgetAlertRead sets the read flag on an alert.
func (r *GormRepository) MarkBudgetAlertRead(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.BudgetAlert{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		return wrapDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(apperrors.ErrBudgetAlertMissing, "Budget alert", id)
	}
	return nil
}
