package services

import (
	"context"

	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/repository"
)

// alertService raises and reads budget alerts.
type alertService struct {
	repo repository.Repository
}

// NewAlertService creates a new AlertServicer.
func NewAlertService(repo repository.Repository) AlertServicer {
	return &alertService{repo: repo}
}

// Raise stores an alert on a budget. Failures are logged and swallowed so
// that alerting never fails the operation that triggered it.
func (s *alertService) Raise(ctx context.Context, budgetID string, alertType models.AlertType, threshold *float64, message string) {
	alert := &models.BudgetAlert{
		BudgetID:            budgetID,
		AlertType:           alertType,
		ThresholdPercentage: threshold,
		Message:             message,
	}
	if err := s.repo.CreateBudgetAlert(ctx, alert); err != nil {
		logger.Get().Errorw("failed to create budget alert",
			"error", err,
			"budget_id", budgetID,
			"alert_type", alertType,
		)
	}
}

// RaiseForCategory raises the same alert on every active budget of a category.
func (s *alertService) RaiseForCategory(ctx context.Context, categoryID string, alertType models.AlertType, message string) {
	budgets, err := s.repo.FindBudgetsByCategory(ctx, categoryID)
	if err != nil {
		logger.Get().Errorw("failed to load budgets for alert",
			"error", err,
			"category_id", categoryID,
			"alert_type", alertType,
		)
		return
	}
	for i := range budgets {
		s.Raise(ctx, budgets[i].ID, alertType, nil, message)
	}
}

// GetAlerts lists alerts, newest first, optionally for one budget.
func (s *alertService) GetAlerts(ctx context.Context, budgetID *string) ([]models.BudgetAlert, error) {
	return s.repo.FindBudgetAlerts(ctx, budgetID)
}

// GetUnreadAlerts lists alerts that have not been read.
func (s *alertService) GetUnreadAlerts(ctx context.Context) ([]models.BudgetAlert, error) {
	return s.repo.FindUnreadBudgetAlerts(ctx)
}

// MarkAsRead flags an alert as read.
func (s *alertService) MarkAsRead(ctx context.Context, id string) error {
	return s.repo.MarkBudgetAlertRead(ctx, id)
}
