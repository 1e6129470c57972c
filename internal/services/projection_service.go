package services

import (
	"context"
	"strings"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/matching"
	"fintrack/internal/models"
	"fintrack/internal/projection"
	"fintrack/internal/repository"
)

// projectionService runs investment projections for subscriptions.
type projectionService struct {
	repo   repository.SubscriptionRepository
	engine *projection.Engine
}

// NewProjectionService creates a new ProjectionServicer.
func NewProjectionService(repo repository.SubscriptionRepository, engine *projection.Engine) ProjectionServicer {
	return &projectionService{repo: repo, engine: engine}
}

// CompoundReturns is the future value of investing monthlyAmount every
// month for years years, rounded to the cent.
func (s *projectionService) CompoundReturns(monthlyAmount, years float64, opts projection.Options) float64 {
	return matching.RoundCents(s.engine.CompoundReturns(monthlyAmount, years, opts))
}

// CompareSubscription projects a stored subscription against investing its cost.
func (s *projectionService) CompareSubscription(ctx context.Context, subscriptionID string, opts projection.Options) (*projection.Comparison, error) {
	sub, err := s.repo.FindSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	return s.engine.CompareSubscriptionVsInvestment(sub, opts)
}

// CompareCost projects an ad-hoc recurring cost that is not stored as a
// subscription.
func (s *projectionService) CompareCost(name string, amount float64, frequency models.BillingFrequency, customDays *int, opts projection.Options) (*projection.Comparison, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if strings.TrimSpace(name) == "" {
		name = "Recurring cost"
	}
	sub := &models.Subscription{
		Name:                name,
		Amount:              amount,
		BillingFrequency:    frequency,
		CustomFrequencyDays: customDays,
	}
	return s.engine.CompareSubscriptionVsInvestment(sub, opts)
}
