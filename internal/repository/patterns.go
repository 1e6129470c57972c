package repository

import (
	"context"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// CreateSubscriptionPattern inserts a pattern.
func (r *GormRepository) CreateSubscriptionPattern(ctx context.Context, pattern *models.SubscriptionPattern) error {
	return wrapDB(r.db.WithContext(ctx).Create(pattern).Error)
}

// FindPatternsBySubscription returns every pattern of a subscription,
// highest confidence first.
func (r *GormRepository) FindPatternsBySubscription(ctx context.Context, subscriptionID string) ([]models.SubscriptionPattern, error) {
	var patterns []models.SubscriptionPattern
	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("confidence_score DESC").
		Find(&patterns).Error
	if err != nil {
		return nil, wrapDB(err)
	}
	return patterns, nil
}

// FindSubscriptionPatternByID loads a pattern.
func (r *GormRepository) FindSubscriptionPatternByID(ctx context.Context, id string) (*models.SubscriptionPattern, error) {
	var pattern models.SubscriptionPattern
	if err := r.first(ctx, &pattern, apperrors.ErrPatternNotFound, "Subscription pattern", id); err != nil {
		return nil, err
	}
	return &pattern, nil
}

// UpdatePatternUsage records one piece of match feedback and moves the
// pattern's confidence with the configured ConfidenceAdjuster.
func (r *GormRepository) UpdatePatternUsage(ctx context.Context, id string, wasCorrect bool) (*models.SubscriptionPattern, error) {
	pattern, err := r.FindSubscriptionPatternByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := r.now()
	pattern.MatchCount++
	if wasCorrect {
		pattern.CorrectCount++
	}
	pattern.LastMatchedAt = &now
	pattern.ConfidenceScore = r.adjuster.AdjustConfidence(pattern.ConfidenceScore, wasCorrect)

	err = r.db.WithContext(ctx).Model(pattern).Updates(map[string]interface{}{
		"match_count":      pattern.MatchCount,
		"correct_count":    pattern.CorrectCount,
		"last_matched_at":  pattern.LastMatchedAt,
		"confidence_score": pattern.ConfidenceScore,
	}).Error
	if err != nil {
		return nil, wrapDB(err)
	}
	return pattern, nil
}

// DeleteSubscriptionPattern removes a pattern.
func (r *GormRepository) DeleteSubscriptionPattern(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SubscriptionPattern{})
	if res.Error != nil {
		return wrapDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(apperrors.ErrPatternNotFound, "Subscription pattern", id)
	}
	return nil
}
