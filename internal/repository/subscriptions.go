package repository

import (
	"context"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// CreateSubscription inserts a subscription.
func (r *GormRepository) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	return wrapDB(r.db.WithContext(ctx).Omit("Category", "Patterns").Create(sub).Error)
}

// FindAllSubscriptions returns every subscription ordered by name.
func (r *GormRepository) FindAllSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&subs).Error; err != nil {
		return nil, wrapDB(err)
	}
	return subs, nil
}

// FindSubscriptionByID loads a subscription.
func (r *GormRepository) FindSubscriptionByID(ctx context.Context, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.first(ctx, &sub, apperrors.ErrSubscriptionNotFound, "Subscription", id); err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindSubscriptionsByCategory returns the active subscriptions of a category.
func (r *GormRepository) FindSubscriptionsByCategory(ctx context.Context, categoryID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Order("name ASC").
		Find(&subs).Error
	if err != nil {
		return nil, wrapDB(err)
	}
	return subs, nil
}

// FindActiveSubscriptions returns all active subscriptions.
func (r *GormRepository) FindActiveSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&subs).Error; err != nil {
		return nil, wrapDB(err)
	}
	return subs, nil
}

// UpdateSubscription saves every column of sub.
func (r *GormRepository) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	res := r.db.WithContext(ctx).Omit("Category", "Patterns").Save(sub)
	if res.Error != nil {
		return wrapDB(res.Error)
	}
	return nil
}

// DeleteSubscription soft-deletes a subscription.
func (r *GormRepository) DeleteSubscription(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Subscription{})
	if res.Error != nil {
		return wrapDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(apperrors.ErrSubscriptionNotFound, "Subscription", id)
	}
	return nil
}

// FindUpcomingPayments returns active subscriptions whose next payment falls
// within the next days days.
func (r *GormRepository) FindUpcomingPayments(ctx context.Context, days int) ([]models.Subscription, error) {
	now := r.now()
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND next_payment_date >= ? AND next_payment_date <= ?", true, now, now.AddDate(0, 0, days)).
		Order("next_payment_date ASC").
		Find(&subs).Error
	if err != nil {
		return nil, wrapDB(err)
	}
	return subs, nil
}

// CalculateTotalMonthlyCost sums the monthly equivalent of all active subscriptions.
func (r *GormRepository) CalculateTotalMonthlyCost(ctx context.Context) (float64, error) {
	subs, err := r.FindActiveSubscriptions(ctx)
	if err != nil {
		return 0, err
	}
	var total float64
	for i := range subs {
		total += subs[i].MonthlyCost()
	}
	return total, nil
}

// FindUnusedSubscriptions returns active subscriptions not marked as used in
// the last days days.
func (r *GormRepository) FindUnusedSubscriptions(ctx context.Context, days int) ([]models.Subscription, error) {
	cutoff := r.now().AddDate(0, 0, -days)
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND (last_used_at IS NULL OR last_used_at < ?)", true, cutoff).
		Order("name ASC").
		Find(&subs).Error
	if err != nil {
		return nil, wrapDB(err)
	}
	return subs, nil
}
