package repository

import (
	"context"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// CreateCategory inserts a category.
func (r *GormRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	return wrapDB(r.db.WithContext(ctx).Create(category).Error)
}

// GetCategories returns all categories ordered by name.
func (r *GormRepository) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, wrapDB(err)
	}
	return categories, nil
}

// GetCategoryByID loads a category.
func (r *GormRepository) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := r.first(ctx, &category, apperrors.ErrCategoryNotFound, "Category", id); err != nil {
		return nil, err
	}
	return &category, nil
}
