package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// CreateBudget inserts a budget.
func (r *GormRepository) CreateBudget(ctx context.Context, budget *models.Budget) error {
	return wrapDB(r.db.WithContext(ctx).Omit("Category").Create(budget).Error)
}

// FindAllBudgets returns budgets matching filter, newest first.
func (r *GormRepository) FindAllBudgets(ctx context.Context, filter BudgetFilter) ([]models.Budget, error) {
	q := r.db.WithContext(ctx).Model(&models.Budget{}).Preload("Category")
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Period != nil {
		q = q.Where("period = ?", *filter.Period)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ScenarioID != nil {
		q = q.Where("scenario_id = ?", *filter.ScenarioID)
	}

	var budgets []models.Budget
	if err := q.Order("created_at DESC").Find(&budgets).Error; err != nil {
		return nil, wrapDB(err)
	}
	return budgets, nil
}

// FindBudgetByID loads a budget with its category.
func (r *GormRepository) FindBudgetByID(ctx context.Context, id string) (*models.Budget, error) {
	var budget models.Budget
	if err := r.first(ctx, &budget, apperrors.ErrBudgetNotFound, "Budget", id, "Category"); err != nil {
		return nil, err
	}
	return &budget, nil
}

// FindBudgetsByCategory returns the active budgets of a category.
func (r *GormRepository) FindBudgetsByCategory(ctx context.Context, categoryID string) ([]models.Budget, error) {
	active := true
	return r.FindAllBudgets(ctx, BudgetFilter{IsActive: &active, CategoryID: &categoryID})
}

// FindBudgetsByPeriod returns the active budgets with the given period.
func (r *GormRepository) FindBudgetsByPeriod(ctx context.Context, period models.BudgetPeriod) ([]models.Budget, error) {
	active := true
	return r.FindAllBudgets(ctx, BudgetFilter{IsActive: &active, Period: &period})
}

// FindBudgetsByScenario returns every budget in a scenario.
func (r *GormRepository) FindBudgetsByScenario(ctx context.Context, scenarioID string) ([]models.Budget, error) {
	return r.FindAllBudgets(ctx, BudgetFilter{ScenarioID: &scenarioID})
}

// FindBudgetsByActiveScenario returns the active budgets of the active
// scenario, or nil when no scenario is active.
func (r *GormRepository) FindBudgetsByActiveScenario(ctx context.Context) ([]models.Budget, error) {
	var scenario models.BudgetScenario
	err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&scenario).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDB(err)
	}

	active := true
	return r.FindAllBudgets(ctx, BudgetFilter{IsActive: &active, ScenarioID: &scenario.ID})
}

// UpdateBudget saves every column of budget.
func (r *GormRepository) UpdateBudget(ctx context.Context, budget *models.Budget) error {
	return wrapDB(r.db.WithContext(ctx).Omit("Category").Save(budget).Error)
}

// DeleteBudget soft-deletes a budget.
func (r *GormRepository) DeleteBudget(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Budget{})
	if res.Error != nil {
		return wrapDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(apperrors.ErrBudgetNotFound, "Budget", id)
	}
	return nil
}

// CreateBudgetScenario inserts a scenario. New scenarios start inactive.
func (r *GormRepository) CreateBudgetScenario(ctx context.Context, scenario *models.BudgetScenario) error {
	scenario.IsActive = false
	return wrapDB(r.db.WithContext(ctx).Omit("Budgets").Create(scenario).Error)
}

// FindAllBudgetScenarios returns every scenario ordered by name.
func (r *GormRepository) FindAllBudgetScenarios(ctx context.Context) ([]models.BudgetScenario, error) {
	var scenarios []models.BudgetScenario
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&scenarios).Error; err != nil {
		return nil, wrapDB(err)
	}
	return scenarios, nil
}

// FindBudgetScenarioByID loads a scenario with its budgets.
func (r *GormRepository) FindBudgetScenarioByID(ctx context.Context, id string) (*models.BudgetScenario, error) {
	var scenario models.BudgetScenario
	if err := r.first(ctx, &scenario, apperrors.ErrScenarioNotFound, "Budget scenario", id, "Budgets"); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// ActivateBudgetScenario makes id the only active scenario.
func (r *GormRepository) ActivateBudgetScenario(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.BudgetScenario{}).
			Where("id <> ? AND is_active = ?", id, true).
			Update("is_active", false).Error
		if err != nil {
			return wrapDB(err)
		}
		res := tx.Model(&models.BudgetScenario{}).Where("id = ?", id).Update("is_active", true)
		if res.Error != nil {
			return wrapDB(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound(apperrors.ErrScenarioNotFound, "Budget scenario", id)
		}
		return nil
	})
}
