package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/analytics"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/matching"
	"fintrack/internal/models"
	"fintrack/internal/repository"
)

// MaxHistoryMonths bounds historical spending analysis.
const MaxHistoryMonths = 60

// budgetService handles budget-related business logic.
type budgetService struct {
	repo   repository.Repository
	alerts AlertServicer
	opts   options
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(repo repository.Repository, alerts AlertServicer, opts ...Option) BudgetServicer {
	return &budgetService{
		repo:   repo,
		alerts: alerts,
		opts:   newOptions(opts),
	}
}

func validateThresholds(thresholds []float64) error {
	for i, t := range thresholds {
		if t <= 0 || (i > 0 && t <= thresholds[i-1]) {
			return apperrors.ErrInvalidThresholds
		}
	}
	return nil
}

func validateBudget(b *models.Budget) error {
	if strings.TrimSpace(b.Name) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if b.Amount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !b.Period.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be monthly or yearly")
	}
	if b.EndDate != nil && !b.StartDate.Before(*b.EndDate) {
		return apperrors.ErrInvalidDateRange
	}
	return validateThresholds(b.AlertThresholds)
}

// CreateBudget creates a new budget for a category.
func (s *budgetService) CreateBudget(ctx context.Context, in BudgetInput) (*models.Budget, error) {
	budget, err := s.buildBudget(ctx, in)
	if err != nil {
		return nil, apperrors.Prefix("Failed to create budget", err)
	}
	if err := s.repo.CreateBudget(ctx, budget); err != nil {
		return nil, apperrors.Prefix("Failed to create budget", err)
	}
	return budget, nil
}

func (s *budgetService) buildBudget(ctx context.Context, in BudgetInput) (*models.Budget, error) {
	if in.Period == "" {
		in.Period = models.BudgetPeriodMonthly
	}
	if in.StartDate.IsZero() {
		now := s.opts.now()
		in.StartDate = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
	if in.Currency == "" {
		in.Currency = s.opts.defaultCurrency
	}
	thresholds := in.AlertThresholds
	if len(thresholds) == 0 {
		thresholds = append([]float64(nil), models.DefaultAlertThresholds...)
	}

	budget := &models.Budget{
		CategoryID:      in.CategoryID,
		ScenarioID:      in.ScenarioID,
		Name:            strings.TrimSpace(in.Name),
		Amount:          in.Amount,
		Currency:        strings.ToUpper(in.Currency),
		Period:          in.Period,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		IsActive:        true,
		AlertThresholds: thresholds,
	}
	if err := validateBudget(budget); err != nil {
		return nil, err
	}
	if in.CategoryID == "" {
		return nil, apperrors.ErrCategoryRequired
	}
	if _, err := s.repo.GetCategoryByID(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	if in.ScenarioID != nil {
		if _, err := s.repo.FindBudgetScenarioByID(ctx, *in.ScenarioID); err != nil {
			return nil, err
		}
	}
	return budget, nil
}

// GetBudgets lists budgets, newest first.
func (s *budgetService) GetBudgets(ctx context.Context, filter repository.BudgetFilter) ([]models.Budget, error) {
	return s.repo.FindAllBudgets(ctx, filter)
}

// GetBudgetByID returns a single budget with its category.
func (s *budgetService) GetBudgetByID(ctx context.Context, id string) (*models.Budget, error) {
	return s.repo.FindBudgetByID(ctx, id)
}

// UpdateBudget applies the non-nil fields of update and re-validates the budget.
func (s *budgetService) UpdateBudget(ctx context.Context, id string, update BudgetUpdate) (*models.Budget, error) {
	budget, err := s.repo.FindBudgetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		budget.Name = strings.TrimSpace(*update.Name)
	}
	if update.Amount != nil {
		budget.Amount = *update.Amount
	}
	if update.Period != nil {
		budget.Period = *update.Period
	}
	if update.StartDate != nil {
		budget.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		budget.EndDate = update.EndDate
	}
	if update.ClearEndDate {
		budget.EndDate = nil
	}
	if update.IsActive != nil {
		budget.IsActive = *update.IsActive
	}
	if update.AlertThresholds != nil {
		budget.AlertThresholds = update.AlertThresholds
	}
	if update.ScenarioID != nil {
		if *update.ScenarioID == "" {
			budget.ScenarioID = nil
		} else {
			if _, err := s.repo.FindBudgetScenarioByID(ctx, *update.ScenarioID); err != nil {
				return nil, apperrors.Prefix("Failed to update budget", err)
			}
			budget.ScenarioID = update.ScenarioID
		}
	}

	if err := validateBudget(budget); err != nil {
		return nil, apperrors.Prefix("Failed to update budget", err)
	}
	if err := s.repo.UpdateBudget(ctx, budget); err != nil {
		return nil, apperrors.Prefix("Failed to update budget", err)
	}
	return budget, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(ctx context.Context, id string) error {
	if err := s.repo.DeleteBudget(ctx, id); err != nil {
		return apperrors.Prefix("Failed to delete budget", err)
	}
	return nil
}

// GetBudgetProgress computes the budget's progress in its current period and
// raises any threshold or projection alerts it has newly crossed.
func (s *budgetService) GetBudgetProgress(ctx context.Context, id string) (*analytics.BudgetProgress, error) {
	budget, err := s.repo.FindBudgetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := progressFor(ctx, s.repo, budget, s.opts.now())
	if err != nil {
		return nil, err
	}
	s.checkAlerts(ctx, budget, p)
	return p, nil
}

// activeBudgets returns the budgets of the active scenario, or every active
// budget when no scenario is active.
func (s *budgetService) activeBudgets(ctx context.Context) ([]models.Budget, error) {
	budgets, err := s.repo.FindBudgetsByActiveScenario(ctx)
	if err != nil {
		return nil, err
	}
	if budgets != nil {
		active := budgets[:0]
		for _, b := range budgets {
			if b.IsActive {
				active = append(active, b)
			}
		}
		return active, nil
	}
	isActive := true
	return s.repo.FindAllBudgets(ctx, repository.BudgetFilter{IsActive: &isActive})
}

// GetAllBudgetProgress computes the progress of every active budget concurrently.
func (s *budgetService) GetAllBudgetProgress(ctx context.Context) ([]analytics.BudgetProgress, error) {
	budgets, err := s.activeBudgets(ctx)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	results := make([]analytics.BudgetProgress, len(budgets))
	g, gctx := errgroup.WithContext(ctx)
	for i := range budgets {
		i := i
		b := &budgets[i]
		g.Go(func() error {
			p, err := progressFor(gctx, s.repo, b, now)
			if err != nil {
				return err
			}
			s.checkAlerts(gctx, b, p)
			results[i] = *p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// checkAlerts raises each configured threshold and the projection alert at
// most once per budget period.
func (s *budgetService) checkAlerts(ctx context.Context, b *models.Budget, p *analytics.BudgetProgress) {
	raised, err := s.repo.FindBudgetAlertsSince(ctx, b.ID, models.AlertTypeThreshold, p.PeriodStart)
	if err != nil {
		logger.Get().Errorw("failed to load threshold alerts", "error", err, "budget_id", b.ID)
		return
	}
	seen := make(map[float64]bool, len(raised))
	for _, a := range raised {
		if a.ThresholdPercentage != nil {
			seen[*a.ThresholdPercentage] = true
		}
	}
	for _, t := range b.AlertThresholds {
		if p.PercentageSpent < t || seen[t] {
			continue
		}
		threshold := t
		msg := fmt.Sprintf("Budget %q has reached %.0f%% (%s of %s spent)",
			b.Name, t, matching.FormatMoney(p.CurrentSpent), matching.FormatMoney(b.Amount))
		s.alerts.Raise(ctx, b.ID, models.AlertTypeThreshold, &threshold, msg)
	}

	if p.ProjectedSpent <= b.Amount {
		return
	}
	projected, err := s.repo.FindBudgetAlertsSince(ctx, b.ID, models.AlertTypeProjection, p.PeriodStart)
	if err != nil {
		logger.Get().Errorw("failed to load projection alerts", "error", err, "budget_id", b.ID)
		return
	}
	if len(projected) > 0 {
		return
	}
	msg := fmt.Sprintf("Budget %q is projected to reach %s, above its %s limit",
		b.Name, matching.FormatMoney(p.ProjectedSpent), matching.FormatMoney(b.Amount))
	s.alerts.Raise(ctx, b.ID, models.AlertTypeProjection, nil, msg)
}

// AnalyzeHistoricalSpending analyzes the category's spend over the given
// number of complete months before the current one.
func (s *budgetService) AnalyzeHistoricalSpending(ctx context.Context, categoryID string, months int) (*analytics.SpendingAnalysis, error) {
	if months <= 0 || months > MaxHistoryMonths {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("months must be between 1 and %d", MaxHistoryMonths))
	}
	if _, err := s.repo.GetCategoryByID(ctx, categoryID); err != nil {
		return nil, err
	}
	subMonthly, _, err := subscriptionMonthlyForCategory(ctx, s.repo, categoryID)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, categoryID, months, subMonthly)
}

func (s *budgetService) analyze(ctx context.Context, categoryID string, months int, subMonthly float64) (*analytics.SpendingAnalysis, error) {
	start, end := analytics.HistoryWindow(s.opts.now(), months)
	txs, err := s.repo.FindTransactionsByCategory(ctx, categoryID, start, end)
	if err != nil {
		return nil, err
	}
	a := analytics.AnalyzeSpending(categoryID, analytics.BucketByMonth(txs, start, months), subMonthly)
	return &a, nil
}

// GetBudgetVariance compares each elapsed month of the budget with its
// monthly amount.
func (s *budgetService) GetBudgetVariance(ctx context.Context, id string) (*analytics.VarianceAnalysis, error) {
	budget, err := s.repo.FindBudgetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	actuals := make(map[string]float64)
	if start, end, ok := analytics.VarianceWindow(budget, now); ok {
		txs, err := s.repo.FindTransactionsByCategory(ctx, budget.CategoryID, start, end)
		if err != nil {
			return nil, err
		}
		for _, tx := range txs {
			if tx.IsExpense() {
				actuals[analytics.MonthKey(tx.Date)] += tx.Spent()
			}
		}
	}

	v := analytics.CalculateBudgetVariance(budget, actuals, now)
	return &v, nil
}

// GetBudgetProjection projects the budget to the end of its current period.
func (s *budgetService) GetBudgetProjection(ctx context.Context, id string) (*analytics.BudgetProjection, error) {
	p, err := s.GetBudgetProgress(ctx, id)
	if err != nil {
		return nil, err
	}
	projection := analytics.ProjectBudgetPerformance(*p)
	return &projection, nil
}

// GetBudgetSuggestions analyzes the 3, 6 and 12 month windows concurrently
// and suggests budget tiers for the category.
func (s *budgetService) GetBudgetSuggestions(ctx context.Context, categoryID string, period models.BudgetPeriod) (*BudgetSuggestions, error) {
	if period == "" {
		period = models.BudgetPeriodMonthly
	}
	if !period.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be monthly or yearly")
	}
	if _, err := s.repo.GetCategoryByID(ctx, categoryID); err != nil {
		return nil, err
	}
	subMonthly, hasSubs, err := subscriptionMonthlyForCategory(ctx, s.repo, categoryID)
	if err != nil {
		return nil, err
	}

	analyses := make([]analytics.SpendingAnalysis, len(analytics.SuggestionWindows))
	g, gctx := errgroup.WithContext(ctx)
	for i, months := range analytics.SuggestionWindows {
		i, months := i, months
		g.Go(func() error {
			a, err := s.analyze(gctx, categoryID, months, subMonthly)
			if err != nil {
				return err
			}
			analyses[i] = *a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &BudgetSuggestions{
		Suggestions:  analytics.GenerateSuggestions(categoryID, analyses, subMonthly, hasSubs, period),
		PrimaryTiers: analytics.CalculateBudgetTiers(analyses, subMonthly, period),
	}, nil
}

// CreateScenario creates an inactive budget scenario.
func (s *budgetService) CreateScenario(ctx context.Context, name, description string) (*models.BudgetScenario, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Prefix("Failed to create scenario", apperrors.WithMessage(apperrors.ErrInvalidInput, "scenario name is required"))
	}
	scenario := &models.BudgetScenario{Name: name, Description: description}
	if err := s.repo.CreateBudgetScenario(ctx, scenario); err != nil {
		return nil, apperrors.Prefix("Failed to create scenario", err)
	}
	return scenario, nil
}

// GetScenarios lists every scenario by name.
func (s *budgetService) GetScenarios(ctx context.Context) ([]models.BudgetScenario, error) {
	return s.repo.FindAllBudgetScenarios(ctx)
}

// ActivateScenario makes id the only active scenario.
func (s *budgetService) ActivateScenario(ctx context.Context, id string) (*models.BudgetScenario, error) {
	if err := s.repo.ActivateBudgetScenario(ctx, id); err != nil {
		return nil, apperrors.Prefix("Failed to activate scenario", err)
	}
	return s.repo.FindBudgetScenarioByID(ctx, id)
}
