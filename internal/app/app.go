// Package app wires configuration, storage and services for the entry points.
package app

import (
	"fmt"

	"gorm.io/gorm"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/projection"
	"fintrack/internal/repository"
	"fintrack/internal/services"
)

// Services bundles every service an entry point may need.
type Services struct {
	Categories    services.CategoryServicer
	Transactions  services.TransactionServicer
	Subscriptions services.SubscriptionServicer
	Budgets       services.BudgetServicer
	Alerts        services.AlertServicer
	Projections   services.ProjectionServicer
	Audit         services.AuditServicer
}

// OpenDatabase connects to the configured database and brings its schema up
// to date.
func OpenDatabase(cfg *config.Config) (*database.Manager, error) {
	dbConfig, err := database.NewConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.Migrate(); err != nil {
		_ = dbManager.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return dbManager, nil
}

// ProjectionConfig is the engine configuration taken from cfg.
func ProjectionConfig(cfg *config.Config) projection.Config {
	return projection.Config{
		AnnualReturnRate: cfg.ProjectionReturnRate,
		InflationRate:    cfg.ProjectionInflationRate,
		Compounding:      projection.Compounding(cfg.ProjectionCompounding),
	}
}

// NewServices builds the services over db.
func NewServices(db *gorm.DB, cfg *config.Config) *Services {
	repo := repository.New(db)
	opts := []services.Option{
		services.WithDefaultCurrency(cfg.DefaultCurrency),
		services.WithRenewalLookahead(cfg.RenewalLookaheadDays),
	}

	alerts := services.NewAlertService(repo)
	return &Services{
		Categories:    services.NewCategoryService(repo),
		Transactions:  services.NewTransactionService(repo, alerts, opts...),
		Subscriptions: services.NewSubscriptionService(repo, alerts, opts...),
		Budgets:       services.NewBudgetService(repo, alerts, opts...),
		Alerts:        alerts,
		Projections:   services.NewProjectionService(repo, projection.NewEngine(ProjectionConfig(cfg))),
		Audit:         services.NewAuditService(repo),
	}
}
