package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"fintrack/internal/app"
	"fintrack/internal/config"
	_ "fintrack/internal/docs" // Import swagger docs
	"fintrack/internal/handlers"
	"fintrack/internal/logger"
	"fintrack/internal/middleware"
	"fintrack/internal/validator"
)

// @title           fintrack API
// @version         1.0
// @description     Subscription detection, budget analytics and investment projections over imported bank transactions.

// @host      localhost:8080
// @BasePath  /api/v1

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := app.OpenDatabase(appConfig)
	if err != nil {
		return err
	}
	defer dbManager.Close()

	svc := app.NewServices(dbManager.DB(), appConfig)
	validator.Register()

	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           setupRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting fintrack server on port %s (%s)", appConfig.Port, appConfig.DBDriver)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupRouter(svc *app.Services) *gin.Engine {
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Audit)
	subscriptionHandler := handlers.NewSubscriptionHandler(svc.Subscriptions, svc.Audit)
	budgetHandler := handlers.NewBudgetHandler(svc.Budgets, svc.Audit)
	scenarioHandler := handlers.NewScenarioHandler(svc.Budgets, svc.Audit)
	alertHandler := handlers.NewAlertHandler(svc.Alerts)
	projectionHandler := handlers.NewProjectionHandler(svc.Projections)

	router := gin.New()
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Category routes
	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)

	// Transaction routes
	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.POST("/import", transactionHandler.ImportTransactions)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/summary", transactionHandler.GetSummary)
	transactions.GET("/:id", transactionHandler.GetTransaction)

	// Subscription routes
	subscriptions := v1.Group("/subscriptions")
	subscriptions.POST("", subscriptionHandler.CreateSubscription)
	subscriptions.GET("", subscriptionHandler.GetSubscriptions)
	subscriptions.GET("/upcoming", subscriptionHandler.GetUpcomingRenewals)
	subscriptions.GET("/unused", subscriptionHandler.GetUnusedSubscriptions)
	subscriptions.GET("/monthly-cost", subscriptionHandler.GetMonthlyCost)
	subscriptions.GET("/detect", subscriptionHandler.DetectSubscriptions)
	subscriptions.POST("/confirm", subscriptionHandler.ConfirmSubscription)
	subscriptions.POST("/reconcile", subscriptionHandler.Reconcile)
	subscriptions.GET("/matches", subscriptionHandler.GetMatches)
	subscriptions.POST("/patterns/:id/feedback", subscriptionHandler.RecordPatternFeedback)
	subscriptions.GET("/:id", subscriptionHandler.GetSubscription)
	subscriptions.PUT("/:id", subscriptionHandler.UpdateSubscription)
	subscriptions.DELETE("/:id", subscriptionHandler.DeleteSubscription)
	subscriptions.POST("/:id/cancel", subscriptionHandler.CancelSubscription)
	subscriptions.POST("/:id/patterns", subscriptionHandler.AddPattern)
	subscriptions.GET("/:id/transactions", subscriptionHandler.GetSubscriptionTransactions)
	subscriptions.GET("/:id/projection", projectionHandler.CompareSubscription)

	// Budget routes
	budgets := v1.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/progress", budgetHandler.GetAllBudgetProgress)
	budgets.GET("/suggestions/:categoryId", budgetHandler.GetBudgetSuggestions)
	budgets.GET("/history/:categoryId", budgetHandler.GetHistoricalSpending)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)
	budgets.GET("/:id/variance", budgetHandler.GetBudgetVariance)
	budgets.GET("/:id/projection", budgetHandler.GetBudgetProjection)

	// Scenario routes
	scenarios := v1.Group("/scenarios")
	scenarios.POST("", scenarioHandler.CreateScenario)
	scenarios.GET("", scenarioHandler.GetScenarios)
	scenarios.POST("/:id/activate", scenarioHandler.ActivateScenario)

	// Alert routes
	alerts := v1.Group("/alerts")
	alerts.GET("", alertHandler.GetAlerts)
	alerts.GET("/unread", alertHandler.GetUnreadAlerts)
	alerts.POST("/:id/read", alertHandler.MarkAsRead)

	// Projection routes
	projections := v1.Group("/projections")
	projections.POST("/compound", projectionHandler.CompoundReturns)
	projections.POST("/compare", projectionHandler.CompareCost)

	return router
}
