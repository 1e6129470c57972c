package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/repository"
	"fintrack/internal/services"
)

// DefaultHistoryMonths is the analysis window when none is requested.
const DefaultHistoryMonths = 6

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	CategoryID      string              `json:"category_id" binding:"required,uuid"`
	Name            string              `json:"name" binding:"required,min=1,max=100"`
	Amount          float64             `json:"amount" binding:"required,gt=0,money"`
	Currency        string              `json:"currency" binding:"omitempty,iso4217"`
	Period          models.BudgetPeriod `json:"period" binding:"omitempty,budget_period"`
	StartDate       *time.Time          `json:"start_date"`
	EndDate         *time.Time          `json:"end_date"`
	AlertThresholds []float64           `json:"alert_thresholds" binding:"omitempty,dive,gt=0"`
	ScenarioID      *string             `json:"scenario_id" binding:"omitempty,uuid"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
// An empty scenario_id detaches the budget from its scenario.
type UpdateBudgetRequest struct {
	Name            *string              `json:"name" binding:"omitempty,min=1,max=100"`
	Amount          *float64             `json:"amount" binding:"omitempty,gt=0,money"`
	Period          *models.BudgetPeriod `json:"period" binding:"omitempty,budget_period"`
	StartDate       *time.Time           `json:"start_date"`
	EndDate         *time.Time           `json:"end_date"`
	ClearEndDate    bool                 `json:"clear_end_date"`
	IsActive        *bool                `json:"is_active"`
	AlertThresholds []float64            `json:"alert_thresholds" binding:"omitempty,dive,gt=0"`
	ScenarioID      *string              `json:"scenario_id"`
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a new budget for a category
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.BudgetInput{
		CategoryID:      req.CategoryID,
		Name:            req.Name,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Period:          req.Period,
		EndDate:         req.EndDate,
		AlertThresholds: req.AlertThresholds,
		ScenarioID:      req.ScenarioID,
	}
	if req.StartDate != nil {
		in.StartDate = *req.StartDate
	}

	budget, err := h.budgetService.CreateBudget(c.Request.Context(), in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]any{"name": req.Name, "amount": req.Amount, "period": budget.Period})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgets handles listing budgets.
// @Summary     Get budgets
// @Description Get budgets with optional filters
// @Tags        budgets
// @Produce     json
// @Param       is_active   query bool   false "Filter by active status"
// @Param       period      query string false "Filter by period (monthly/yearly)"
// @Param       category_id query string false "Filter by category ID"
// @Param       scenario_id query string false "Filter by scenario ID"
// @Success     200 {array}  models.Budget "Budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	var filter repository.BudgetFilter
	var err error

	if filter.IsActive, err = queryBool(c, "is_active"); err != nil {
		respondWithError(c, err)
		return
	}

	if v := c.Query("period"); v != "" {
		p := models.BudgetPeriod(v)
		if !p.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be 'monthly' or 'yearly'"))
			return
		}
		filter.Period = &p
	}

	for param, dst := range map[string]**string{
		"category_id": &filter.CategoryID,
		"scenario_id": &filter.ScenarioID,
	} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		if _, err := uuid.Parse(v); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+param))
			return
		}
		*dst = &v
	}

	budgets, err := h.budgetService.GetBudgets(c.Request.Context(), filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// GetBudget handles retrieving a specific budget.
// @Summary     Get budget by ID
// @Tags        budgets
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.Budget "Budget details"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(c.Request.Context(), budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles updating an existing budget.
// @Summary     Update budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Updated budget details"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input or budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	budget, err := h.budgetService.UpdateBudget(c.Request.Context(), budgetID, services.BudgetUpdate{
		Name:            req.Name,
		Amount:          req.Amount,
		Period:          req.Period,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		ClearEndDate:    req.ClearEndDate,
		IsActive:        req.IsActive,
		AlertThresholds: req.AlertThresholds,
		ScenarioID:      req.ScenarioID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "UPDATE_BUDGET", "budget", budgetID, c.ClientIP(),
		map[string]any{"name": budget.Name, "amount": budget.Amount})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete budget
// @Description Delete a budget by ID (soft delete)
// @Tags        budgets
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(c.Request.Context(), budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "DELETE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}

// GetBudgetProgress handles retrieving the spending progress for a budget.
// @Summary     Get budget progress
// @Description Get spending progress for a budget in the current period. Crossing a threshold raises an alert.
// @Tags        budgets
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} analytics.BudgetProgress "Budget progress"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/progress [get]
func (h *BudgetHandler) GetBudgetProgress(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.budgetService.GetBudgetProgress(c.Request.Context(), budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// GetAllBudgetProgress handles the progress of every budget in play.
// @Summary     Get progress of all budgets
// @Description Progress of the active scenario's budgets, or of all active budgets when no scenario is active
// @Tags        budgets
// @Produce     json
// @Success     200 {array}  analytics.BudgetProgress "Budget progress"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/progress [get]
func (h *BudgetHandler) GetAllBudgetProgress(c *gin.Context) {
	progress, err := h.budgetService.GetAllBudgetProgress(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// GetBudgetVariance handles the budget-vs-actual comparison.
// @Summary     Get budget variance
// @Tags        budgets
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} analytics.VarianceAnalysis "Variance"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/variance [get]
func (h *BudgetHandler) GetBudgetVariance(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	variance, err := h.budgetService.GetBudgetVariance(c.Request.Context(), budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"variance": variance})
}

// GetBudgetProjection handles the end-of-period forecast.
// @Summary     Get budget projection
// @Tags        budgets
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} analytics.BudgetProjection "Projection"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/projection [get]
func (h *BudgetHandler) GetBudgetProjection(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	projection, err := h.budgetService.GetBudgetProjection(c.Request.Context(), budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projection": projection})
}

// GetBudgetSuggestions handles suggested budget amounts for a category.
// @Summary     Suggest budget amounts
// @Description Suggest conservative, moderate and aggressive amounts from spending history
// @Tags        budgets
// @Produce     json
// @Param       categoryId path  string true  "Category ID"
// @Param       period     query string false "Budget period (monthly/yearly, default monthly)"
// @Success     200 {object} services.BudgetSuggestions "Suggestions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /budgets/suggestions/{categoryId} [get]
func (h *BudgetHandler) GetBudgetSuggestions(c *gin.Context) {
	categoryID, err := parsePathID(c, "categoryId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	period := models.BudgetPeriod(c.DefaultQuery("period", string(models.BudgetPeriodMonthly)))

	suggestions, err := h.budgetService.GetBudgetSuggestions(c.Request.Context(), categoryID, period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// GetHistoricalSpending handles the spending analysis of a category.
// @Summary     Analyze historical spending
// @Tags        budgets
// @Produce     json
// @Param       categoryId path  string true  "Category ID"
// @Param       months     query int    false "Complete months to analyze (default 6, max 60)"
// @Success     200 {object} analytics.SpendingAnalysis "Spending analysis"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /budgets/history/{categoryId} [get]
func (h *BudgetHandler) GetHistoricalSpending(c *gin.Context) {
	categoryID, err := parsePathID(c, "categoryId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	months, err := queryInt(c, "months", DefaultHistoryMonths)
	if err != nil {
		respondWithError(c, err)
		return
	}

	analysis, err := h.budgetService.AnalyzeHistoricalSpending(c.Request.Context(), categoryID, months)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}
