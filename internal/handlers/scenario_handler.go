package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fintrack/internal/services"
)

// ScenarioHandler handles budget scenario requests.
type ScenarioHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewScenarioHandler creates a new ScenarioHandler.
func NewScenarioHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *ScenarioHandler {
	return &ScenarioHandler{budgetService: budgetService, auditService: auditService}
}

// CreateScenarioRequest represents the request payload for creating a scenario.
type CreateScenarioRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// CreateScenario handles the creation of a budget scenario.
// @Summary     Create a scenario
// @Tags        scenarios
// @Accept      json
// @Produce     json
// @Param       request body CreateScenarioRequest true "Scenario details"
// @Success     201 {object} models.BudgetScenario "Scenario created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /scenarios [post]
func (h *ScenarioHandler) CreateScenario(c *gin.Context) {
	var req CreateScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	scenario, err := h.budgetService.CreateScenario(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "CREATE_SCENARIO", "budget_scenario", scenario.ID, c.ClientIP(),
		map[string]any{"name": scenario.Name})

	c.JSON(http.StatusCreated, gin.H{"scenario": scenario})
}

// GetScenarios handles listing scenarios.
// @Summary     Get scenarios
// @Tags        scenarios
// @Produce     json
// @Success     200 {array} models.BudgetScenario "Scenarios"
// @Router      /scenarios [get]
func (h *ScenarioHandler) GetScenarios(c *gin.Context) {
	scenarios, err := h.budgetService.GetScenarios(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scenarios": scenarios})
}

// ActivateScenario handles making a scenario the active one.
// @Summary     Activate a scenario
// @Description Activate a scenario and deactivate every other
// @Tags        scenarios
// @Produce     json
// @Param       id path string true "Scenario ID"
// @Success     200 {object} models.BudgetScenario "Active scenario"
// @Failure     400 {object} ErrorResponse "Invalid scenario ID"
// @Failure     404 {object} ErrorResponse "Scenario not found"
// @Router      /scenarios/{id}/activate [post]
func (h *ScenarioHandler) ActivateScenario(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	scenario, err := h.budgetService.ActivateScenario(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "ACTIVATE_SCENARIO", "budget_scenario", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"scenario": scenario})
}
