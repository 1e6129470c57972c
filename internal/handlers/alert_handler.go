package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/services"
)

// AlertHandler handles budget alert requests.
type AlertHandler struct {
	alertService services.AlertServicer
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alertService services.AlertServicer) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// GetAlerts handles listing alerts, newest first.
// @Summary     Get alerts
// @Tags        alerts
// @Produce     json
// @Param       budget_id query string false "Only alerts of this budget"
// @Success     200 {array}  models.BudgetAlert "Alerts"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Router      /alerts [get]
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	var budgetID *string
	if v := c.Query("budget_id"); v != "" {
		if _, err := uuid.Parse(v); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid budget_id"))
			return
		}
		budgetID = &v
	}

	alerts, err := h.alertService.GetAlerts(c.Request.Context(), budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// GetUnreadAlerts handles listing unread alerts.
// @Summary     Get unread alerts
// @Tags        alerts
// @Produce     json
// @Success     200 {array} models.BudgetAlert "Unread alerts"
// @Router      /alerts/unread [get]
func (h *AlertHandler) GetUnreadAlerts(c *gin.Context) {
	alerts, err := h.alertService.GetUnreadAlerts(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// MarkAsRead handles marking an alert as read.
// @Summary     Mark alert as read
// @Tags        alerts
// @Produce     json
// @Param       id path string true "Alert ID"
// @Success     200 {object} MessageResponse "Alert marked as read"
// @Failure     400 {object} ErrorResponse "Invalid alert ID"
// @Failure     404 {object} ErrorResponse "Alert not found"
// @Router      /alerts/{id}/read [post]
func (h *AlertHandler) MarkAsRead(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.alertService.MarkAsRead(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Alert marked as read"})
}
