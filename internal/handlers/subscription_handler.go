package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/services"
	"fintrack/internal/subscription"
)

// SubscriptionHandler handles subscription-related requests.
type SubscriptionHandler struct {
	subscriptionService services.SubscriptionServicer
	auditService        services.AuditServicer
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService services.SubscriptionServicer, auditService services.AuditServicer) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService, auditService: auditService}
}

// CreateSubscriptionRequest represents the request payload for creating a subscription.
type CreateSubscriptionRequest struct {
	Name                string                  `json:"name" binding:"required,max=200"`
	Amount              float64                 `json:"amount" binding:"required,gt=0,money"`
	Currency            string                  `json:"currency" binding:"omitempty,iso4217"`
	BillingFrequency    models.BillingFrequency `json:"billing_frequency" binding:"required,billing_frequency"`
	CustomFrequencyDays *int                    `json:"custom_frequency_days" binding:"omitempty,gt=0"`
	NextPaymentDate     *time.Time              `json:"next_payment_date"`
	CategoryID          string                  `json:"category_id" binding:"required,uuid"`
	StartDate           *time.Time              `json:"start_date"`
	EndDate             *time.Time              `json:"end_date"`
	UsageRating         *int                    `json:"usage_rating" binding:"omitempty,min=1,max=5"`
	Notes               string                  `json:"notes" binding:"max=1000"`
}

// UpdateSubscriptionRequest represents the request payload for updating a subscription.
type UpdateSubscriptionRequest struct {
	Name                *string                  `json:"name" binding:"omitempty,min=1,max=200"`
	Amount              *float64                 `json:"amount" binding:"omitempty,gt=0,money"`
	BillingFrequency    *models.BillingFrequency `json:"billing_frequency" binding:"omitempty,billing_frequency"`
	CustomFrequencyDays *int                     `json:"custom_frequency_days" binding:"omitempty,gt=0"`
	NextPaymentDate     *time.Time               `json:"next_payment_date"`
	CategoryID          *string                  `json:"category_id" binding:"omitempty,uuid"`
	IsActive            *bool                    `json:"is_active"`
	EndDate             *time.Time               `json:"end_date"`
	UsageRating         *int                     `json:"usage_rating" binding:"omitempty,min=1,max=5"`
	LastUsedAt          *time.Time               `json:"last_used_at"`
	Notes               *string                  `json:"notes" binding:"omitempty,max=1000"`
}

// ConfirmSubscriptionRequest turns a detected candidate into a subscription,
// optionally correcting what detection guessed.
type ConfirmSubscriptionRequest struct {
	Candidate       subscription.Candidate `json:"candidate"`
	Name            *string                `json:"name" binding:"omitempty,min=1,max=200"`
	Amount          *float64               `json:"amount" binding:"omitempty,gt=0,money"`
	CategoryID      *string                `json:"category_id" binding:"omitempty,uuid"`
	NextPaymentDate *time.Time             `json:"next_payment_date"`
	Notes           string                 `json:"notes" binding:"max=1000"`
}

// AddPatternRequest represents a hand-written matching pattern.
type AddPatternRequest struct {
	Pattern     string             `json:"pattern" binding:"required,max=200"`
	PatternType models.PatternType `json:"pattern_type" binding:"required,pattern_type"`
}

// PatternFeedbackRequest reports whether a pattern matched correctly.
type PatternFeedbackRequest struct {
	WasCorrect *bool `json:"was_correct" binding:"required"`
}

// CreateSubscription handles the creation of a subscription by hand.
// @Summary     Create a subscription
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Param       request body CreateSubscriptionRequest true "Subscription details"
// @Success     201 {object} models.Subscription "Subscription created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.SubscriptionInput{
		Name:                req.Name,
		Amount:              req.Amount,
		Currency:            req.Currency,
		BillingFrequency:    req.BillingFrequency,
		CustomFrequencyDays: req.CustomFrequencyDays,
		CategoryID:          req.CategoryID,
		EndDate:             req.EndDate,
		UsageRating:         req.UsageRating,
		Notes:               req.Notes,
	}
	if req.NextPaymentDate != nil {
		in.NextPaymentDate = *req.NextPaymentDate
	}
	if req.StartDate != nil {
		in.StartDate = *req.StartDate
	}

	sub, err := h.subscriptionService.CreateSubscription(c.Request.Context(), in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "CREATE_SUBSCRIPTION", "subscription", sub.ID, c.ClientIP(),
		map[string]any{"name": sub.Name, "amount": sub.Amount, "billing_frequency": sub.BillingFrequency})

	c.JSON(http.StatusCreated, gin.H{"subscription": sub})
}

// GetSubscriptions handles listing subscriptions.
// @Summary     Get subscriptions
// @Tags        subscriptions
// @Produce     json
// @Success     200 {array}  models.Subscription "Subscriptions"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subscriptions [get]
func (h *SubscriptionHandler) GetSubscriptions(c *gin.Context) {
	subs, err := h.subscriptionService.GetSubscriptions(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

// GetSubscription handles retrieving a subscription with its patterns.
// @Summary     Get subscription by ID
// @Tags        subscriptions
// @Produce     json
// @Param       id path string true "Subscription ID"
// @Success     200 {object} models.Subscription "Subscription details"
// @Failure     400 {object} ErrorResponse "Invalid subscription ID"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id} [get]
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	sub, err := h.subscriptionService.GetSubscriptionByID(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// UpdateSubscription handles updating a subscription. Changes raise alerts on
// the budgets of the affected categories.
// @Summary     Update subscription
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Param       id      path string                    true "Subscription ID"
// @Param       request body UpdateSubscriptionRequest true "Changes"
// @Success     200 {object} models.Subscription "Updated subscription"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id} [put]
func (h *SubscriptionHandler) UpdateSubscription(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	sub, err := h.subscriptionService.UpdateSubscription(c.Request.Context(), id, services.SubscriptionUpdate{
		Name:                req.Name,
		Amount:              req.Amount,
		BillingFrequency:    req.BillingFrequency,
		CustomFrequencyDays: req.CustomFrequencyDays,
		NextPaymentDate:     req.NextPaymentDate,
		CategoryID:          req.CategoryID,
		IsActive:            req.IsActive,
		EndDate:             req.EndDate,
		UsageRating:         req.UsageRating,
		LastUsedAt:          req.LastUsedAt,
		Notes:               req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "UPDATE_SUBSCRIPTION", "subscription", id, c.ClientIP(),
		map[string]any{"amount": sub.Amount, "billing_frequency": sub.BillingFrequency, "is_active": sub.IsActive})

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// DeleteSubscription handles deleting a subscription. Its transactions are
// unlinked and its patterns removed.
// @Summary     Delete subscription
// @Tags        subscriptions
// @Produce     json
// @Param       id path string true "Subscription ID"
// @Success     200 {object} MessageResponse "Subscription deleted"
// @Failure     400 {object} ErrorResponse "Invalid subscription ID"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id} [delete]
func (h *SubscriptionHandler) DeleteSubscription(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.subscriptionService.DeleteSubscription(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "DELETE_SUBSCRIPTION", "subscription", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Subscription deleted successfully"})
}

// CancelSubscription handles cancelling a subscription.
// @Summary     Cancel subscription
// @Description Deactivate a subscription, end it today and unlink its transactions
// @Tags        subscriptions
// @Produce     json
// @Param       id path string true "Subscription ID"
// @Success     200 {object} models.Subscription "Cancelled subscription"
// @Failure     400 {object} ErrorResponse "Invalid subscription ID"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id}/cancel [post]
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	sub, err := h.subscriptionService.CancelSubscription(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "CANCEL_SUBSCRIPTION", "subscription", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// GetSubscriptionTransactions handles listing the transactions linked to a subscription.
// @Summary     Get subscription transactions
// @Tags        subscriptions
// @Produce     json
// @Param       id path string true "Subscription ID"
// @Success     200 {array}  models.Transaction "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid subscription ID"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id}/transactions [get]
func (h *SubscriptionHandler) GetSubscriptionTransactions(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txs, err := h.subscriptionService.GetSubscriptionTransactions(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// GetUpcomingRenewals handles listing subscriptions that renew soon.
// @Summary     Get upcoming renewals
// @Tags        subscriptions
// @Produce     json
// @Param       days query int false "Look-ahead window in days (default from configuration)"
// @Success     200 {array}  models.Subscription "Renewing subscriptions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /subscriptions/upcoming [get]
func (h *SubscriptionHandler) GetUpcomingRenewals(c *gin.Context) {
	days, err := queryInt(c, "days", 0)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if days < 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "days must not be negative"))
		return
	}

	subs, err := h.subscriptionService.GetUpcomingRenewals(c.Request.Context(), days)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

// GetUnusedSubscriptions handles listing subscriptions not used recently.
// @Summary     Get unused subscriptions
// @Tags        subscriptions
// @Produce     json
// @Param       days query int false "Days without use (default 60)"
// @Success     200 {array}  models.Subscription "Unused subscriptions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /subscriptions/unused [get]
func (h *SubscriptionHandler) GetUnusedSubscriptions(c *gin.Context) {
	days, err := queryInt(c, "days", services.DefaultUnusedDays)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if days <= 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "days must be positive"))
		return
	}

	subs, err := h.subscriptionService.GetUnusedSubscriptions(c.Request.Context(), days)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

// GetMonthlyCost handles the monthly total of active subscriptions.
// @Summary     Get monthly subscription cost
// @Tags        subscriptions
// @Produce     json
// @Success     200 {object} map[string]float64 "Monthly cost"
// @Router      /subscriptions/monthly-cost [get]
func (h *SubscriptionHandler) GetMonthlyCost(c *gin.Context) {
	total, err := h.subscriptionService.GetMonthlyCost(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"monthly_cost": total})
}

// DetectSubscriptions handles scanning transactions for recurring payments.
// @Summary     Detect subscriptions
// @Description Scan unlinked expenses for recurring payments and return candidates
// @Tags        subscriptions
// @Produce     json
// @Success     200 {array} subscription.Candidate "Candidates"
// @Router      /subscriptions/detect [get]
func (h *SubscriptionHandler) DetectSubscriptions(c *gin.Context) {
	candidates, err := h.subscriptionService.DetectSubscriptions(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

// ConfirmSubscription handles confirming a detected candidate.
// @Summary     Confirm a detected subscription
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Param       request body ConfirmSubscriptionRequest true "Candidate and overrides"
// @Success     201 {object} models.Subscription "Subscription created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /subscriptions/confirm [post]
func (h *SubscriptionHandler) ConfirmSubscription(c *gin.Context) {
	var req ConfirmSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	sub, err := h.subscriptionService.ConfirmSubscription(c.Request.Context(), req.Candidate, services.ConfirmOverrides{
		Name:            req.Name,
		Amount:          req.Amount,
		CategoryID:      req.CategoryID,
		NextPaymentDate: req.NextPaymentDate,
		Notes:           req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "CONFIRM_SUBSCRIPTION", "subscription", sub.ID, c.ClientIP(),
		map[string]any{"name": sub.Name, "transactions": len(req.Candidate.MatchingTransactions)})

	c.JSON(http.StatusCreated, gin.H{"subscription": sub})
}

// Reconcile handles linking new transactions to their subscriptions.
// @Summary     Reconcile subscriptions
// @Description Link recent transactions to subscriptions and roll payment dates forward
// @Tags        subscriptions
// @Produce     json
// @Success     200 {object} subscription.ReconcileResult "Reconciliation result"
// @Router      /subscriptions/reconcile [post]
func (h *SubscriptionHandler) Reconcile(c *gin.Context) {
	result, err := h.subscriptionService.Reconcile(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "RECONCILE_SUBSCRIPTIONS", "subscription", "", c.ClientIP(),
		map[string]any{"processed": result.Processed, "updated": result.Updated})

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetMatches handles previewing pattern matches without linking anything.
// @Summary     Match transactions
// @Tags        subscriptions
// @Produce     json
// @Success     200 {array} subscription.Match "Matches"
// @Router      /subscriptions/matches [get]
func (h *SubscriptionHandler) GetMatches(c *gin.Context) {
	matches, err := h.subscriptionService.MatchTransactions(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// AddPattern handles attaching a user pattern to a subscription.
// @Summary     Add a subscription pattern
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Param       id      path string            true "Subscription ID"
// @Param       request body AddPatternRequest true "Pattern"
// @Success     201 {object} models.SubscriptionPattern "Pattern created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id}/patterns [post]
func (h *SubscriptionHandler) AddPattern(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddPatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	pattern, err := h.subscriptionService.AddPattern(c.Request.Context(), id, req.Pattern, req.PatternType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "ADD_PATTERN", "subscription_pattern", pattern.ID, c.ClientIP(),
		map[string]any{"subscription_id": id, "pattern": pattern.Pattern, "pattern_type": pattern.PatternType})

	c.JSON(http.StatusCreated, gin.H{"pattern": pattern})
}

// RecordPatternFeedback handles feedback on a pattern's match.
// @Summary     Record pattern feedback
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Param       id      path string                 true "Pattern ID"
// @Param       request body PatternFeedbackRequest true "Feedback"
// @Success     200 {object} models.SubscriptionPattern "Updated pattern"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Pattern not found"
// @Router      /subscriptions/patterns/{id}/feedback [post]
func (h *SubscriptionHandler) RecordPatternFeedback(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PatternFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	pattern, err := h.subscriptionService.RecordPatternFeedback(c.Request.Context(), id, *req.WasCorrect)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pattern": pattern})
}
