package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/projection"
	"fintrack/internal/services"
)

// ProjectionHandler handles investment projection requests.
type ProjectionHandler struct {
	projectionService services.ProjectionServicer
}

// NewProjectionHandler creates a new ProjectionHandler.
func NewProjectionHandler(projectionService services.ProjectionServicer) *ProjectionHandler {
	return &ProjectionHandler{projectionService: projectionService}
}

// ProjectionOptions overrides the configured return assumptions.
type ProjectionOptions struct {
	AnnualReturnRate *float64               `json:"annual_return_rate" binding:"omitempty,gte=-1,lte=1"`
	InflationRate    *float64               `json:"inflation_rate" binding:"omitempty,gte=-1,lte=1"`
	Compounding      *projection.Compounding `json:"compounding" binding:"omitempty,oneof=monthly annual"`
}

func (o ProjectionOptions) options() projection.Options {
	return projection.Options{
		AnnualReturnRate: o.AnnualReturnRate,
		InflationRate:    o.InflationRate,
		Compounding:      o.Compounding,
	}
}

// CompoundReturnsRequest represents the request payload for a compound return projection.
type CompoundReturnsRequest struct {
	ProjectionOptions
	MonthlyAmount float64 `json:"monthly_amount" binding:"required,gt=0"`
	Years         float64 `json:"years" binding:"required,gt=0,lte=100"`
}

// CompareCostRequest represents an ad-hoc recurring cost to weigh against investing.
type CompareCostRequest struct {
	ProjectionOptions
	Name                string                  `json:"name" binding:"max=200"`
	Amount              float64                 `json:"amount" binding:"required,gt=0"`
	BillingFrequency    models.BillingFrequency `json:"billing_frequency" binding:"required,billing_frequency"`
	CustomFrequencyDays *int                    `json:"custom_frequency_days" binding:"omitempty,gt=0"`
}

// CompoundReturns handles the future value of a monthly investment.
// @Summary     Project compound returns
// @Tags        projections
// @Accept      json
// @Produce     json
// @Param       request body CompoundReturnsRequest true "Projection parameters"
// @Success     200 {object} map[string]float64 "Future value"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /projections/compound [post]
func (h *ProjectionHandler) CompoundReturns(c *gin.Context) {
	var req CompoundReturnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	value := h.projectionService.CompoundReturns(req.MonthlyAmount, req.Years, req.options())
	c.JSON(http.StatusOK, gin.H{"future_value": value})
}

// CompareCost handles weighing an ad-hoc recurring cost against investing it.
// @Summary     Compare a recurring cost with investing
// @Tags        projections
// @Accept      json
// @Produce     json
// @Param       request body CompareCostRequest true "Recurring cost"
// @Success     200 {object} projection.Comparison "Comparison"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /projections/compare [post]
func (h *ProjectionHandler) CompareCost(c *gin.Context) {
	var req CompareCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	comparison, err := h.projectionService.CompareCost(req.Name, req.Amount, req.BillingFrequency, req.CustomFrequencyDays, req.options())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comparison": comparison})
}

// CompareSubscription handles weighing a stored subscription against investing its cost.
// @Summary     Compare a subscription with investing
// @Tags        subscriptions
// @Produce     json
// @Param       id          path  string true  "Subscription ID"
// @Param       rate        query number false "Annual return rate, e.g. 0.07"
// @Param       inflation   query number false "Annual inflation rate, e.g. 0.025"
// @Param       compounding query string false "monthly or annual"
// @Success     200 {object} projection.Comparison "Comparison"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id}/projection [get]
func (h *ProjectionHandler) CompareSubscription(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	opts, err := queryProjectionOptions(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	comparison, err := h.projectionService.CompareSubscription(c.Request.Context(), id, opts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comparison": comparison})
}

func queryProjectionOptions(c *gin.Context) (projection.Options, error) {
	var opts projection.Options
	for param, dst := range map[string]**float64{
		"rate":      &opts.AnnualReturnRate,
		"inflation": &opts.InflationRate,
	} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < -1 || f > 1 {
			return opts, apperrors.WithMessage(apperrors.ErrInvalidInput, param+" must be a rate between -1 and 1")
		}
		*dst = &f
	}

	if v := c.Query("compounding"); v != "" {
		mode := projection.Compounding(v)
		if mode != projection.CompoundingMonthly && mode != projection.CompoundingAnnual {
			return opts, apperrors.WithMessage(apperrors.ErrInvalidInput, "compounding must be 'monthly' or 'annual'")
		}
		opts.Compounding = &mode
	}
	return opts, nil
}
