package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/repository"
	"fintrack/internal/services"
)

// MaxImportRows bounds a single import request.
const MaxImportRows = 5000

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for creating a transaction.
// Expense amounts may be signed either way; they are stored negative.
type CreateTransactionRequest struct {
	Date        *time.Time             `json:"date"`
	Description string                 `json:"description" binding:"required,max=500"`
	Amount      float64                `json:"amount" binding:"required,ne=0,money"`
	Currency    string                 `json:"currency" binding:"omitempty,iso4217"`
	Type        models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	CategoryID  *string                `json:"category_id" binding:"omitempty,uuid"`
}

func (r CreateTransactionRequest) input() services.TransactionInput {
	in := services.TransactionInput{
		Description: r.Description,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Type:        r.Type,
		CategoryID:  r.CategoryID,
	}
	if r.Date != nil {
		in.Date = *r.Date
	}
	return in
}

// ImportTransactionsRequest represents a bulk import of transactions.
type ImportTransactionsRequest struct {
	Transactions []CreateTransactionRequest `json:"transactions" binding:"required,min=1,dive"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record a single income, expense or transfer
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request.Context(), req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]any{"type": transaction.Type, "amount": transaction.Amount})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// ImportTransactions handles a bulk import of transactions
// @Summary     Import transactions
// @Description Import a batch of transactions. Nothing is stored if any row is invalid.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body ImportTransactionsRequest true "Transactions"
// @Success     201 {object} services.ImportResult "Import result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/import [post]
func (h *TransactionHandler) ImportTransactions(c *gin.Context) {
	var req ImportTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	if len(req.Transactions) > MaxImportRows {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("at most %d transactions per import", MaxImportRows)))
		return
	}

	rows := make([]services.TransactionInput, len(req.Transactions))
	for i, r := range req.Transactions {
		rows[i] = r.input()
	}

	result, err := h.transactionService.ImportTransactions(c.Request.Context(), rows)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "IMPORT_TRANSACTIONS", "transaction", "", c.ClientIP(),
		map[string]any{"imported": result.Imported})

	c.JSON(http.StatusCreated, result)
}

// GetTransactions handles listing transactions
// @Summary     Get transactions
// @Description Get a paginated list of transactions, newest first, with optional filters
// @Tags        transactions
// @Produce     json
// @Param       page            query int    false "Page number (default 1)"
// @Param       page_size       query int    false "Items per page (default 20, max 100)"
// @Param       from_date       query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date         query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Param       type            query string false "Filter by transaction type (income, expense, transfer)"
// @Param       category_id     query string false "Filter by category ID"
// @Param       subscription_id query string false "Filter by subscription ID"
// @Param       search          query string false "Filter by description"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetTransactions(c.Request.Context(), page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransaction handles retrieving a specific transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// GetSummary handles the income/expense summary
// @Summary     Get transaction summary
// @Description Total income, total expenses and net over an optional date range
// @Tags        transactions
// @Produce     json
// @Param       from_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} models.TransactionSummary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Router      /transactions/summary [get]
func (h *TransactionHandler) GetSummary(c *gin.Context) {
	from, err := queryDate(c, "from_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := queryDate(c, "to_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.transactionService.GetSummary(c.Request.Context(), from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// parseTransactionFilter reads the optional list filters from the query string.
func parseTransactionFilter(c *gin.Context) (repository.TransactionFilter, error) {
	var filter repository.TransactionFilter
	var err error

	if filter.FromDate, err = queryDate(c, "from_date"); err != nil {
		return filter, err
	}
	if filter.ToDate, err = queryDate(c, "to_date"); err != nil {
		return filter, err
	}

	if v := c.Query("type"); v != "" {
		t := models.TransactionType(v)
		if !t.Valid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income, expense or transfer")
		}
		filter.Type = &t
	}

	for param, dst := range map[string]**string{
		"category_id":     &filter.CategoryID,
		"subscription_id": &filter.SubscriptionID,
	} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		if _, err := uuid.Parse(v); err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+param)
		}
		*dst = &v
	}

	filter.Search = c.Query("search")
	return filter, nil
}
