package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/matching"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/repository"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	repo   repository.Repository
	alerts AlertServicer
	opts   options
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(repo repository.Repository, alerts AlertServicer, opts ...Option) TransactionServicer {
	return &transactionService{
		repo:   repo,
		alerts: alerts,
		opts:   newOptions(opts),
	}
}

// buildTransaction validates in and converts it into a model with a signed amount.
func (s *transactionService) buildTransaction(ctx context.Context, in TransactionInput) (*models.Transaction, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if in.Amount == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be zero")
	}

	if in.Type == "" {
		in.Type = models.TransactionTypeExpense
		if in.Amount > 0 {
			in.Type = models.TransactionTypeIncome
		}
	}
	amount := math.Abs(in.Amount)
	switch in.Type {
	case models.TransactionTypeExpense:
		amount = -amount
	case models.TransactionTypeIncome:
	case models.TransactionTypeTransfer:
		amount = in.Amount
	default:
		return nil, apperrors.ErrInvalidTransactionType
	}

	if in.Date.IsZero() {
		in.Date = s.opts.now()
	}
	if in.Currency == "" {
		in.Currency = s.opts.defaultCurrency
	}
	if in.CategoryID != nil {
		if _, err := s.repo.GetCategoryByID(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	return &models.Transaction{
		Date:        in.Date,
		Description: strings.TrimSpace(in.Description),
		Amount:      matching.RoundCents(amount),
		Currency:    strings.ToUpper(in.Currency),
		Type:        in.Type,
		CategoryID:  in.CategoryID,
	}, nil
}

// CreateTransaction records a single transaction and raises a large
// transaction alert on every budget of its category it takes more than
// 10% of.
func (s *transactionService) CreateTransaction(ctx context.Context, in TransactionInput) (*models.Transaction, error) {
	tx, err := s.buildTransaction(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, apperrors.Prefix("Failed to create transaction", err)
	}

	if tx.IsExpense() && tx.CategoryID != nil {
		s.checkLargeTransaction(ctx, tx)
	}
	return tx, nil
}

func (s *transactionService) checkLargeTransaction(ctx context.Context, tx *models.Transaction) {
	budgets, err := s.repo.FindBudgetsByCategory(ctx, *tx.CategoryID)
	if err != nil {
		logger.Get().Errorw("failed to load budgets for large transaction check", "error", err, "transaction_id", tx.ID)
		return
	}
	for i := range budgets {
		b := &budgets[i]
		if b.Amount <= 0 || tx.Spent() <= b.Amount*LargeTransactionRatio {
			continue
		}
		msg := fmt.Sprintf("Large transaction %q of %s %s is %.0f%% of budget %q",
			tx.Description, matching.FormatMoney(tx.Spent()), tx.Currency, tx.Spent()/b.Amount*100, b.Name)
		s.alerts.Raise(ctx, b.ID, models.AlertTypeLargeTransaction, nil, msg)
	}
}

// ImportTransactions validates every row before storing any of them, stores
// the batch and raises a bulk import alert on each budget whose category
// received more than 15% of its amount.
func (s *transactionService) ImportTransactions(ctx context.Context, in []TransactionInput) (*ImportResult, error) {
	if len(in) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "no transactions to import")
	}

	txs := make([]models.Transaction, 0, len(in))
	for i, row := range in {
		tx, err := s.buildTransaction(ctx, row)
		if err != nil {
			return nil, apperrors.Prefix(fmt.Sprintf("Row %d", i+1), err)
		}
		txs = append(txs, *tx)
	}

	if err := s.repo.CreateTransactions(ctx, txs); err != nil {
		return nil, apperrors.Prefix("Failed to import transactions", err)
	}

	byCategory := make(map[string]float64)
	for i := range txs {
		if txs[i].IsExpense() && txs[i].CategoryID != nil {
			byCategory[*txs[i].CategoryID] += txs[i].Spent()
		}
	}
	for categoryID, total := range byCategory {
		s.checkBulkImport(ctx, categoryID, total)
	}

	return &ImportResult{Imported: len(txs), Transactions: txs}, nil
}

func (s *transactionService) checkBulkImport(ctx context.Context, categoryID string, total float64) {
	budgets, err := s.repo.FindBudgetsByCategory(ctx, categoryID)
	if err != nil {
		logger.Get().Errorw("failed to load budgets for bulk import check", "error", err, "category_id", categoryID)
		return
	}
	for i := range budgets {
		b := &budgets[i]
		if b.Amount <= 0 || total <= b.Amount*BulkImportRatio {
			continue
		}
		msg := fmt.Sprintf("Imported expenses of %s are %.0f%% of budget %q",
			matching.FormatMoney(total), total/b.Amount*100, b.Name)
		s.alerts.Raise(ctx, b.ID, models.AlertTypeBulkImport, nil, msg)
	}
}

// GetTransactions returns a filtered page of transactions, newest first.
func (s *transactionService) GetTransactions(ctx context.Context, page pagination.PageRequest, filter repository.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if filter.FromDate != nil && filter.ToDate != nil && filter.FromDate.After(*filter.ToDate) {
		return nil, apperrors.ErrInvalidDateRange
	}
	return s.repo.FindTransactionsPage(ctx, filter, page)
}

// GetTransactionByID returns a single transaction.
func (s *transactionService) GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	return s.repo.FindTransactionByID(ctx, id)
}

// GetSummary totals income and expenses, optionally within a date range.
func (s *transactionService) GetSummary(ctx context.Context, from, to *time.Time) (*models.TransactionSummary, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, apperrors.ErrInvalidDateRange
	}
	return s.repo.CalculateSummary(ctx, from, to)
}
