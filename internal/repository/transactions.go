package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// CreateTransaction inserts a single transaction.
func (r *GormRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return wrapDB(r.db.WithContext(ctx).Create(tx).Error)
}

// CreateTransactions inserts an import batch atomically.
func (r *GormRepository) CreateTransactions(ctx context.Context, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	return wrapDB(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(txs, 100).Error
	}))
}

func (r *GormRepository) applyTransactionFilter(q *gorm.DB, filter TransactionFilter) *gorm.DB {
	if filter.FromDate != nil {
		q = q.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		q = q.Where("date <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SubscriptionID != nil {
		q = q.Where("subscription_id = ?", *filter.SubscriptionID)
	}
	if filter.Search != "" {
		q = q.Where("LOWER(description) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	return q
}

// FindAllTransactions returns every transaction matching filter, oldest first.
func (r *GormRepository) FindAllTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	var txs []models.Transaction
	q := r.applyTransactionFilter(r.db.WithContext(ctx).Model(&models.Transaction{}), filter)
	if err := q.Order("date ASC").Find(&txs).Error; err != nil {
		return nil, wrapDB(err)
	}
	return txs, nil
}

// FindTransactionsPage returns one page of transactions, newest first.
func (r *GormRepository) FindTransactionsPage(ctx context.Context, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page = page.Normalize()

	base := r.applyTransactionFilter(r.db.WithContext(ctx).Model(&models.Transaction{}), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, wrapDB(err)
	}

	var txs []models.Transaction
	if err := base.Preload("Category").Order("date DESC").Scopes(page.Scope).Find(&txs).Error; err != nil {
		return nil, wrapDB(err)
	}

	result := pagination.NewPageResponse(txs, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// FindTransactionByID loads a transaction.
func (r *GormRepository) FindTransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.first(ctx, &tx, apperrors.ErrTransactionNotFound, "Transaction", id, "Category"); err != nil {
		return nil, err
	}
	return &tx, nil
}

// FindTransactionsByDateRange returns transactions dated within [from, to].
func (r *GormRepository) FindTransactionsByDateRange(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	return r.FindAllTransactions(ctx, TransactionFilter{FromDate: &from, ToDate: &to})
}

// FindTransactionsByCategory returns a category's expense transactions within [from, to].
func (r *GormRepository) FindTransactionsByCategory(ctx context.Context, categoryID string, from, to time.Time) ([]models.Transaction, error) {
	expense := models.TransactionTypeExpense
	return r.FindAllTransactions(ctx, TransactionFilter{
		FromDate:   &from,
		ToDate:     &to,
		Type:       &expense,
		CategoryID: &categoryID,
	})
}

// CalculateSummary totals income and expenses, optionally within a date range.
func (r *GormRepository) CalculateSummary(ctx context.Context, from, to *time.Time) (*models.TransactionSummary, error) {
	var rows []struct {
		Type  models.TransactionType
		Total float64
		Count int64
	}
	q := r.applyTransactionFilter(r.db.WithContext(ctx).Model(&models.Transaction{}), TransactionFilter{FromDate: from, ToDate: to})
	err := q.Select("type, COALESCE(SUM(ABS(amount)), 0) AS total, COUNT(*) AS count").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapDB(err)
	}

	summary := &models.TransactionSummary{}
	for _, row := range rows {
		summary.Count += row.Count
		switch row.Type {
		case models.TransactionTypeIncome:
			summary.TotalIncome += row.Total
		case models.TransactionTypeExpense:
			summary.TotalExpenses += row.Total
		}
	}
	summary.Net = summary.TotalIncome - summary.TotalExpenses
	return summary, nil
}

// UpdateTransactionCategory re-categorizes a transaction.
func (r *GormRepository) UpdateTransactionCategory(ctx context.Context, id string, categoryID *string) error {
	return r.updateTransactionColumn(ctx, id, "category_id", categoryID)
}

// FlagTransactionAsSubscription links a transaction to a subscription.
func (r *GormRepository) FlagTransactionAsSubscription(ctx context.Context, transactionID, subscriptionID string) error {
	return r.updateTransactionColumn(ctx, transactionID, "subscription_id", subscriptionID)
}

// UnflagTransactionAsSubscription clears a transaction's subscription link.
func (r *GormRepository) UnflagTransactionAsSubscription(ctx context.Context, transactionID string) error {
	return r.updateTransactionColumn(ctx, transactionID, "subscription_id", nil)
}

func (r *GormRepository) updateTransactionColumn(ctx context.Context, id, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return wrapDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(apperrors.ErrTransactionNotFound, "Transaction", id)
	}
	return nil
}

// FindSubscriptionTransactions returns the transactions flagged for a subscription.
func (r *GormRepository) FindSubscriptionTransactions(ctx context.Context, subscriptionID string) ([]models.Transaction, error) {
	return r.FindAllTransactions(ctx, TransactionFilter{SubscriptionID: &subscriptionID})
}
