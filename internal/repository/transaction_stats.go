// internal/repository/transaction_stats.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/models"
)

type StatisticsFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	UserID    *uuid.UUID
}

type TransactionStatistics struct {
	Count   int64           `json:"count"`
	Sum     decimal.Decimal `json:"sum"`
	Average decimal.Decimal `json:"average"`
	Min     decimal.Decimal `json:"min"`
	Max     decimal.Decimal `json:"max"`
}

type UserTransactionStatistics struct {
	UserID    uuid.UUID       `json:"userId" gorm:"column:user_id"`
	UserName  string          `json:"userName" gorm:"column:user_name"`
	UserEmail string          `json:"userEmail" gorm:"column:user_email"`
	Count     int64           `json:"count" gorm:"column:transaction_count"`
	Sum       decimal.Decimal `json:"sum" gorm:"column:total_spent"`
	Average   decimal.Decimal `json:"average" gorm:"column:average_spent"`
}

type LowStockQuery struct {
	Threshold  int
	Limit      int
	ProductIDs []uuid.UUID
}

type LowStockProduct struct {
	ID           uuid.UUID       `json:"id" gorm:"column:id"`
	Name         string          `json:"name" gorm:"column:name"`
	Price        decimal.Decimal `json:"price" gorm:"column:price"`
	Stock        int             `json:"stock" gorm:"column:stock"`
	CategoryName *string         `json:"categoryName" gorm:"column:category_name"`
}

// Statistics aggregates order totals. An empty match yields zero values.
func (r *transactionRepository) Statistics(ctx context.Context, filter StatisticsFilter) (*TransactionStatistics, error) {
	q := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select(`COUNT(id) AS count,
			COALESCE(SUM(total), 0) AS sum,
			COALESCE(AVG(total), 0) AS average,
			COALESCE(MIN(total), 0) AS min,
			COALESCE(MAX(total), 0) AS max`)

	if filter.StartDate != nil {
		q = q.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("created_at <= ?", *filter.EndDate)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}

	var stats TransactionStatistics
	if err := q.Scan(&stats).Error; err != nil {
		return nil, apperror.FromStore(err)
	}
	stats.Average = stats.Average.Round(2)
	return &stats, nil
}

// UserStatistics groups live orders by owner, biggest spenders first.
func (r *transactionRepository) UserStatistics(ctx context.Context) ([]UserTransactionStatistics, error) {
	rows := []UserTransactionStatistics{}
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select(`transactions.user_id,
			COALESCE(users.name, '') AS user_name,
			COALESCE(users.email, '') AS user_email,
			COUNT(transactions.id) AS transaction_count,
			COALESCE(SUM(transactions.total), 0) AS total_spent,
			COALESCE(AVG(transactions.total), 0) AS average_spent`).
		Joins("LEFT JOIN users ON users.id = transactions.user_id").
		Group("transactions.user_id, users.name, users.email").
		Order("total_spent DESC, transactions.user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.FromStore(err)
	}

	for i := range rows {
		rows[i].Average = rows[i].Average.Round(2)
	}
	return rows, nil
}

func (r *transactionRepository) Recent(ctx context.Context, limit int) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	err := withDetails(r.db.WithContext(ctx)).
		Order("created_at DESC").
		Order("id").
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		return nil, apperror.FromStore(err)
	}
	return transactions, nil
}

// LowStockProducts lists live products below the threshold, lowest stock
// first. ProductIDs narrows the scan when set.
func (r *transactionRepository) LowStockProducts(ctx context.Context, query LowStockQuery) ([]LowStockProduct, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("products.id, products.name, products.price, products.stock, categories.name AS category_name").
		Joins("LEFT JOIN categories ON categories.id = products.category_id AND categories.deleted_at IS NULL").
		Where("products.stock < ?", query.Threshold)

	if len(query.ProductIDs) > 0 {
		q = q.Where("products.id IN ?", query.ProductIDs)
	}
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}

	products := []LowStockProduct{}
	if err := q.Order("products.stock ASC, products.name ASC").Scan(&products).Error; err != nil {
		return nil, apperror.FromStore(err)
	}
	return products, nil
}
