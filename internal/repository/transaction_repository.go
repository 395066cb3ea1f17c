// internal/repository/transaction_repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/database"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// CheckoutLine is one requested product and quantity.
type CheckoutLine struct {
	ProductID uuid.UUID
	Quantity  int
}

type ListTransactionsQuery struct {
	utils.PaginationParams
	UserID *uuid.UUID
}

// TransactionRepository persists orders and answers the reporting queries
// over them.
type TransactionRepository interface {
	Checkout(ctx context.Context, userID uuid.UUID, orderNumber string, lines []CheckoutLine) (*models.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindAll(ctx context.Context, query ListTransactionsQuery) ([]models.Transaction, int64, error)
	ForEach(ctx context.Context, query ListTransactionsQuery, batchSize int, fn func([]models.Transaction) error) error
	SoftDelete(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	Statistics(ctx context.Context, filter StatisticsFilter) (*TransactionStatistics, error)
	UserStatistics(ctx context.Context) ([]UserTransactionStatistics, error)
	Recent(ctx context.Context, limit int) ([]models.Transaction, error)
	LowStockProducts(ctx context.Context, query LowStockQuery) ([]LowStockProduct, error)
}

var _ TransactionRepository = (*transactionRepository)(nil)

var transactionSortFields = map[string]string{
	"createdAt":    "created_at",
	"created_at":   "created_at",
	"updatedAt":    "updated_at",
	"updated_at":   "updated_at",
	"total":        "total",
	"orderNumber":  "order_number",
	"order_number": "order_number",
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Checkout locks each product row in input order, decrements its stock and
// writes the order with its lines. Any failure rolls the whole unit back.
func (r *transactionRepository) Checkout(ctx context.Context, userID uuid.UUID, orderNumber string, lines []CheckoutLine) (*models.Transaction, error) {
	var created models.Transaction

	err := database.WithTransaction(ctx, r.db, func(tx *gorm.DB) error {
		total := decimal.Zero
		items := make([]models.TransactionItem, 0, len(lines))

		for i, line := range lines {
			var product models.Product
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", line.ProductID).
				Take(&product).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("product %s not found", line.ProductID)
			}
			if err != nil {
				return err
			}

			shortage := apperror.StockShortage{
				ProductID:   product.ID.String(),
				ProductName: product.Name,
				Available:   product.Stock,
				Requested:   line.Quantity,
			}
			if product.Stock < line.Quantity {
				return apperror.InsufficientStock(shortage)
			}

			result := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", product.ID, line.Quantity).
				UpdateColumns(map[string]interface{}{
					"stock":      gorm.Expr("stock - ?", line.Quantity),
					"updated_at": time.Now(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return apperror.InsufficientStock(shortage)
			}

			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			items = append(items, models.TransactionItem{
				Line:        i + 1,
				ProductID:   product.ID,
				Quantity:    line.Quantity,
				PriceAtTime: product.Price,
			})
		}

		order := models.Transaction{
			OrderNumber: orderNumber,
			UserID:      userID,
			Total:       total,
			Items:       items,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		return withDetails(tx).Take(&created, "id = ?", order.ID).Error
	})
	if err != nil {
		return nil, apperror.FromStore(err)
	}

	return &created, nil
}

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := withDetails(r.db.WithContext(ctx)).Take(&transaction, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("transaction %s not found", id)
	}
	if err != nil {
		return nil, apperror.FromStore(err)
	}
	return &transaction, nil
}

func (r *transactionRepository) FindAll(ctx context.Context, query ListTransactionsQuery) ([]models.Transaction, int64, error) {
	var total int64
	if err := r.filtered(ctx, query).Count(&total).Error; err != nil {
		return nil, 0, apperror.FromStore(err)
	}

	transactions := []models.Transaction{}
	if total == 0 {
		return transactions, 0, nil
	}

	q := withDetails(r.filtered(ctx, query))
	q = utils.ApplySort(q, query.PaginationParams, transactionSortFields).Order("id")
	q = utils.ApplyPagination(q, query.PaginationParams)
	if err := q.Find(&transactions).Error; err != nil {
		return nil, 0, apperror.FromStore(err)
	}

	return transactions, total, nil
}

// ForEach streams every matching order in batches, ignoring pagination.
func (r *transactionRepository) ForEach(ctx context.Context, query ListTransactionsQuery, batchSize int, fn func([]models.Transaction) error) error {
	q := withDetails(r.filtered(ctx, query))
	q = utils.ApplySort(q, query.PaginationParams, transactionSortFields).Order("id")

	offset := 0
	for {
		var batch []models.Transaction
		if err := q.Session(&gorm.Session{}).Offset(offset).Limit(batchSize).Find(&batch).Error; err != nil {
			return apperror.FromStore(err)
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
		offset += batchSize
	}
}

// SoftDelete marks the order and its lines deleted. Stock is not restored.
func (r *transactionRepository) SoftDelete(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction

	err := database.WithTransaction(ctx, r.db, func(tx *gorm.DB) error {
		var locked models.Transaction
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Take(&locked, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("transaction %s not found", id)
		}
		if err != nil {
			return err
		}
		if err := withDetails(tx).Take(&transaction, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Where("transaction_id = ?", id).Delete(&models.TransactionItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&transaction).Error
	})
	if err != nil {
		return nil, apperror.FromStore(err)
	}

	return &transaction, nil
}

func (r *transactionRepository) filtered(ctx context.Context, query ListTransactionsQuery) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Transaction{})
	if query.UserID != nil {
		q = q.Where("user_id = ?", *query.UserID)
	}
	return q
}

// withDetails loads the owner and the lines with their products. Owners and
// products are loaded even when soft-deleted so history stays readable.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line") }).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}
