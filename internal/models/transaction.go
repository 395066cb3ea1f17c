// internal/models/transaction.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is a placed order. Rows are written once at checkout and only
// ever soft-deleted afterwards.
type Transaction struct {
	BaseModel
	OrderNumber string          `json:"orderNumber" gorm:"size:32;not null;uniqueIndex"`
	UserID      uuid.UUID       `json:"userId" gorm:"type:uuid;not null;index"`
	Total       decimal.Decimal `json:"total" gorm:"type:decimal(14,2);not null"`

	// Relationships
	User  *User             `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items []TransactionItem `json:"items" gorm:"foreignKey:TransactionID"`
}

type TransactionItem struct {
	BaseModel
	TransactionID uuid.UUID       `json:"transactionId" gorm:"type:uuid;not null;index"`
	Line          int             `json:"line" gorm:"not null;default:0"`
	ProductID     uuid.UUID       `json:"productId" gorm:"type:uuid;not null;index"`
	Quantity      int             `json:"quantity" gorm:"not null;check:chk_transaction_items_quantity_positive,quantity > 0"`
	PriceAtTime   decimal.Decimal `json:"priceAtTime" gorm:"type:decimal(12,2);not null"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// Subtotal is quantity times the frozen unit price.
func (i TransactionItem) Subtotal() decimal.Decimal {
	return i.PriceAtTime.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsTotal recomputes the order total from its lines.
func (t *Transaction) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range t.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}
