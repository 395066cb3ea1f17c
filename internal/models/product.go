// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name        string          `json:"name" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock       int             `json:"stock" gorm:"not null;default:0;check:chk_products_stock_non_negative,stock >= 0"`
	Tags        pq.StringArray  `json:"tags" gorm:"type:text[]"`
	CategoryID  *uuid.UUID      `json:"categoryId" gorm:"type:uuid;index"`
	StoreID     *uuid.UUID      `json:"storeId" gorm:"type:uuid;index"`

	// Relationships
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Store    *Store    `json:"store,omitempty" gorm:"foreignKey:StoreID"`
}

type Category struct {
	BaseModel
	Name string `json:"name" gorm:"size:100;not null"`

	Products []Product `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
}

type Store struct {
	BaseModel
	UserID  uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Name    string    `json:"name" gorm:"size:255;not null"`
	Address string    `json:"address" gorm:"type:text;not null"`
	Email   string    `json:"email" gorm:"size:255;not null"`

	User     *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Products []Product `json:"products,omitempty" gorm:"foreignKey:StoreID"`
}
