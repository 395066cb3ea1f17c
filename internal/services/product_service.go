// internal/services/product_service.go
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,notblank,min=3,max=255"`
	Description string          `json:"description" validate:"required,notblank"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Tags        []string        `json:"tags,omitempty" validate:"omitempty,max=20,dive,notblank,max=50"`
	CategoryID  *string         `json:"categoryId,omitempty" validate:"omitempty,uuid"`
	StoreID     *string         `json:"storeId,omitempty" validate:"omitempty,uuid"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,notblank,min=3,max=255"`
	Description *string          `json:"description,omitempty" validate:"omitempty,notblank"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gt=0"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Tags        []string         `json:"tags,omitempty" validate:"omitempty,max=20,dive,notblank,max=50"`
	CategoryID  *string          `json:"categoryId,omitempty" validate:"omitempty,uuid"`
	StoreID     *string          `json:"storeId,omitempty" validate:"omitempty,uuid"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	CategoryID *uuid.UUID
	StoreID    *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
}

type ProductStatistics struct {
	Count        int64           `json:"count"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
	MaxPrice     decimal.Decimal `json:"maxPrice"`
	MinPrice     decimal.Decimal `json:"minPrice"`
	TotalStock   int64           `json:"totalStock"`
}

type CategoryProductStatistics struct {
	CategoryID   *uuid.UUID      `json:"categoryId" gorm:"column:category_id"`
	Count        int64           `json:"count" gorm:"column:product_count"`
	AveragePrice decimal.Decimal `json:"averagePrice" gorm:"column:average_price"`
}

type ProductStatisticsReport struct {
	Overview   ProductStatistics           `json:"overview"`
	ByCategory []CategoryProductStatistics `json:"byCategory"`
}

var productSortFields = map[string]string{
	"name":      "name",
	"price":     "price",
	"stock":     "stock",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) Search(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	params.PaginationParams = utils.NormalizePagination(params.PaginationParams)
	if params.MinPrice != nil && params.MaxPrice != nil && params.MaxPrice.LessThan(*params.MinPrice) {
		return nil, 0, apperror.Validation("maxPrice must not be less than minPrice")
	}

	query := s.db.WithContext(ctx).Model(&models.Product{})

	if params.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(params.Search)+"%")
	}
	if params.CategoryID != nil {
		query = query.Where("category_id = ?", *params.CategoryID)
	}
	if params.StoreID != nil {
		query = query.Where("store_id = ?", *params.StoreID)
	}
	if params.MinPrice != nil {
		query = query.Where("price >= ?", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		query = query.Where("price <= ?", *params.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperror.FromStore(err)
	}

	query = utils.ApplySort(query, params.PaginationParams, productSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Preload("Category").Find(&products).Error; err != nil {
		return nil, 0, apperror.FromStore(err)
	}
	return products, total, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Store").
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "product", id)
	}
	return &product, nil
}

func (s *ProductService) Create(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price.Round(2),
		Stock:       req.Stock,
		Tags:        pq.StringArray(req.Tags),
		CategoryID:  optionalID(req.CategoryID),
		StoreID:     optionalID(req.StoreID),
	}
	if err := s.checkReferences(ctx, product.CategoryID, product.StoreID); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, apperror.FromStore(err)
	}
	return s.GetByID(ctx, product.ID)
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "product", id)
	}

	categoryID := optionalID(req.CategoryID)
	storeID := optionalID(req.StoreID)
	if err := s.checkReferences(ctx, categoryID, storeID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		updates["price"] = req.Price.Round(2)
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.Tags != nil {
		updates["tags"] = pq.StringArray(req.Tags)
	}
	if categoryID != nil {
		updates["category_id"] = *categoryID
	}
	if storeID != nil {
		updates["store_id"] = *storeID
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&product).Updates(updates).Error; err != nil {
			return nil, apperror.FromStore(err)
		}
	}
	return s.GetByID(ctx, id)
}

// Delete soft-deletes the product. Past order lines keep referencing it.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return apperror.FromStore(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("product %s not found", id)
	}
	return nil
}

// Statistics aggregates non-deleted products, optionally within one category.
func (s *ProductService) Statistics(ctx context.Context, categoryID *uuid.UUID) (*ProductStatisticsReport, error) {
	db := s.db.WithContext(ctx)
	scope := func(q *gorm.DB) *gorm.DB {
		if categoryID != nil {
			return q.Where("category_id = ?", *categoryID)
		}
		return q
	}

	var overview ProductStatistics
	err := scope(db.Model(&models.Product{})).
		Select(`COUNT(id) AS count,
			COALESCE(ROUND(AVG(price), 2), 0) AS average_price,
			COALESCE(MAX(price), 0) AS max_price,
			COALESCE(MIN(price), 0) AS min_price,
			COALESCE(SUM(stock), 0) AS total_stock`).
		Scan(&overview).Error
	if err != nil {
		return nil, apperror.FromStore(err)
	}

	byCategory := []CategoryProductStatistics{}
	err = scope(db.Model(&models.Product{})).
		Select("category_id, COUNT(id) AS product_count, COALESCE(ROUND(AVG(price), 2), 0) AS average_price").
		Group("category_id").
		Order("product_count DESC").
		Scan(&byCategory).Error
	if err != nil {
		return nil, apperror.FromStore(err)
	}

	return &ProductStatisticsReport{
		Overview:   overview,
		ByCategory: byCategory,
	}, nil
}

func (s *ProductService) checkReferences(ctx context.Context, categoryID, storeID *uuid.UUID) error {
	db := s.db.WithContext(ctx)
	if categoryID != nil {
		var count int64
		if err := db.Model(&models.Category{}).Where("id = ?", *categoryID).Count(&count).Error; err != nil {
			return apperror.FromStore(err)
		}
		if count == 0 {
			return apperror.NotFound("category %s not found", *categoryID)
		}
	}
	if storeID != nil {
		var count int64
		if err := db.Model(&models.Store{}).Where("id = ?", *storeID).Count(&count).Error; err != nil {
			return apperror.FromStore(err)
		}
		if count == 0 {
			return apperror.NotFound("store %s not found", *storeID)
		}
	}
	return nil
}

func optionalID(value *string) *uuid.UUID {
	if value == nil || *value == "" {
		return nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil
	}
	return &id
}
