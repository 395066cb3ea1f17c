// internal/services/category_service.go
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type CategoryService struct {
	db *gorm.DB
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,notblank,min=3,max=100"`
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

func (s *CategoryService) List(ctx context.Context, params utils.PaginationParams) ([]models.Category, int64, error) {
	params = utils.NormalizePagination(params)
	query := s.db.WithContext(ctx).Model(&models.Category{})

	if params.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(params.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperror.FromStore(err)
	}

	var categories []models.Category
	query = utils.ApplySort(query, params, map[string]string{
		"name":      "name",
		"createdAt": "created_at",
	})
	if err := utils.ApplyPagination(query, params).Find(&categories).Error; err != nil {
		return nil, 0, apperror.FromStore(err)
	}
	return categories, total, nil
}

func (s *CategoryService) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Preload("Products").First(&category, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "category", id)
	}
	return &category, nil
}

func (s *CategoryService) Create(ctx context.Context, req *CategoryRequest) (*models.Category, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := s.ensureUniqueName(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, apperror.FromStore(err)
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req *CategoryRequest) (*models.Category, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "category", id)
	}

	name := strings.TrimSpace(req.Name)
	if err := s.ensureUniqueName(ctx, name, id); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&category).Update("name", name).Error; err != nil {
		return nil, apperror.FromStore(err)
	}
	return s.GetByID(ctx, id)
}

// Delete soft-deletes the category and detaches its products.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return notFoundOr(err, "category", id)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		return apperror.FromStore(err)
	}
	return nil
}

func (s *CategoryService) ensureUniqueName(ctx context.Context, name string, exceptID uuid.UUID) error {
	var count int64
	query := s.db.WithContext(ctx).Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if exceptID != uuid.Nil {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return apperror.FromStore(err)
	}
	if count > 0 {
		return apperror.Conflict("category %q already exists", name)
	}
	return nil
}
