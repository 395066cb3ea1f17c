// internal/services/store_service.go
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

type StoreService struct {
	db *gorm.DB
}

type CreateStoreRequest struct {
	Name    string `json:"name" validate:"required,notblank,min=3,max=255"`
	Address string `json:"address" validate:"required,notblank,min=10"`
	Email   string `json:"email" validate:"required,email"`
}

type UpdateStoreRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,notblank,min=3,max=255"`
	Address *string `json:"address,omitempty" validate:"omitempty,notblank,min=10"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
}

var storeSortFields = map[string]string{
	"name":      "name",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func NewStoreService(db *gorm.DB) *StoreService {
	return &StoreService{db: db}
}

func (s *StoreService) List(ctx context.Context, params utils.PaginationParams) ([]models.Store, int64, error) {
	params = utils.NormalizePagination(params)
	query := s.db.WithContext(ctx).Model(&models.Store{})

	if params.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(params.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperror.FromStore(err)
	}

	var stores []models.Store
	query = utils.ApplySort(query, params, storeSortFields)
	if err := utils.ApplyPagination(query, params).Preload("User").Find(&stores).Error; err != nil {
		return nil, 0, apperror.FromStore(err)
	}
	return stores, total, nil
}

func (s *StoreService) GetByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Products").
		First(&store, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "store", id)
	}
	return &store, nil
}

func (s *StoreService) Create(ctx context.Context, ownerID uuid.UUID, req *CreateStoreRequest) (*models.Store, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	store := &models.Store{
		UserID:  ownerID,
		Name:    strings.TrimSpace(req.Name),
		Address: strings.TrimSpace(req.Address),
		Email:   normalizeEmail(req.Email),
	}
	if err := s.db.WithContext(ctx).Create(store).Error; err != nil {
		return nil, apperror.FromStore(err)
	}
	return s.GetByID(ctx, store.ID)
}

func (s *StoreService) Update(ctx context.Context, actor Actor, id uuid.UUID, req *UpdateStoreRequest) (*models.Store, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	store, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := actor.CanModify(store.UserID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		updates["address"] = strings.TrimSpace(*req.Address)
	}
	if req.Email != nil {
		updates["email"] = normalizeEmail(*req.Email)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(store).Updates(updates).Error; err != nil {
			return nil, apperror.FromStore(err)
		}
	}
	return s.GetByID(ctx, id)
}

// Delete soft-deletes the store. Its products stay listed without a store.
func (s *StoreService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	var store models.Store
	if err := s.db.WithContext(ctx).First(&store, "id = ?", id).Error; err != nil {
		return notFoundOr(err, "store", id)
	}
	if err := actor.CanModify(store.UserID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&store).Error; err != nil {
		return apperror.FromStore(err)
	}
	return nil
}
