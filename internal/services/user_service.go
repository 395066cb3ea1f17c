// internal/services/user_service.go
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type UserService struct {
	db *gorm.DB
}

// UpdateUserRequest carries a partial update; nil fields are left alone.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,notblank,min=2,max=100"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,strong_password"`
}

var userSortFields = map[string]string{
	"name":      "name",
	"email":     "email",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) List(ctx context.Context, params utils.PaginationParams) ([]models.User, int64, error) {
	params = utils.NormalizePagination(params)
	query := s.db.WithContext(ctx).Model(&models.User{})

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperror.FromStore(err)
	}

	var users []models.User
	query = utils.ApplySort(query, params, userSortFields)
	if err := utils.ApplyPagination(query, params).Preload("Profile").Find(&users).Error; err != nil {
		return nil, 0, apperror.FromStore(err)
	}

	return users, total, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Profile").First(&user, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return &user, nil
}

// Update applies the caller's own account changes.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req *UpdateUserRequest) (*models.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "user", id)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			var taken int64
			if err := db.Model(&models.User{}).
				Where("LOWER(email) = ? AND id <> ?", email, id).
				Count(&taken).Error; err != nil {
				return nil, apperror.FromStore(err)
			}
			if taken > 0 {
				return nil, apperror.Conflict("email %s is already in use", email)
			}
		}
		updates["email"] = email
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, apperror.Infrastructure(err, "failed to hash password")
		}
		updates["password_hash"] = user.PasswordHash
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, apperror.FromStore(err)
		}
	}

	return s.GetByID(ctx, id)
}

// Delete soft-deletes the user together with their profile.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return notFoundOr(err, "user", id)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Profile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return apperror.FromStore(err)
	}

	logrus.WithField("user_id", id).Info("User soft-deleted")
	return nil
}
