// internal/services/profile_service.go
package services

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// FileStore is the part of StorageService profiles depend on.
type FileStore interface {
	Upload(ctx context.Context, r io.Reader, filename string, size int64, options UploadOptions) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) string
	AvatarOptions() UploadOptions
}

type ProfileService struct {
	db    *gorm.DB
	files FileStore
}

type CreateProfileRequest struct {
	Gender  *string `json:"gender,omitempty" validate:"omitempty,gender"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Bio     *string `json:"bio,omitempty" validate:"omitempty,max=500"`
}

type UpdateProfileRequest = CreateProfileRequest

func NewProfileService(db *gorm.DB, files FileStore) *ProfileService {
	return &ProfileService{
		db:    db,
		files: files,
	}
}

func (s *ProfileService) List(ctx context.Context, params utils.PaginationParams) ([]models.Profile, int64, error) {
	params = utils.NormalizePagination(params)
	query := s.db.WithContext(ctx).Model(&models.Profile{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperror.FromStore(err)
	}

	var profiles []models.Profile
	query = utils.ApplySort(query, params, map[string]string{"createdAt": "created_at"})
	if err := utils.ApplyPagination(query, params).Preload("User").Find(&profiles).Error; err != nil {
		return nil, 0, apperror.FromStore(err)
	}
	return profiles, total, nil
}

func (s *ProfileService) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFoundOr(err, "profile for user", userID)
	}
	return &profile, nil
}

// Create makes the caller's profile. A user has at most one.
func (s *ProfileService) Create(ctx context.Context, userID uuid.UUID, req *CreateProfileRequest) (*models.Profile, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.Profile{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
		return nil, apperror.FromStore(err)
	}
	if existing > 0 {
		return nil, apperror.Conflict("profile already exists for this user")
	}

	profile := &models.Profile{
		UserID:  userID,
		Address: trimmed(req.Address),
		Bio:     trimmed(req.Bio),
	}
	if req.Gender != nil {
		gender := models.Gender(strings.ToLower(*req.Gender))
		profile.Gender = &gender
	}

	if err := db.Create(profile).Error; err != nil {
		return nil, apperror.FromStore(err)
	}
	return s.GetByUserID(ctx, userID)
}

func (s *ProfileService) Update(ctx context.Context, actor Actor, userID uuid.UUID, req *UpdateProfileRequest) (*models.Profile, error) {
	if err := actor.CanModify(userID); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	profile, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Gender != nil {
		updates["gender"] = strings.ToLower(*req.Gender)
	}
	if req.Address != nil {
		updates["address"] = trimmed(req.Address)
	}
	if req.Bio != nil {
		updates["bio"] = trimmed(req.Bio)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(profile).Updates(updates).Error; err != nil {
			return nil, apperror.FromStore(err)
		}
	}
	return s.GetByUserID(ctx, userID)
}

func (s *ProfileService) Delete(ctx context.Context, actor Actor, userID uuid.UUID) error {
	if err := actor.CanModify(userID); err != nil {
		return err
	}
	profile, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(profile).Error; err != nil {
		return apperror.FromStore(err)
	}
	return nil
}

// UploadAvatar stores the image and points the profile at it. The previous
// avatar is removed on a best-effort basis.
func (s *ProfileService) UploadAvatar(ctx context.Context, actor Actor, userID uuid.UUID, r io.Reader, filename string, size int64) (*models.Profile, error) {
	if err := actor.CanModify(userID); err != nil {
		return nil, err
	}
	profile, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.files.Upload(ctx, r, filename, size, s.files.AvatarOptions())
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(profile).Update("avatar_url", result.URL).Error; err != nil {
		if delErr := s.files.Delete(ctx, result.Key); delErr != nil {
			logrus.WithError(delErr).WithField("key", result.Key).Warn("Failed to remove orphaned avatar")
		}
		return nil, apperror.FromStore(err)
	}

	if profile.AvatarURL != nil {
		if key := s.files.KeyFromURL(*profile.AvatarURL); key != "" {
			if err := s.files.Delete(ctx, key); err != nil {
				logrus.WithError(err).WithField("key", key).Warn("Failed to remove previous avatar")
			}
		}
	}

	return s.GetByUserID(ctx, userID)
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}
