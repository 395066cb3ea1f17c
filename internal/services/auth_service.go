// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type AuthService struct {
	db  *gorm.DB
	cfg config.JWTConfig
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strong_password"`
}

type AuthResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	ExpiresIn int          `json:"expiresIn"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg config.JWTConfig) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	db := s.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&existing).Error; err != nil {
		return nil, apperror.FromStore(err)
	}
	if existing > 0 {
		return nil, apperror.Conflict("user with this email already exists")
	}

	user := &models.User{
		Name:  strings.TrimSpace(req.Name),
		Email: email,
		Role:  models.UserRoleUser,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperror.Infrastructure(err, "failed to hash password")
	}

	if err := db.Create(user).Error; err != nil {
		return nil, apperror.FromStore(err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return s.issueToken(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Where("LOWER(email) = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, apperror.FromStore(err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := db.Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	return s.issueToken(&user)
}

// Me returns the caller with their profile attached.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Profile").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user %s not found", userID)
		}
		return nil, apperror.FromStore(err)
	}
	return &user, nil
}

func (s *AuthService) issueToken(user *models.User) (*AuthResponse, error) {
	token, err := utils.GenerateJWT(user.ID, user.Email, string(user.Role), s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, apperror.Infrastructure(err, "failed to generate access token")
	}

	return &AuthResponse{
		User:      user,
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: s.cfg.AccessTokenTTL * 3600,
	}, nil
}

// validateRequest runs struct validation and reports the first failure as
// the message with every failure attached as details.
func validateRequest(req interface{}) error {
	if err := utils.ValidateStruct(req); err != nil {
		details := utils.GetValidationErrors(err)
		if len(details) == 0 {
			return apperror.Validation("validation failed: %v", err)
		}
		return apperror.ValidationWithDetails(details[0].Message, details)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// notFoundOr maps a missing row to a NotFound naming the resource.
func notFoundOr(err error, resource string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("%s %s not found", resource, id)
	}
	return apperror.FromStore(err)
}

func formatUploadSize(bytes int64) string {
	return fmt.Sprintf("%.1fMB", float64(bytes)/(1024*1024))
}
