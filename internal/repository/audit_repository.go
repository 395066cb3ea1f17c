// internal/repository/audit_repository.go
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/models"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return apperror.FromStore(err)
	}
	return nil
}
