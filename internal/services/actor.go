// internal/services/actor.go
package services

import (
	"github.com/google/uuid"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/models"
)

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	ID   uuid.UUID
	Role models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.UserRoleAdmin
}

// CanModify allows owners and admins.
func (a Actor) CanModify(ownerID uuid.UUID) error {
	if a.IsAdmin() || (a.ID != uuid.Nil && a.ID == ownerID) {
		return nil
	}
	return apperror.Forbidden("you can only modify your own resources")
}
