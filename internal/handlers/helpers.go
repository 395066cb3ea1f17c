// internal/handlers/helpers.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// bindJSON decodes the body into req and writes a 400 on malformed input.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.HandleError(c, apperror.Validation("invalid request body: %v", err))
		return false
	}
	return true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.HandleError(c, apperror.Validation("%s must be a valid UUID", name))
		return uuid.Nil, false
	}
	return id, true
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	return id, true
}

func currentActor(c *gin.Context) (services.Actor, bool) {
	id, ok := currentUserID(c)
	if !ok {
		return services.Actor{}, false
	}
	role, _ := utils.GetUserRoleFromContext(c)
	return services.Actor{ID: id, Role: models.UserRole(role)}, true
}

func paginated(c *gin.Context, key string, data interface{}, total int64, params utils.PaginationParams) {
	utils.PaginatedResponse(c, key, utils.CreatePaginationResult(data, total, utils.NormalizePagination(params)))
}
