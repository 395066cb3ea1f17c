// internal/handlers/profile.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type ProfileHandler struct {
	profileService ProfileService
}

func NewProfileHandler(profileService ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GET /profiles
func (h *ProfileHandler) GetProfiles(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	profiles, total, err := h.profileService.List(c.Request.Context(), params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	paginated(c, i18n.KeyProfileList, profiles, total, params)
}

// GET /profiles/:userId
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}

	profile, err := h.profileService.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyProfileFound, profile)
}

// POST /profiles
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.profileService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyProfileCreated, profile)
}

// PUT /profiles/:userId
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.profileService.Update(c.Request.Context(), actor, userID, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyProfileUpdated, profile)
}

// DELETE /profiles/:userId
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}

	if err := h.profileService.Delete(c.Request.Context(), actor, userID); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyProfileDeleted, nil)
}

// POST /profiles/:userId/avatar
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		utils.HandleError(c, apperror.Validation("avatar file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		utils.HandleError(c, apperror.Infrastructure(err, "failed to open upload"))
		return
	}
	defer file.Close()

	profile, err := h.profileService.UploadAvatar(c.Request.Context(), actor, userID, file, header.Filename, header.Size)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyProfileAvatarUpdated, profile)
}
