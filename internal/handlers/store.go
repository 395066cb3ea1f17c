// internal/handlers/store.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type StoreHandler struct {
	storeService StoreService
}

func NewStoreHandler(storeService StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

// GET /stores
func (h *StoreHandler) GetStores(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	stores, total, err := h.storeService.List(c.Request.Context(), params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	paginated(c, i18n.KeyStoreList, stores, total, params)
}

// GET /stores/:id
func (h *StoreHandler) GetStore(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	store, err := h.storeService.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyStoreFound, store)
}

// POST /stores
func (h *StoreHandler) CreateStore(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateStoreRequest
	if !bindJSON(c, &req) {
		return
	}

	store, err := h.storeService.Create(c.Request.Context(), ownerID, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyStoreCreated, store)
}

// PUT /stores/:id
func (h *StoreHandler) UpdateStore(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateStoreRequest
	if !bindJSON(c, &req) {
		return
	}

	store, err := h.storeService.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyStoreUpdated, store)
}

// DELETE /stores/:id
func (h *StoreHandler) DeleteStore(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.storeService.Delete(c.Request.Context(), actor, id); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyStoreDeleted, nil)
}
