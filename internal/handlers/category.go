// internal/handlers/category.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type CategoryHandler struct {
	categoryService CategoryService
}

func NewCategoryHandler(categoryService CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// GET /categories
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	categories, total, err := h.categoryService.List(c.Request.Context(), params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	paginated(c, i18n.KeyCategoryList, categories, total, params)
}

// GET /categories/:id
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	category, err := h.categoryService.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyCategoryFound, category)
}

// POST /categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req services.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyCategoryCreated, category)
}

// PUT /categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyCategoryUpdated, category)
}

// DELETE /categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), id); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyCategoryDeleted, nil)
}
