// internal/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type ProductHandler struct {
	productService ProductService
}

func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := services.ProductSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	var err error
	if params.CategoryID, err = optionalUUIDQuery(c, "categoryId"); err != nil {
		utils.HandleError(c, err)
		return
	}
	if params.StoreID, err = optionalUUIDQuery(c, "storeId"); err != nil {
		utils.HandleError(c, err)
		return
	}
	if params.MinPrice, err = optionalDecimalQuery(c, "minPrice"); err != nil {
		utils.HandleError(c, err)
		return
	}
	if params.MaxPrice, err = optionalDecimalQuery(c, "maxPrice"); err != nil {
		utils.HandleError(c, err)
		return
	}

	products, total, err := h.productService.Search(c.Request.Context(), params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	paginated(c, i18n.KeyProductList, products, total, params.PaginationParams)
}

// GET /products/stats
func (h *ProductHandler) GetProductStatistics(c *gin.Context) {
	categoryID, err := optionalUUIDQuery(c, "categoryId")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	stats, err := h.productService.Statistics(c.Request.Context(), categoryID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyProductStats, stats)
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyProductFound, product)
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyProductCreated, product)
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyProductUpdated, product)
}

// DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyProductDeleted, nil)
}

func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Validation("%s must be a valid UUID", name)
	}
	return &id, nil
}

func optionalDecimalQuery(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, apperror.Validation("%s must be a non-negative number", name)
	}
	return &d, nil
}
