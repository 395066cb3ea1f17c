// internal/handlers/transaction.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type TransactionHandler struct {
	transactionService TransactionService
}

func NewTransactionHandler(transactionService TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// POST /transactions/checkout
func (h *TransactionHandler) Checkout(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	transaction, err := h.transactionService.Checkout(c.Request.Context(), userID, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyCheckoutSuccess, transaction)
}

// GET /transactions
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	params := listParams(c)

	transactions, total, err := h.transactionService.List(c.Request.Context(), params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	paginated(c, i18n.KeyTransactionList, transactions, total, params.PaginationParams)
}

// GET /transactions/export
func (h *TransactionHandler) ExportTransactions(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.transactionService.Export(c.Request.Context(), listParams(c), &buf); err != nil {
		utils.HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("transactions-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// GET /transactions/:id
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	transaction, err := h.transactionService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyTransactionFound, transaction)
}

// DELETE /transactions/:id
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	transaction, err := h.transactionService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyTransactionDeleted, transaction)
}

// GET /transactions/stats/overview
func (h *TransactionHandler) GetStatistics(c *gin.Context) {
	stats, err := h.transactionService.Statistics(c.Request.Context(), services.StatisticsParams{
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		UserID:    c.Query("userId"),
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyTransactionStats, stats)
}

// GET /transactions/stats/users
func (h *TransactionHandler) GetUserStatistics(c *gin.Context) {
	stats, err := h.transactionService.UserStatistics(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyTransactionUserStats, stats)
}

// GET /transactions/stats/low-stock
func (h *TransactionHandler) GetLowStockProducts(c *gin.Context) {
	products, err := h.transactionService.LowStockProducts(c.Request.Context(), cast.ToInt(c.Query("limit")))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyTransactionLowStock, products)
}

// GET /transactions/stats/dashboard
func (h *TransactionHandler) GetDashboard(c *gin.Context) {
	stats, err := h.transactionService.Dashboard(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, i18n.KeyTransactionDashboard, stats)
}

func listParams(c *gin.Context) services.ListTransactionsParams {
	return services.ListTransactionsParams{
		PaginationParams: utils.GetPaginationParams(c),
		UserID:           c.Query("userId"),
	}
}
