package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/repository"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type fakeTransactionService struct {
	checkoutUser string
	checkoutReq  *services.CheckoutRequest
	checkoutErr  error
	listParams   services.ListTransactionsParams
	statsParams  services.StatisticsParams
	lowStockArg  int
	err          error
}

func (f *fakeTransactionService) Checkout(ctx context.Context, userID string, req *services.CheckoutRequest) (*models.Transaction, error) {
	f.checkoutUser = userID
	f.checkoutReq = req
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	tx := &models.Transaction{OrderNumber: "ORD-1", Total: decimal.RequireFromString("20.00")}
	tx.ID = uuid.New()
	return tx, nil
}

func (f *fakeTransactionService) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Transaction{OrderNumber: "ORD-" + id}, nil
}

func (f *fakeTransactionService) List(ctx context.Context, params services.ListTransactionsParams) ([]models.Transaction, int64, error) {
	f.listParams = params
	return []models.Transaction{{OrderNumber: "ORD-1"}, {OrderNumber: "ORD-2"}}, 12, nil
}

func (f *fakeTransactionService) Export(ctx context.Context, params services.ListTransactionsParams, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, "order_number,total\nORD-1,20.00\n")
	return err
}

func (f *fakeTransactionService) Delete(ctx context.Context, id string) (*models.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Transaction{OrderNumber: "ORD-1"}, nil
}

func (f *fakeTransactionService) Statistics(ctx context.Context, params services.StatisticsParams) (*repository.TransactionStatistics, error) {
	f.statsParams = params
	return &repository.TransactionStatistics{Count: 3}, nil
}

func (f *fakeTransactionService) UserStatistics(ctx context.Context) ([]repository.UserTransactionStatistics, error) {
	return []repository.UserTransactionStatistics{}, nil
}

func (f *fakeTransactionService) LowStockProducts(ctx context.Context, limit int) ([]repository.LowStockProduct, error) {
	f.lowStockArg = limit
	return []repository.LowStockProduct{}, nil
}

func (f *fakeTransactionService) Dashboard(ctx context.Context) (*services.DashboardStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.DashboardStats{Overview: &repository.TransactionStatistics{}}, nil
}

type TransactionHandlerTestSuite struct {
	suite.Suite
	service *fakeTransactionService
	router  *gin.Engine
	userID  string
}

func (s *TransactionHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	utils.SetExposeTrace(false)

	s.service = &fakeTransactionService{}
	s.userID = uuid.NewString()
	handler := NewTransactionHandler(s.service)

	s.router = gin.New()
	s.router.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-User") != "" {
			c.Set("user_id", c.GetHeader("X-Test-User"))
		}
		c.Next()
	})
	tx := s.router.Group("/api/v1/transactions")
	tx.POST("/checkout", handler.Checkout)
	tx.GET("", handler.GetTransactions)
	tx.GET("/export", handler.ExportTransactions)
	tx.GET("/stats/overview", handler.GetStatistics)
	tx.GET("/stats/low-stock", handler.GetLowStockProducts)
	tx.GET("/stats/dashboard", handler.GetDashboard)
	tx.GET("/:id", handler.GetTransaction)
	tx.DELETE("/:id", handler.DeleteTransaction)
}

func (s *TransactionHandlerTestSuite) do(method, path string, body []byte, withUser bool) (*httptest.ResponseRecorder, utils.APIResponse) {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if withUser {
		req.Header.Set("X-Test-User", s.userID)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp utils.APIResponse
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (s *TransactionHandlerTestSuite) TestCheckoutCreated() {
	productID := uuid.NewString()
	body := []byte(fmt.Sprintf(`{"items":[{"productId":%q,"quantity":2}]}`, productID))

	w, resp := s.do(http.MethodPost, "/api/v1/transactions/checkout", body, true)

	s.Equal(http.StatusCreated, w.Code)
	s.True(resp.Success)
	s.Equal(s.userID, s.service.checkoutUser)
	s.Require().Len(s.service.checkoutReq.Items, 1)
	s.Equal(productID, s.service.checkoutReq.Items[0].ProductID)
	s.Equal(2, s.service.checkoutReq.Items[0].Quantity)
	s.Contains(w.Body.String(), `"orderNumber":"ORD-1"`)
	s.Contains(w.Body.String(), `"total":"20"`)
}

func (s *TransactionHandlerTestSuite) TestCheckoutRequiresUser() {
	w, resp := s.do(http.MethodPost, "/api/v1/transactions/checkout", []byte(`{"items":[]}`), false)

	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(resp.Success)
	s.Nil(s.service.checkoutReq)
}

func (s *TransactionHandlerTestSuite) TestCheckoutMalformedBody() {
	w, resp := s.do(http.MethodPost, "/api/v1/transactions/checkout", []byte(`{"items":`), true)

	s.Equal(http.StatusBadRequest, w.Code)
	s.False(resp.Success)
	s.Nil(s.service.checkoutReq)
}

func (s *TransactionHandlerTestSuite) TestCheckoutErrorMapping() {
	cases := []struct {
		err    error
		status int
	}{
		{apperror.Validation("items must be a non-empty array"), http.StatusBadRequest},
		{apperror.NotFound("product %s not found", "x"), http.StatusNotFound},
		{apperror.InsufficientStock(apperror.StockShortage{ProductName: "Mouse", Available: 1, Requested: 5}), http.StatusBadRequest},
		{apperror.Infrastructure(context.DeadlineExceeded, "database operation timed out"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		s.service.checkoutErr = tc.err
		w, resp := s.do(http.MethodPost, "/api/v1/transactions/checkout", []byte(`{"items":[]}`), true)

		s.Equal(tc.status, w.Code, tc.err.Error())
		s.False(resp.Success)
		s.NotEmpty(resp.Message)
		s.Empty(resp.Trace)
	}
}

func (s *TransactionHandlerTestSuite) TestListPassesQuery() {
	userID := uuid.NewString()
	w, resp := s.do(http.MethodGet, "/api/v1/transactions?page=2&limit=5&sortBy=total&sortOrder=asc&userId="+userID, nil, false)

	s.Equal(http.StatusOK, w.Code)
	s.Require().NotNil(resp.Pagination)
	s.Equal(2, resp.Pagination.Page)
	s.Equal(5, resp.Pagination.Limit)
	s.Equal(int64(12), resp.Pagination.Total)
	s.Equal(3, resp.Pagination.TotalPages)
	s.Equal(userID, s.service.listParams.UserID)
	s.Equal("total", s.service.listParams.Sort)
	s.Equal("asc", s.service.listParams.Order)
}

func (s *TransactionHandlerTestSuite) TestExportCSV() {
	w, _ := s.do(http.MethodGet, "/api/v1/transactions/export", nil, true)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	s.Contains(w.Header().Get("Content-Disposition"), "attachment;")
	s.Equal("order_number,total\nORD-1,20.00\n", w.Body.String())
}

func (s *TransactionHandlerTestSuite) TestGetNotFound() {
	s.service.err = apperror.NotFound("transaction %s not found", "abc")
	w, resp := s.do(http.MethodGet, "/api/v1/transactions/"+uuid.NewString(), nil, false)

	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("transaction abc not found", resp.Message)
}

func (s *TransactionHandlerTestSuite) TestDelete() {
	w, resp := s.do(http.MethodDelete, "/api/v1/transactions/"+uuid.NewString(), nil, true)

	s.Equal(http.StatusOK, w.Code)
	s.True(resp.Success)
}

func (s *TransactionHandlerTestSuite) TestStatisticsQuery() {
	w, _ := s.do(http.MethodGet, "/api/v1/transactions/stats/overview?startDate=2024-01-01&endDate=2024-01-31", nil, false)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("2024-01-01", s.service.statsParams.StartDate)
	s.Equal("2024-01-31", s.service.statsParams.EndDate)
	s.Contains(w.Body.String(), `"count":3`)
}

func (s *TransactionHandlerTestSuite) TestLowStockLimit() {
	w, _ := s.do(http.MethodGet, "/api/v1/transactions/stats/low-stock?limit=7", nil, false)

	s.Equal(http.StatusOK, w.Code)
	s.Equal(7, s.service.lowStockArg)
}

func (s *TransactionHandlerTestSuite) TestDashboardHidesInfrastructureDetail() {
	s.service.err = apperror.Infrastructure(fmt.Errorf("dial tcp: connection refused"), "database error")
	w, resp := s.do(http.MethodGet, "/api/v1/transactions/stats/dashboard", nil, false)

	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(resp.Message, "connection refused")
	s.Empty(resp.Trace)
}

func TestTransactionHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionHandlerTestSuite))
}
