package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/storefront-backend/internal/apperror"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func contextWithQuery(rawQuery string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/items?"+rawQuery, nil)
	return c, w
}

func TestGetPaginationParamsDefaults(t *testing.T) {
	c, _ := contextWithQuery("page=abc&limit=-5&sortOrder=sideways")
	params := GetPaginationParams(c)

	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, "desc", params.Order)
}

func TestGetPaginationParamsValues(t *testing.T) {
	c, _ := contextWithQuery("page=3&limit=500&sortBy=total&sortOrder=ASC&search=%20mouse%20")
	params := GetPaginationParams(c)

	assert.Equal(t, 3, params.Page)
	assert.Equal(t, MaxLimit, params.Limit)
	assert.Equal(t, "total", params.Sort)
	assert.Equal(t, "asc", params.Order)
	assert.Equal(t, "mouse", params.Search)
	assert.Equal(t, 200, params.Offset())
}

func TestCreatePaginationResult(t *testing.T) {
	result := CreatePaginationResult([]int{1, 2}, 21, PaginationParams{Page: 1, Limit: 10})
	assert.Equal(t, 3, result.TotalPages)

	empty := CreatePaginationResult([]int{}, 0, PaginationParams{Page: 1, Limit: 10})
	assert.Equal(t, 0, empty.TotalPages)
}

type itemInput struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type orderInput struct {
	Items []itemInput     `json:"items" validate:"required,min=1,dive"`
	Price decimal.Decimal `json:"price" validate:"gt=0"`
}

func TestValidateStructReportsNestedFields(t *testing.T) {
	err := ValidateStruct(&orderInput{
		Items: []itemInput{{ProductID: uuid.NewString(), Quantity: 0}},
		Price: decimal.NewFromInt(1),
	})
	require.Error(t, err)

	errs := GetValidationErrors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, "items[0].quantity", errs[0].Field)
	assert.Equal(t, "gt", errs[0].Tag)
}

func TestValidateStructDecimal(t *testing.T) {
	err := ValidateStruct(&orderInput{
		Items: []itemInput{{ProductID: uuid.NewString(), Quantity: 1}},
		Price: decimal.Zero,
	})
	require.Error(t, err)
	assert.Equal(t, "price", GetValidationErrors(err)[0].Field)
}

func TestStrongPassword(t *testing.T) {
	type input struct {
		Password string `json:"password" validate:"strong_password"`
	}
	assert.NoError(t, ValidateStruct(&input{Password: "Secret123"}))
	assert.Error(t, ValidateStruct(&input{Password: "secret"}))
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	id := uuid.New()

	token, err := GenerateJWT(id, "a@example.com", "admin", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	SetJWTSecret("other-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestHandleErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperror.Validation("items must not be empty"), http.StatusBadRequest},
		{apperror.NotFound("product %s", "x"), http.StatusNotFound},
		{apperror.InsufficientStock(apperror.StockShortage{ProductName: "Mouse"}), http.StatusBadRequest},
		{apperror.Conflict("email already registered"), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		c, w := contextWithQuery("")
		HandleError(c, tc.err)
		assert.Equal(t, tc.status, w.Code)

		var body APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.NotEmpty(t, body.Message)
	}
}

func TestHandleErrorHidesTraceInProduction(t *testing.T) {
	SetExposeTrace(false)
	defer SetExposeTrace(true)

	c, w := contextWithQuery("")
	HandleError(c, apperror.Infrastructure(errors.New("connection refused"), "database error"))

	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Trace)
	assert.NotContains(t, body.Message, "connection refused")

	SetExposeTrace(true)
	c, w = contextWithQuery("")
	HandleError(c, apperror.Validation("bad input"))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Trace)
}
