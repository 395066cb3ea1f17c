package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{InsufficientStock(StockShortage{ProductName: "P"}), http.StatusBadRequest},
		{NotFound("product %s", "x"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Unauthorized("no"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{Infrastructure(errors.New("down"), "db"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.Status(), tc.err.Message)
	}
}

func TestFromStore(t *testing.T) {
	assert.Nil(t, FromStore(nil))
	assert.True(t, IsKind(FromStore(gorm.ErrRecordNotFound), KindNotFound))
	assert.True(t, IsKind(FromStore(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)), KindConflict))
	assert.True(t, IsKind(FromStore(context.DeadlineExceeded), KindInfrastructure))
	assert.True(t, IsKind(FromStore(errors.New("connection refused")), KindInfrastructure))

	original := NotFound("product %s", "abc")
	assert.Same(t, original, FromStore(original))
}

func TestInfrastructureIsRetryable(t *testing.T) {
	err := FromStore(context.DeadlineExceeded)
	appErr := As(err)

	assert.True(t, appErr.Retryable())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, Validation("x").Retryable())
}

func TestFromStoreLockConflicts(t *testing.T) {
	deadlock := FromStore(fmt.Errorf("update stock: %w", &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}))
	appErr := As(deadlock)
	assert.Equal(t, KindInfrastructure, appErr.Kind)
	assert.Equal(t, "database conflict, please retry", appErr.Message)
	assert.True(t, appErr.Retryable())

	lockTimeout := As(FromStore(&pgconn.PgError{Code: "55P03"}))
	assert.Equal(t, "database operation timed out", lockTimeout.Message)

	unique := As(FromStore(&pgconn.PgError{Code: "23505"}))
	assert.Equal(t, "database error", unique.Message)
}

func TestInsufficientStockDetails(t *testing.T) {
	err := InsufficientStock(StockShortage{ProductID: "p1", ProductName: "Mouse", Available: 3, Requested: 10})

	assert.Equal(t, "insufficient stock for product Mouse", err.Error())
	details, ok := err.Details.(StockShortage)
	assert.True(t, ok)
	assert.Equal(t, 3, details.Available)
}

func TestTraceIncludesStack(t *testing.T) {
	trace := Trace(Validation("items must not be empty"))
	assert.Contains(t, trace, "items must not be empty")
	assert.Contains(t, trace, "errors_test.go")
}
