// internal/apperror/errors.go
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes for conditions a client may retry.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
)

type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindConflict          Kind = "conflict"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindInfrastructure    Kind = "infrastructure_error"
)

// Error is the application error returned by services. Every Error carries a
// cause with a stack recorded where it was created.
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil && e.Kind == KindInfrastructure {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindInsufficientStock:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may safely retry the operation.
func (e *Error) Retryable() bool {
	return e.Kind == KindInfrastructure
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: pkgerrors.New(message)}
}

func Validation(format string, args ...interface{}) *Error {
	return newError(KindValidation, fmt.Sprintf(format, args...))
}

// ValidationWithDetails attaches per-field validation failures.
func ValidationWithDetails(message string, details interface{}) *Error {
	e := newError(KindValidation, message)
	e.Details = details
	return e
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, fmt.Sprintf(format, args...))
}

type StockShortage struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Available   int    `json:"available"`
	Requested   int    `json:"requested"`
}

func InsufficientStock(s StockShortage) *Error {
	e := newError(KindInsufficientStock, fmt.Sprintf("insufficient stock for product %s", s.ProductName))
	e.Details = s
	return e
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(KindConflict, fmt.Sprintf(format, args...))
}

func Unauthorized(message string) *Error {
	return newError(KindUnauthorized, message)
}

func Forbidden(message string) *Error {
	return newError(KindForbidden, message)
}

// Infrastructure wraps a store or transport failure.
func Infrastructure(err error, message string) *Error {
	return &Error{Kind: KindInfrastructure, Message: message, cause: pkgerrors.WithStack(err)}
}

// FromStore classifies an error returned by gorm. Application errors pass
// through untouched.
func FromStore(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("record not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Conflict("resource already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return NotFound("referenced resource not found")
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return Validation("value violates a data constraint")
	case isPgCode(err, pgDeadlockDetected, pgSerializationFailure):
		return Infrastructure(err, "database conflict, please retry")
	case isPgCode(err, pgLockNotAvailable, pgQueryCanceled):
		return Infrastructure(err, "database operation timed out")
	case errors.Is(err, context.DeadlineExceeded):
		return Infrastructure(err, "database operation timed out")
	case errors.Is(err, context.Canceled):
		return Infrastructure(err, "database operation canceled")
	default:
		return Infrastructure(err, "database error")
	}
}

func isPgCode(err error, codes ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	for _, code := range codes {
		if pgErr.Code == code {
			return true
		}
	}
	return false
}

// As extracts an *Error, classifying anything else as infrastructure.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Infrastructure(err, "internal server error")
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Trace renders the recorded stack for diagnostics.
func Trace(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.cause != nil {
		return fmt.Sprintf("%+v", appErr.cause)
	}
	return fmt.Sprintf("%+v", err)
}
