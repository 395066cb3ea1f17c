// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/i18n"
)

type APIResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Errors     interface{} `json:"errors,omitempty"`
	Trace      string      `json:"trace,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

var exposeTrace = true

// SetExposeTrace toggles diagnostic traces in error bodies. Production turns
// it off.
func SetExposeTrace(expose bool) {
	exposeTrace = expose
}

func SuccessResponse(c *gin.Context, messageKey string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: i18n.T(GetLangFromContext(c), messageKey),
		Data:    data,
	})
}

func CreatedResponse(c *gin.Context, messageKey string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: i18n.T(GetLangFromContext(c), messageKey),
		Data:    data,
	})
}

func PaginatedResponse(c *gin.Context, messageKey string, result PaginationResult) {
	SetPaginationHeaders(c, result)
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: i18n.T(GetLangFromContext(c), messageKey),
		Data:    result.Data,
		Pagination: &Pagination{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		},
	})
}

// ErrorResponse aborts the chain so middleware can use it directly.
func ErrorResponse(c *gin.Context, statusCode int, message string, details interface{}) {
	c.AbortWithStatusJSON(statusCode, APIResponse{
		Success: false,
		Message: message,
		Errors:  details,
	})
}

func UnauthorizedResponse(c *gin.Context, message string) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyAuthRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, message, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyAuthForbidden)
	}
	ErrorResponse(c, http.StatusForbidden, message, nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	message := i18n.T(GetLangFromContext(c), i18n.KeyValidationInvalid)
	ErrorResponse(c, http.StatusBadRequest, message, errors)
}

// HandleError writes the envelope for any service error. Business errors are
// expected and only logged at debug level.
func HandleError(c *gin.Context, err error) {
	appErr := apperror.As(err)

	fields := logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
		"kind":   appErr.Kind,
	}
	if requestID, ok := c.Get("request_id"); ok {
		fields["request_id"] = requestID
	}

	message := appErr.Message
	if appErr.Kind == apperror.KindInfrastructure {
		logrus.WithFields(fields).WithError(err).Error("Request failed")
		if !exposeTrace {
			message = i18n.T(GetLangFromContext(c), i18n.KeyInternalError)
		}
	} else {
		logrus.WithFields(fields).Debug(appErr.Message)
	}

	resp := APIResponse{
		Success: false,
		Message: message,
		Errors:  appErr.Details,
	}
	if exposeTrace {
		resp.Trace = apperror.Trace(appErr)
	}
	c.AbortWithStatusJSON(appErr.Status(), resp)
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if userID, exists := c.Get("user_id"); exists {
		if userIDStr, ok := userID.(string); ok {
			return userIDStr, true
		}
	}
	return "", false
}

func GetUserRoleFromContext(c *gin.Context) (string, bool) {
	if role, exists := c.Get("user_role"); exists {
		if roleStr, ok := role.(string); ok {
			return roleStr, true
		}
	}
	return "", false
}
