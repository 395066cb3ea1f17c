// internal/middleware/i18n.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
)

// I18nMiddleware resolves Accept-Language against the loaded catalogs.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := i18n.Match(c.GetHeader("Accept-Language"))
		c.Set("lang", lang)
		c.Header("Content-Language", lang)
		c.Next()
	}
}
