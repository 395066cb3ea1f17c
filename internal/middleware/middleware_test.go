package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func authRouter() *gin.Engine {
	r := gin.New()
	r.Use(I18nMiddleware())
	r.GET("/me", AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "role": c.GetString("user_role")})
	})
	r.GET("/admin", AuthRequired(), AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/optional", OptionalAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	r := authRouter()
	userID := uuid.New()
	token, err := utils.GenerateJWT(userID, "a@example.com", "user", 1)
	require.NoError(t, err)

	w := perform(r, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodGet, "/me", "", map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodGet, "/me", "", map[string]string{"Authorization": "Bearer not.a.jwt"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodGet, "/me", "", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, userID.String(), body["user_id"])
	assert.Equal(t, "user", body["role"])
}

func TestAdminRequired(t *testing.T) {
	r := authRouter()
	userToken, _ := utils.GenerateJWT(uuid.New(), "u@example.com", string(models.UserRoleUser), 1)
	adminToken, _ := utils.GenerateJWT(uuid.New(), "admin@example.com", string(models.UserRoleAdmin), 1)

	w := perform(r, http.MethodGet, "/admin", "", map[string]string{"Authorization": "Bearer " + userToken})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = perform(r, http.MethodGet, "/admin", "", map[string]string{"Authorization": "Bearer " + adminToken})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	r := authRouter()

	w := perform(r, http.MethodGet, "/optional", "", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 2)
	defer limiter.Close()

	r := gin.New()
	r.GET("/", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", "", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(r, http.MethodGet, "/", "", nil).Code)

	limiter.evictIdle(time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", "", nil).Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := perform(r, http.MethodGet, "/", "", map[string]string{requestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))

	w = perform(r, http.MethodGet, "/", "", nil)
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (f *fakeRecorder) Record(ctx context.Context, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

type inlineSubmitter struct{}

func (inlineSubmitter) Submit(name string, task func()) { task() }

func TestAuditLogMiddleware(t *testing.T) {
	recorder := &fakeRecorder{}
	userID := uuid.New()
	productID := uuid.New()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID.String())
		c.Next()
	})
	r.Use(AuditLogMiddleware(recorder, inlineSubmitter{}))
	r.GET("/api/v1/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.PUT("/api/v1/products/:id", func(c *gin.Context) {
		var payload map[string]interface{}
		require.NoError(t, c.ShouldBindJSON(&payload))
		assert.Equal(t, "Mouse", payload["name"])
		c.Status(http.StatusOK)
	})

	perform(r, http.MethodGet, "/api/v1/products/"+productID.String(), "", nil)
	assert.Empty(t, recorder.entries)

	w := perform(r, http.MethodPut, "/api/v1/products/"+productID.String(), `{"name":"Mouse","password":"Secret123"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, "PUT /api/v1/products/:id", entry.Action)
	assert.Equal(t, "products", entry.ResourceType)
	assert.Equal(t, http.StatusOK, entry.Status)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, userID, *entry.UserID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, productID, *entry.ResourceID)
	assert.Equal(t, "[REDACTED]", entry.NewValues["password"])
	assert.Equal(t, "Mouse", entry.NewValues["name"])
}
