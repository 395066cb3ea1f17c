// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/models"
)

const (
	requestIDHeader  = "X-Request-ID"
	maxAuditBodySize = 64 * 1024
	auditTimeout     = 5 * time.Second
)

var redactedFields = map[string]bool{
	"password":        true,
	"currentPassword": true,
	"newPassword":     true,
	"token":           true,
}

type AuditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

type Submitter interface {
	Submit(name string, task func())
}

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"request_id": c.GetString("request_id"),
		}
		if userID := c.GetString("user_id"); userID != "" {
			fields["user_id"] = userID
		}

		entry := logrus.WithFields(fields)
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("Request processed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}

// AuditLogMiddleware records mutating requests on the worker pool. Failures
// are logged and never reach the client.
func AuditLogMiddleware(recorder AuditRecorder, workers Submitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		body := captureBody(c)
		start := time.Now()
		c.Next()

		entry := &models.AuditLog{
			Action:       c.Request.Method + " " + routePath(c),
			ResourceType: extractResourceType(c.Request.URL.Path),
			Status:       c.Writer.Status(),
			LatencyMS:    time.Since(start).Milliseconds(),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
			NewValues:    redact(body),
		}
		if uid, err := uuid.Parse(c.GetString("user_id")); err == nil {
			entry.UserID = &uid
		}
		if rid, err := uuid.Parse(extractResourceID(c.Request.URL.Path)); err == nil {
			entry.ResourceID = &rid
		}

		workers.Submit("audit_log", func() {
			ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
			defer cancel()
			if err := recorder.Record(ctx, entry); err != nil {
				logrus.WithError(err).WithField("action", entry.Action).Error("Failed to create audit log")
			}
		})
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func captureBody(c *gin.Context) []byte {
	if c.Request.Body == nil || !strings.HasPrefix(c.ContentType(), "application/json") {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBodySize+1))
	if err != nil {
		return nil
	}
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), c.Request.Body))
	if len(body) > maxAuditBodySize {
		return nil
	}
	return body
}

func redact(body []byte) models.JSONB {
	if len(body) == 0 {
		return nil
	}
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil
	}
	for key := range data {
		if redactedFields[key] {
			data[key] = "[REDACTED]"
		}
	}
	return models.JSONB(data)
}

func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

func extractResourceType(path string) string {
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" || part == "api" || part == "v1" {
			continue
		}
		return part
	}
	return "unknown"
}

func extractResourceID(path string) string {
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if _, err := uuid.Parse(part); err == nil {
			return part
		}
	}
	return ""
}
