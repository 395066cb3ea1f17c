// internal/models/audit.go
package models

import (
	"github.com/google/uuid"
)

// AuditLog records one mutating API request.
type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"userId" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:255;not null;index"`
	ResourceType string     `json:"resourceType" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resourceId" gorm:"type:uuid;index"`
	Status       int        `json:"status"`
	LatencyMS    int64      `json:"latencyMs"`
	NewValues    JSONB      `json:"newValues" gorm:"type:jsonb"`
	IPAddress    string     `json:"ipAddress" gorm:"size:45"`
	UserAgent    string     `json:"userAgent" gorm:"type:text"`
}
