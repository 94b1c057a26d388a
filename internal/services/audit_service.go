package services

import (
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"duofinance/internal/logger"
	"duofinance/internal/models"
)

// auditService handles audit log recording.
type auditService struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB, log *zap.SugaredLogger) AuditServicer {
	return &auditService{db: db, log: log}
}

// Log records an audit event with PII masked out of changes. Errors are
// logged but never propagate.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(logger.MaskPII(changes))
		if err != nil {
			s.log.Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		s.log.Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
