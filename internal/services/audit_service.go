package services

import (
	"context"

	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/repository"
)

// auditService records API mutations.
type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(repo repository.AuditRepository) AuditServicer {
	return &auditService{repo: repo}
}

// Log stores an audit entry. A failed write is logged and swallowed so the
// audited operation still succeeds.
func (s *auditService) Log(ctx context.Context, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	entry := &models.AuditLog{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changes,
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
		return
	}
	logger.Get().Debugw("audit", "action", action, "resource_type", resourceType, "resource_id", resourceID)
}
