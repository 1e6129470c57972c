package repository

import (
	"context"

	"fintrack/internal/models"
)

// CreateAuditLog inserts an audit entry.
func (r *GormRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return wrapDB(r.db.WithContext(ctx).Create(entry).Error)
}
