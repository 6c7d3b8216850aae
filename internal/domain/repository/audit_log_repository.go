package repository

import (
	"clinic-booking/internal/domain/entity"

	"gorm.io/gorm"
)

// AuditLogFilter narrows FindAll. Action matches exactly when it contains a
// dot ("appointment.cancel") and as a prefix otherwise ("appointment").
type AuditLogFilter struct {
	Action  string
	AdminID int
	Limit   int
}

type AuditLogRepository interface {
	Create(db *gorm.DB, log *entity.AuditLog) error
	FindAll(db *gorm.DB, filter *AuditLogFilter) ([]entity.AuditLog, error)
	FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error)
}
