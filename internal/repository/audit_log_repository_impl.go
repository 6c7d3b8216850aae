package repository

import (
	"errors"
	"strings"

	"clinic-booking/internal/domain/entity"
	domainRepo "clinic-booking/internal/domain/repository"

	"gorm.io/gorm"
)

type auditLogRepository struct{}

func NewAuditLogRepository() domainRepo.AuditLogRepository {
	return &auditLogRepository{}
}

// Create never touches the admins table; the entry only references it.
func (r *auditLogRepository) Create(db *gorm.DB, log *entity.AuditLog) error {
	return db.Omit("Admin").Create(log).Error
}

// FindAll returns entries newest first.
func (r *auditLogRepository) FindAll(db *gorm.DB, filter *domainRepo.AuditLogFilter) ([]entity.AuditLog, error) {
	query := db.Preload("Admin").Order("created_at DESC, id DESC")

	if filter != nil {
		switch {
		case filter.Action == "":
		case strings.Contains(filter.Action, "."):
			query = query.Where("action = ?", filter.Action)
		default:
			query = query.Where("action LIKE ?", filter.Action+".%")
		}
		if filter.AdminID > 0 {
			query = query.Where("admin_id = ?", filter.AdminID)
		}
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
	}

	var logs []entity.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *auditLogRepository) FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error) {
	var log entity.AuditLog
	err := db.Preload("Admin").Where("id = ?", id).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}
