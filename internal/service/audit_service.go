package service

import (
	"context"
	"errors"
	"fmt"

	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService writes audit entries inside the caller's transaction. adminID is
// nil for patient actions.
type AuditService interface {
	LogCreate(ctx context.Context, tx *gorm.DB, adminID *int, action string, entityName string, entityID int, newValue interface{}) error
	LogUpdate(ctx context.Context, tx *gorm.DB, adminID *int, action string, entityName string, entityID int, oldValue, newValue interface{}) error
	LogDelete(ctx context.Context, tx *gorm.DB, adminID *int, action string, entityName string, entityID int, oldValue interface{}) error
	LogEvent(ctx context.Context, tx *gorm.DB, adminID *int, action string, metadata entity.JSON) error
}

const auditSavePoint = "audit_log"

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogCreate logs a create action
func (s *auditService) LogCreate(ctx context.Context, tx *gorm.DB, adminID *int, action string, entityName string, entityID int, newValue interface{}) error {
	return s.write(ctx, tx, adminID, action, entity.JSON{
		"entity":    entityName,
		"entity_id": entityID,
		"old_value": nil,
		"new_value": newValue,
	})
}

// LogUpdate logs an update action with old and new values
func (s *auditService) LogUpdate(ctx context.Context, tx *gorm.DB, adminID *int, action string, entityName string, entityID int, oldValue, newValue interface{}) error {
	return s.write(ctx, tx, adminID, action, entity.JSON{
		"entity":    entityName,
		"entity_id": entityID,
		"old_value": oldValue,
		"new_value": newValue,
	})
}

// LogDelete logs a delete action with old value
func (s *auditService) LogDelete(ctx context.Context, tx *gorm.DB, adminID *int, action string, entityName string, entityID int, oldValue interface{}) error {
	return s.write(ctx, tx, adminID, action, entity.JSON{
		"entity":    entityName,
		"entity_id": entityID,
		"old_value": oldValue,
		"new_value": nil,
	})
}

// LogEvent logs an action that is not tied to one record, such as a login.
func (s *auditService) LogEvent(ctx context.Context, tx *gorm.DB, adminID *int, action string, metadata entity.JSON) error {
	return s.write(ctx, tx, adminID, action, metadata)
}

func (s *auditService) write(ctx context.Context, tx *gorm.DB, adminID *int, action string, metadata entity.JSON) error {
	auditLog := &entity.AuditLog{
		AdminID:  adminID,
		Action:   action,
		Metadata: metadata,
	}

	db := tx.WithContext(ctx)
	if !inTransaction(db) {
		if err := s.auditRepo.Create(db, auditLog); err != nil {
			s.log.Warnf("Failed to create audit log: %+v", err)
			return err
		}
		return nil
	}

	// A failed insert aborts a postgres transaction; the savepoint keeps the
	// caller's transaction usable.
	if err := db.SavePoint(auditSavePoint).Error; err != nil {
		s.log.Warnf("Failed to create audit savepoint: %+v", err)
		return err
	}

	if err := s.auditRepo.Create(db, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		if rbErr := db.RollbackTo(auditSavePoint).Error; rbErr != nil {
			s.log.Errorf("Failed to roll back audit savepoint: %+v", rbErr)
			return errors.Join(err, fmt.Errorf("failed to roll back audit savepoint: %w", rbErr))
		}
		return err
	}

	return nil
}

func inTransaction(db *gorm.DB) bool {
	_, ok := db.Statement.ConnPool.(gorm.TxCommitter)
	return ok
}
