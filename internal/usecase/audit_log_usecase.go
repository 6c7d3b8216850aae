package usecase

import (
	"context"
	"errors"
	"strings"

	"clinic-booking/internal/converter"
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultAuditLogLimit = 100

var (
	ErrAuditLogNotFound = errors.New("audit log not found")
)

type AuditLogUsecase interface {
	GetAllAuditLogs(ctx context.Context, query *dto.AuditLogListQuery) (*dto.AuditLogListResponse, error)
	GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error)
}

type auditLogUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		db:           db,
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

// GetAllAuditLogs returns the newest entries first. A zero limit means
// defaultAuditLogLimit.
func (u *auditLogUsecase) GetAllAuditLogs(ctx context.Context, query *dto.AuditLogListQuery) (*dto.AuditLogListResponse, error) {
	filter := &repository.AuditLogFilter{Limit: defaultAuditLogLimit}
	if query != nil {
		filter.Action = strings.ToLower(strings.TrimSpace(query.Action))
		filter.AdminID = query.AdminID
		if query.Limit > 0 {
			filter.Limit = query.Limit
		}
	}

	logs, err := u.auditLogRepo.FindAll(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to find audit logs: %+v", err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: len(logs),
	}, nil
}

func (u *auditLogUsecase) GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error) {
	auditLog, err := u.auditLogRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find audit log %d: %+v", id, err)
		return nil, err
	}
	if auditLog == nil {
		return nil, ErrAuditLogNotFound
	}

	return converter.AuditLogToResponse(auditLog), nil
}
