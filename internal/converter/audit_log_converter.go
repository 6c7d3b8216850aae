package converter

import (
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
)

func AuditLogToResponse(log *entity.AuditLog) *dto.AuditLogResponse {
	if log == nil {
		return nil
	}

	name, id := log.Subject()
	return &dto.AuditLogResponse{
		ID:        log.ID,
		Admin:     AdminToResponse(log.Admin),
		Action:    log.Action,
		Entity:    name,
		EntityID:  id,
		Metadata:  log.Metadata,
		CreatedAt: log.CreatedAt,
	}
}

func AuditLogsToResponses(logs []entity.AuditLog) []dto.AuditLogResponse {
	responses := make([]dto.AuditLogResponse, len(logs))
	for i := range logs {
		responses[i] = *AuditLogToResponse(&logs[i])
	}
	return responses
}
