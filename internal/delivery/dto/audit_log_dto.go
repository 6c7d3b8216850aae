package dto

import (
	"time"

	"clinic-booking/internal/domain/entity"
)

// Request DTOs

type AuditLogListQuery struct {
	Action  string `json:"action" validate:"omitempty,max=100"`
	AdminID int    `json:"admin_id" validate:"omitempty,gt=0"`
	Limit   int    `json:"limit" validate:"omitempty,gte=0,lte=500"`
}

// Response DTOs

// AuditLogResponse lifts the entity reference out of the metadata; both
// fields are empty for events such as logins.
type AuditLogResponse struct {
	ID        int64          `json:"id"`
	Admin     *AdminResponse `json:"admin,omitempty"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity,omitempty"`
	EntityID  int            `json:"entity_id,omitempty"`
	Metadata  entity.JSON    `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int                `json:"total"`
}
