package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AuditLog records an admin or booking action. AdminID is nil for actions
// taken by anonymous patients.
type AuditLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AdminID   *int      `gorm:"index" json:"admin_id,omitempty"`
	Action    string    `gorm:"type:varchar(100);not null;index" json:"action"`
	Metadata  JSON      `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	// Relationships
	Admin *Admin `gorm:"foreignKey:AdminID;constraint:OnDelete:SET NULL" json:"admin,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Subject returns the record an entry is about, as written by the audit
// service. entity_id is an int before the row is stored and a float64 once
// read back from the JSON column.
func (a *AuditLog) Subject() (string, int) {
	name, _ := a.Metadata["entity"].(string)
	switch id := a.Metadata["entity_id"].(type) {
	case int:
		return name, id
	case float64:
		return name, int(id)
	default:
		return name, 0
	}
}

// JSON is a free-form object stored as JSONB. The empty object is stored as NULL.
type JSON map[string]interface{}

// Value implements driver.Valuer
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return json.Marshal(map[string]interface{}(j))
}

// Scan implements sql.Scanner
func (j *JSON) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSON", value)
	}

	decoded := map[string]interface{}{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("invalid JSON value: %w", err)
	}
	*j = decoded
	return nil
}

// Common audit actions
const (
	AuditActionAdminLogin         = "admin.login"
	AuditActionAdminLogout        = "admin.logout"
	AuditActionAppointmentCreate  = "appointment.create"
	AuditActionAppointmentApprove = "appointment.approve"
	AuditActionAppointmentReject  = "appointment.reject"
	AuditActionAppointmentCancel  = "appointment.cancel"
	AuditActionDoctorCreate       = "doctor.create"
	AuditActionDoctorUpdate       = "doctor.update"
	AuditActionDoctorDelete       = "doctor.delete"
	AuditActionServiceCreate      = "service.create"
	AuditActionServiceUpdate      = "service.update"
	AuditActionServiceDelete      = "service.delete"
)
