package entity

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusApproved  AppointmentStatus = "approved"
	AppointmentStatusRejected  AppointmentStatus = "rejected"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// appointmentTransitions lists the admin actions allowed from each status.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled: {AppointmentStatusApproved, AppointmentStatusRejected, AppointmentStatusCancelled},
	AppointmentStatusApproved:  {AppointmentStatusRejected, AppointmentStatusCancelled},
	AppointmentStatusRejected:  {AppointmentStatusApproved, AppointmentStatusCancelled},
	AppointmentStatusCancelled: {},
}

func (s AppointmentStatus) IsValid() bool {
	_, ok := appointmentTransitions[s]
	return ok
}

// IsActive reports whether an appointment in this status holds its slot.
func (s AppointmentStatus) IsActive() bool {
	return s != AppointmentStatusCancelled
}

// CanTransitionTo checks the transition table. Staying in the same status is always allowed.
func (s AppointmentStatus) CanTransitionTo(target AppointmentStatus) bool {
	if s == target {
		return true
	}
	for _, allowed := range appointmentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Appointment books a doctor for one slot. At most one active appointment may
// exist per (doctor, date, time); the partial unique index enforces it.
type Appointment struct {
	ID              int               `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID       int               `gorm:"not null;index" json:"patient_id"`
	DoctorID        int               `gorm:"not null;uniqueIndex:idx_appointments_active_slot,where:status <> 'cancelled'" json:"doctor_id"`
	ServiceID       int               `gorm:"not null;index" json:"service_id"`
	AppointmentDate Date              `gorm:"type:date;not null;index;uniqueIndex:idx_appointments_active_slot,where:status <> 'cancelled'" json:"appointment_date"`
	AppointmentTime ClockTime         `gorm:"type:time;not null;uniqueIndex:idx_appointments_active_slot,where:status <> 'cancelled'" json:"appointment_time"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient Patient `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"patient,omitempty"`
	Doctor  Doctor  `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"doctor,omitempty"`
	Service Service `gorm:"foreignKey:ServiceID;constraint:OnDelete:CASCADE" json:"service,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// Slot returns the (date, time) key the appointment occupies
func (a *Appointment) Slot() SlotKey {
	return SlotKey{Date: a.AppointmentDate, Time: a.AppointmentTime}
}

func (a *Appointment) IsActive() bool {
	return a.Status.IsActive()
}

func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}
