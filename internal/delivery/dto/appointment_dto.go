package dto

import (
	"time"

	"clinic-booking/internal/domain/entity"
)

// Request DTOs

type CreateAppointmentRequest struct {
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Phone           string `json:"phone" validate:"required,max=30"`
	DoctorID        int    `json:"doctor_id" validate:"required,gt=0"`
	ServiceID       int    `json:"service_id" validate:"required,gt=0"`
	AppointmentDate string `json:"appointment_date" validate:"required"` // Format: YYYY-MM-DD
	AppointmentTime string `json:"appointment_time" validate:"required"` // Format: HH:MM
	Notes           string `json:"notes" validate:"omitempty,max=2000"`
}

type AppointmentListQuery struct {
	DoctorID  int    `json:"doctor_id" validate:"omitempty,gt=0"`
	PatientID int    `json:"patient_id" validate:"omitempty,gt=0"`
	Status    string `json:"status" validate:"omitempty,oneof=scheduled approved rejected cancelled"`
	Date      string `json:"date" validate:"omitempty"`
}

// Response DTOs

type AppointmentResponse struct {
	ID              int              `json:"id"`
	PatientID       int              `json:"patient_id"`
	DoctorID        int              `json:"doctor_id"`
	ServiceID       int              `json:"service_id"`
	AppointmentDate entity.Date      `json:"appointment_date"`
	AppointmentTime entity.ClockTime `json:"appointment_time"`
	Status          string           `json:"status"`
	Notes           string           `json:"notes"`
	DoctorName      string           `json:"doctor_name,omitempty"`
	PatientName     string           `json:"patient_name,omitempty"`
	ServiceName     string           `json:"service_name,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
