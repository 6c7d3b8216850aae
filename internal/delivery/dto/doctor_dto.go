package dto

import "time"

// Request DTOs

type CreateDoctorRequest struct {
	FirstName      string `json:"first_name" validate:"required,max=100"`
	LastName       string `json:"last_name" validate:"required,max=100"`
	Specialization string `json:"specialization" validate:"omitempty,max=100"`
	Email          string `json:"email" validate:"required,email,max=255"`
	Phone          string `json:"phone" validate:"omitempty,max=30"`
}

// UpdateDoctorRequest only changes the fields that are present
type UpdateDoctorRequest struct {
	FirstName      *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName       *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Specialization *string `json:"specialization" validate:"omitempty,max=100"`
	Email          *string `json:"email" validate:"omitempty,email,max=255"`
	Phone          *string `json:"phone" validate:"omitempty,max=30"`
}

// Response DTOs

type DoctorResponse struct {
	ID             int       `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	FullName       string    `json:"full_name"`
	Specialization string    `json:"specialization"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}
