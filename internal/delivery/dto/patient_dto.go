package dto

import (
	"time"

	"clinic-booking/internal/domain/entity"
)

type PatientResponse struct {
	ID          int          `json:"id"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	DateOfBirth *entity.Date `json:"date_of_birth,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

type PatientListResponse struct {
	Patients []PatientResponse `json:"patients"`
	Total    int               `json:"total"`
}
