package dto

import "clinic-booking/internal/domain/entity"

type SlotListResponse struct {
	DoctorID       int           `json:"doctor_id"`
	StartDate      entity.Date   `json:"start_date"`
	EndDate        entity.Date   `json:"end_date"`
	Slots          []entity.Slot `json:"slots"`
	Total          int           `json:"total"`
	AvailableCount int           `json:"available_count"`
}
