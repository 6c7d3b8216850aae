package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateServiceRequest struct {
	Name            string          `json:"name" validate:"required,max=150"`
	Description     string          `json:"description" validate:"omitempty"`
	DurationMinutes int             `json:"duration_minutes" validate:"required,gt=0,lte=480"`
	Price           decimal.Decimal `json:"price"`
}

type UpdateServiceRequest struct {
	Name            *string          `json:"name" validate:"omitempty,min=1,max=150"`
	Description     *string          `json:"description" validate:"omitempty"`
	DurationMinutes *int             `json:"duration_minutes" validate:"omitempty,gt=0,lte=480"`
	Price           *decimal.Decimal `json:"price"`
}

// Response DTOs

type ServiceResponse struct {
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	DurationMinutes int             `json:"duration_minutes"`
	Price           decimal.Decimal `json:"price"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ServiceListResponse struct {
	Services []ServiceResponse `json:"services"`
	Total    int               `json:"total"`
}
