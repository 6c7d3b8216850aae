package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is a treatment offered by the clinic
type Service struct {
	ID              int             `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string          `gorm:"type:varchar(150);not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description,omitempty"`
	DurationMinutes int             `gorm:"not null;default:30" json:"duration_minutes"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Service) TableName() string {
	return "services"
}
