package repository

import (
	"clinic-booking/internal/domain/entity"

	"gorm.io/gorm"
)

type ServiceRepository interface {
	Create(db *gorm.DB, service *entity.Service) error
	FindByID(db *gorm.DB, id int) (*entity.Service, error)
	FindAll(db *gorm.DB) ([]entity.Service, error)
	Update(db *gorm.DB, service *entity.Service) error
	Delete(db *gorm.DB, id int) (int64, error)
}
