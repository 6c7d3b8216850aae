package repository

import (
	"clinic-booking/internal/domain/entity"

	"gorm.io/gorm"
)

type AdminRepository interface {
	Create(db *gorm.DB, admin *entity.Admin) error
	FindByID(db *gorm.DB, id int) (*entity.Admin, error)
	FindByUsername(db *gorm.DB, username string) (*entity.Admin, error)
}
