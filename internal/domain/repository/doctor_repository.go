package repository

import (
	"clinic-booking/internal/domain/entity"

	"gorm.io/gorm"
)

type DoctorRepository interface {
	Create(db *gorm.DB, doctor *entity.Doctor) error
	FindByID(db *gorm.DB, id int) (*entity.Doctor, error)
	FindByEmail(db *gorm.DB, email string) (*entity.Doctor, error)
	FindAll(db *gorm.DB, specialization string) ([]entity.Doctor, error)
	Update(db *gorm.DB, doctor *entity.Doctor) error
	Delete(db *gorm.DB, id int) (int64, error)
}
