package repository

import (
	"clinic-booking/internal/domain/entity"

	"gorm.io/gorm"
)

type PatientRepository interface {
	Create(db *gorm.DB, patient *entity.Patient) error
	CreateIfAbsent(db *gorm.DB, patient *entity.Patient) (bool, error)
	FindByID(db *gorm.DB, id int) (*entity.Patient, error)
	FindByEmail(db *gorm.DB, email string) (*entity.Patient, error)
	FindAll(db *gorm.DB) ([]entity.Patient, error)
}
