package repository

import (
	"errors"

	"clinic-booking/internal/domain/entity"
	domainRepo "clinic-booking/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type patientRepository struct{}

func NewPatientRepository() domainRepo.PatientRepository {
	return &patientRepository{}
}

func (r *patientRepository) Create(db *gorm.DB, patient *entity.Patient) error {
	return db.Create(patient).Error
}

// CreateIfAbsent inserts the patient unless the email is already taken. It
// reports whether a row was inserted; a conflict does not abort the transaction.
func (r *patientRepository) CreateIfAbsent(db *gorm.DB, patient *entity.Patient) (bool, error) {
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(patient)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *patientRepository) FindByID(db *gorm.DB, id int) (*entity.Patient, error) {
	var patient entity.Patient
	err := db.Where("id = ?", id).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) FindByEmail(db *gorm.DB, email string) (*entity.Patient, error) {
	var patient entity.Patient
	err := db.Where("email = ?", email).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) FindAll(db *gorm.DB) ([]entity.Patient, error) {
	var patients []entity.Patient
	if err := db.Order("id ASC").Find(&patients).Error; err != nil {
		return nil, err
	}
	return patients, nil
}
