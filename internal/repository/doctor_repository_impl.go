package repository

import (
	"errors"
	"strings"

	"clinic-booking/internal/domain/entity"
	domainRepo "clinic-booking/internal/domain/repository"

	"gorm.io/gorm"
)

type doctorRepository struct{}

func NewDoctorRepository() domainRepo.DoctorRepository {
	return &doctorRepository{}
}

func (r *doctorRepository) Create(db *gorm.DB, doctor *entity.Doctor) error {
	return db.Create(doctor).Error
}

func (r *doctorRepository) FindByID(db *gorm.DB, id int) (*entity.Doctor, error) {
	var doctor entity.Doctor
	err := db.Where("id = ?", id).First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) FindByEmail(db *gorm.DB, email string) (*entity.Doctor, error) {
	var doctor entity.Doctor
	err := db.Where("LOWER(email) = ?", strings.ToLower(email)).First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doctor, nil
}

// FindAll optionally filters by a case-insensitive specialization substring.
func (r *doctorRepository) FindAll(db *gorm.DB, specialization string) ([]entity.Doctor, error) {
	var doctors []entity.Doctor
	query := db.Order("id ASC")
	if specialization != "" {
		query = query.Where("LOWER(specialization) LIKE ?", "%"+strings.ToLower(specialization)+"%")
	}
	if err := query.Find(&doctors).Error; err != nil {
		return nil, err
	}
	return doctors, nil
}

func (r *doctorRepository) Update(db *gorm.DB, doctor *entity.Doctor) error {
	return db.Save(doctor).Error
}

func (r *doctorRepository) Delete(db *gorm.DB, id int) (int64, error) {
	result := db.Where("id = ?", id).Delete(&entity.Doctor{})
	return result.RowsAffected, result.Error
}
