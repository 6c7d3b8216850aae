package repository

import (
	"errors"

	"clinic-booking/internal/domain/entity"
	domainRepo "clinic-booking/internal/domain/repository"

	"gorm.io/gorm"
)

type adminRepository struct{}

func NewAdminRepository() domainRepo.AdminRepository {
	return &adminRepository{}
}

func (r *adminRepository) Create(db *gorm.DB, admin *entity.Admin) error {
	return db.Create(admin).Error
}

func (r *adminRepository) FindByID(db *gorm.DB, id int) (*entity.Admin, error) {
	var admin entity.Admin
	err := db.Where("id = ?", id).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) FindByUsername(db *gorm.DB, username string) (*entity.Admin, error) {
	var admin entity.Admin
	err := db.Where("username = ?", username).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}
