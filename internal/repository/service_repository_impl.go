package repository

import (
	"errors"

	"clinic-booking/internal/domain/entity"
	domainRepo "clinic-booking/internal/domain/repository"

	"gorm.io/gorm"
)

type serviceRepository struct{}

func NewServiceRepository() domainRepo.ServiceRepository {
	return &serviceRepository{}
}

func (r *serviceRepository) Create(db *gorm.DB, service *entity.Service) error {
	return db.Create(service).Error
}

func (r *serviceRepository) FindByID(db *gorm.DB, id int) (*entity.Service, error) {
	var service entity.Service
	err := db.Where("id = ?", id).First(&service).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &service, nil
}

func (r *serviceRepository) FindAll(db *gorm.DB) ([]entity.Service, error) {
	var services []entity.Service
	if err := db.Order("id ASC").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *serviceRepository) Update(db *gorm.DB, service *entity.Service) error {
	return db.Save(service).Error
}

func (r *serviceRepository) Delete(db *gorm.DB, id int) (int64, error) {
	result := db.Where("id = ?", id).Delete(&entity.Service{})
	return result.RowsAffected, result.Error
}
