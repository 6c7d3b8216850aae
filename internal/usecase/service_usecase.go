package usecase

import (
	"context"
	"errors"

	"clinic-booking/internal/converter"
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/delivery/http/middleware"
	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/domain/repository"
	"clinic-booking/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrInvalidPrice    = errors.New("price must not be negative")
)

type ServiceUsecase interface {
	GetAllServices(ctx context.Context) (*dto.ServiceListResponse, error)
	GetService(ctx context.Context, id int) (*dto.ServiceResponse, error)
	CreateService(ctx context.Context, req *dto.CreateServiceRequest) (*dto.ServiceResponse, error)
	UpdateService(ctx context.Context, id int, req *dto.UpdateServiceRequest) (*dto.ServiceResponse, error)
	DeleteService(ctx context.Context, id int) error
}

type serviceUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	serviceRepo  repository.ServiceRepository
	auditService service.AuditService
}

func NewServiceUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	serviceRepo repository.ServiceRepository,
	auditService service.AuditService,
) ServiceUsecase {
	return &serviceUsecase{
		db:           db,
		log:          log,
		serviceRepo:  serviceRepo,
		auditService: auditService,
	}
}

func (u *serviceUsecase) GetAllServices(ctx context.Context) (*dto.ServiceListResponse, error) {
	services, err := u.serviceRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find all services: %+v", err)
		return nil, err
	}

	return &dto.ServiceListResponse{
		Services: converter.ServicesToResponses(services),
		Total:    len(services),
	}, nil
}

func (u *serviceUsecase) GetService(ctx context.Context, id int) (*dto.ServiceResponse, error) {
	svc, err := u.serviceRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find service %d: %+v", id, err)
		return nil, err
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}

	return converter.ServiceToResponse(svc), nil
}

func (u *serviceUsecase) CreateService(ctx context.Context, req *dto.CreateServiceRequest) (*dto.ServiceResponse, error) {
	if req.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	svc := &entity.Service{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
	}

	if err := u.serviceRepo.Create(tx, svc); err != nil {
		u.log.Warnf("Failed to create service: %+v", err)
		return nil, err
	}

	// Audit log - create service
	if err := u.auditService.LogCreate(ctx, tx, middleware.AdminIDPtr(ctx), entity.AuditActionServiceCreate, "service", svc.ID, converter.ServiceToResponse(svc)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.ServiceToResponse(svc), nil
}

func (u *serviceUsecase) UpdateService(ctx context.Context, id int, req *dto.UpdateServiceRequest) (*dto.ServiceResponse, error) {
	if req.Price != nil && req.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	svc, err := u.serviceRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed to find service %d: %+v", id, err)
		return nil, err
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}

	oldValue := converter.ServiceToResponse(svc)

	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.DurationMinutes != nil {
		svc.DurationMinutes = *req.DurationMinutes
	}
	if req.Price != nil {
		svc.Price = *req.Price
	}

	if err := u.serviceRepo.Update(tx, svc); err != nil {
		u.log.Warnf("Failed to update service %d: %+v", id, err)
		return nil, err
	}

	// Audit log - update service
	newValue := converter.ServiceToResponse(svc)
	if err := u.auditService.LogUpdate(ctx, tx, middleware.AdminIDPtr(ctx), entity.AuditActionServiceUpdate, "service", id, oldValue, newValue); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return newValue, nil
}

// DeleteService removes the service; the store cascades to its appointments.
func (u *serviceUsecase) DeleteService(ctx context.Context, id int) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	svc, err := u.serviceRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed to find service %d: %+v", id, err)
		return err
	}
	if svc == nil {
		return ErrServiceNotFound
	}

	affected, err := u.serviceRepo.Delete(tx, id)
	if err != nil {
		u.log.Warnf("Failed to delete service %d: %+v", id, err)
		return err
	}
	if affected == 0 {
		return ErrServiceNotFound
	}

	// Audit log - delete service
	if err := u.auditService.LogDelete(ctx, tx, middleware.AdminIDPtr(ctx), entity.AuditActionServiceDelete, "service", id, converter.ServiceToResponse(svc)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	return nil
}
