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
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrDoctorEmailExists = errors.New("doctor email already exists")
)

type DoctorUsecase interface {
	GetAllDoctors(ctx context.Context, specialization string) (*dto.DoctorListResponse, error)
	GetDoctor(ctx context.Context, id int) (*dto.DoctorResponse, error)
	CreateDoctor(ctx context.Context, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error)
	UpdateDoctor(ctx context.Context, id int, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error)
	DeleteDoctor(ctx context.Context, id int) error
}

type doctorUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	doctorRepo   repository.DoctorRepository
	auditService service.AuditService
}

func NewDoctorUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	auditService service.AuditService,
) DoctorUsecase {
	return &doctorUsecase{
		db:           db,
		log:          log,
		doctorRepo:   doctorRepo,
		auditService: auditService,
	}
}

func (u *doctorUsecase) GetAllDoctors(ctx context.Context, specialization string) (*dto.DoctorListResponse, error) {
	doctors, err := u.doctorRepo.FindAll(u.db.WithContext(ctx), specialization)
	if err != nil {
		u.log.Warnf("Failed to find all doctors: %+v", err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(doctors),
		Total:   len(doctors),
	}, nil
}

func (u *doctorUsecase) GetDoctor(ctx context.Context, id int) (*dto.DoctorResponse, error) {
	doctor, err := u.doctorRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find doctor %d: %+v", id, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	return converter.DoctorToResponse(doctor), nil
}

func (u *doctorUsecase) CreateDoctor(ctx context.Context, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	existing, err := u.doctorRepo.FindByEmail(tx, req.Email)
	if err != nil {
		u.log.Warnf("Failed to find doctor by email: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrDoctorEmailExists
	}

	doctor := &entity.Doctor{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Specialization: req.Specialization,
		Email:          req.Email,
		Phone:          req.Phone,
	}

	if err := u.doctorRepo.Create(tx, doctor); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrDoctorEmailExists
		}
		u.log.Warnf("Failed to create doctor: %+v", err)
		return nil, err
	}

	// Audit log - create doctor
	if err := u.auditService.LogCreate(ctx, tx, middleware.AdminIDPtr(ctx), entity.AuditActionDoctorCreate, "doctor", doctor.ID, converter.DoctorToResponse(doctor)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.DoctorToResponse(doctor), nil
}

func (u *doctorUsecase) UpdateDoctor(ctx context.Context, id int, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	doctor, err := u.doctorRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed to find doctor %d: %+v", id, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	oldValue := converter.DoctorToResponse(doctor)

	if req.Email != nil && *req.Email != doctor.Email {
		existing, err := u.doctorRepo.FindByEmail(tx, *req.Email)
		if err != nil {
			u.log.Warnf("Failed to find doctor by email: %+v", err)
			return nil, err
		}
		if existing != nil && existing.ID != doctor.ID {
			return nil, ErrDoctorEmailExists
		}
		doctor.Email = *req.Email
	}
	if req.FirstName != nil {
		doctor.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		doctor.LastName = *req.LastName
	}
	if req.Specialization != nil {
		doctor.Specialization = *req.Specialization
	}
	if req.Phone != nil {
		doctor.Phone = *req.Phone
	}

	if err := u.doctorRepo.Update(tx, doctor); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrDoctorEmailExists
		}
		u.log.Warnf("Failed to update doctor %d: %+v", id, err)
		return nil, err
	}

	// Audit log - update doctor
	newValue := converter.DoctorToResponse(doctor)
	if err := u.auditService.LogUpdate(ctx, tx, middleware.AdminIDPtr(ctx), entity.AuditActionDoctorUpdate, "doctor", id, oldValue, newValue); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return newValue, nil
}

// DeleteDoctor removes the doctor; the store cascades to its appointments.
func (u *doctorUsecase) DeleteDoctor(ctx context.Context, id int) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	doctor, err := u.doctorRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed to find doctor %d: %+v", id, err)
		return err
	}
	if doctor == nil {
		return ErrDoctorNotFound
	}

	affected, err := u.doctorRepo.Delete(tx, id)
	if err != nil {
		u.log.Warnf("Failed to delete doctor %d: %+v", id, err)
		return err
	}
	if affected == 0 {
		return ErrDoctorNotFound
	}

	// Audit log - delete doctor
	if err := u.auditService.LogDelete(ctx, tx, middleware.AdminIDPtr(ctx), entity.AuditActionDoctorDelete, "doctor", id, converter.DoctorToResponse(doctor)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	return nil
}
