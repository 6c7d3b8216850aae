package usecase

import (
	"context"
	"errors"

	"clinic-booking/internal/converter"
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
)

type PatientUsecase interface {
	GetAllPatients(ctx context.Context) (*dto.PatientListResponse, error)
	GetPatient(ctx context.Context, id int) (*dto.PatientResponse, error)
}

type patientUsecase struct {
	db          *gorm.DB
	log         *logrus.Logger
	patientRepo repository.PatientRepository
}

func NewPatientUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	patientRepo repository.PatientRepository,
) PatientUsecase {
	return &patientUsecase{
		db:          db,
		log:         log,
		patientRepo: patientRepo,
	}
}

func (u *patientUsecase) GetAllPatients(ctx context.Context) (*dto.PatientListResponse, error) {
	patients, err := u.patientRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find all patients: %+v", err)
		return nil, err
	}

	return &dto.PatientListResponse{
		Patients: converter.PatientsToResponses(patients),
		Total:    len(patients),
	}, nil
}

func (u *patientUsecase) GetPatient(ctx context.Context, id int) (*dto.PatientResponse, error) {
	patient, err := u.patientRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find patient %d: %+v", id, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	return converter.PatientToResponse(patient), nil
}
