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
	"clinic-booking/pkg/metrics"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrSlotTaken               = errors.New("this appointment slot is already taken")
	ErrSlotBeingBooked         = errors.New("this appointment slot is being booked, please retry")
	ErrInvalidStatusTransition = errors.New("appointment status change is not allowed")
	ErrInvalidDateFormat       = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidTimeFormat       = errors.New("invalid time format, use HH:MM")
)

// slotIndexNames identify the active-slot unique index in postgres and sqlite errors
var slotIndexNames = []string{"idx_appointments_active_slot", "appointments.doctor_id"}

type AppointmentUsecase interface {
	CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	GetAppointment(ctx context.Context, id int) (*dto.AppointmentResponse, error)
	GetAppointmentsByPatient(ctx context.Context, patientID int) (*dto.AppointmentListResponse, error)
	GetAppointmentsByEmail(ctx context.Context, email string) (*dto.AppointmentListResponse, error)
	GetAllAppointments(ctx context.Context, query *dto.AppointmentListQuery) (*dto.AppointmentListResponse, error)
	ApproveAppointment(ctx context.Context, id int) (*dto.AppointmentResponse, error)
	RejectAppointment(ctx context.Context, id int) (*dto.AppointmentResponse, error)
	CancelAppointment(ctx context.Context, id int) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	appointmentRepo   repository.AppointmentRepository
	patientRepo       repository.PatientRepository
	doctorRepo        repository.DoctorRepository
	serviceRepo       repository.ServiceRepository
	auditService      service.AuditService
	slotLocker        service.SlotLocker
	metrics           *metrics.Metrics
	strictTransitions bool
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	patientRepo repository.PatientRepository,
	doctorRepo repository.DoctorRepository,
	serviceRepo repository.ServiceRepository,
	auditService service.AuditService,
	slotLocker service.SlotLocker,
	m *metrics.Metrics,
	strictTransitions bool,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:                db,
		log:               log,
		appointmentRepo:   appointmentRepo,
		patientRepo:       patientRepo,
		doctorRepo:        doctorRepo,
		serviceRepo:       serviceRepo,
		auditService:      auditService,
		slotLocker:        slotLocker,
		metrics:           m,
		strictTransitions: strictTransitions,
	}
}

// CreateAppointment books a slot.
//
// Flow, under the slot lock and inside one transaction:
// 1. Resolve the patient by email, creating it if absent
// 2. Validate doctor and service exist
// 3. Reject if an active appointment holds the slot
// 4. Insert the appointment as scheduled
//
// Any failure rolls back a patient created in step 1. The partial unique index
// on the active slot rejects a double booking that slips past the lock.
func (u *appointmentUsecase) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	date, err := entity.ParseDate(req.AppointmentDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	clock, err := entity.ParseClockTime(req.AppointmentTime)
	if err != nil || !clock.Valid() {
		return nil, ErrInvalidTimeFormat
	}
	slot := entity.SlotKey{Date: date, Time: clock}

	var appointment *entity.Appointment
	err = u.slotLocker.WithSlotLock(ctx, req.DoctorID, slot, func(ctx context.Context) error {
		var txErr error
		appointment, txErr = u.bookSlot(ctx, req, slot)
		return txErr
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSlotLocked):
			u.metrics.IncBookingConflict(metrics.ReasonSlotLocked)
			return nil, ErrSlotBeingBooked
		case errors.Is(err, ErrSlotTaken):
			u.metrics.IncBookingConflict(metrics.ReasonSlotTaken)
		}
		return nil, err
	}

	u.metrics.IncBookingCreated()
	u.log.Infof("Appointment created: id=%d, doctor=%d, slot=%s %s, patient=%d",
		appointment.ID, appointment.DoctorID, slot.Date, slot.Time, appointment.PatientID)

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) bookSlot(ctx context.Context, req *dto.CreateAppointmentRequest, slot entity.SlotKey) (*entity.Appointment, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	// Step 1: Resolve or create patient
	patient, err := u.resolvePatient(tx, req)
	if err != nil {
		return nil, err
	}

	// Step 2: Validate doctor and service
	doctor, err := u.doctorRepo.FindByID(tx, req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %d: %+v", req.DoctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	svc, err := u.serviceRepo.FindByID(tx, req.ServiceID)
	if err != nil {
		u.log.Warnf("Failed to find service %d: %+v", req.ServiceID, err)
		return nil, err
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}

	// Step 3: Check slot
	existing, err := u.appointmentRepo.FindActiveBySlot(tx, req.DoctorID, slot)
	if err != nil {
		u.log.Warnf("Failed to check slot for doctor %d: %+v", req.DoctorID, err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlotTaken
	}

	// Step 4: Insert
	appointment := &entity.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		ServiceID:       svc.ID,
		AppointmentDate: slot.Date,
		AppointmentTime: slot.Time,
		Status:          entity.AppointmentStatusScheduled,
		Notes:           req.Notes,
	}

	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		if isDuplicateKeyError(err, slotIndexNames...) {
			return nil, ErrSlotTaken
		}
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, err
	}

	appointment.Patient = *patient
	appointment.Doctor = *doctor
	appointment.Service = *svc

	// Audit log - patient booking, no admin
	if err := u.auditService.LogCreate(ctx, tx, middleware.AdminIDPtr(ctx), entity.AuditActionAppointmentCreate, "appointment", appointment.ID, converter.AppointmentToResponse(appointment)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		if isDuplicateKeyError(err, slotIndexNames...) {
			return nil, ErrSlotTaken
		}
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return appointment, nil
}

// resolvePatient finds the patient by exact email or creates one from the
// request. A patient created concurrently under the same email is reused.
func (u *appointmentUsecase) resolvePatient(tx *gorm.DB, req *dto.CreateAppointmentRequest) (*entity.Patient, error) {
	patient, err := u.patientRepo.FindByEmail(tx, req.Email)
	if err != nil {
		u.log.Warnf("Failed to find patient by email: %+v", err)
		return nil, err
	}
	if patient != nil {
		return patient, nil
	}

	patient = &entity.Patient{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	created, err := u.patientRepo.CreateIfAbsent(tx, patient)
	if err != nil {
		u.log.Warnf("Failed to create patient: %+v", err)
		return nil, err
	}
	if created {
		return patient, nil
	}

	patient, err = u.patientRepo.FindByEmail(tx, req.Email)
	if err != nil {
		u.log.Warnf("Failed to find patient by email: %+v", err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}
	return patient, nil
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, id int) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %d: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) GetAppointmentsByPatient(ctx context.Context, patientID int) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindByPatientID(u.db.WithContext(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to find appointments for patient %d: %+v", patientID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// GetAppointmentsByEmail returns an empty list for an unknown email
func (u *appointmentUsecase) GetAppointmentsByEmail(ctx context.Context, email string) (*dto.AppointmentListResponse, error) {
	patient, err := u.patientRepo.FindByEmail(u.db.WithContext(ctx), email)
	if err != nil {
		u.log.Warnf("Failed to find patient by email: %+v", err)
		return nil, err
	}
	if patient == nil {
		return &dto.AppointmentListResponse{
			Appointments: []dto.AppointmentResponse{},
			Total:        0,
		}, nil
	}

	return u.GetAppointmentsByPatient(ctx, patient.ID)
}

func (u *appointmentUsecase) GetAllAppointments(ctx context.Context, query *dto.AppointmentListQuery) (*dto.AppointmentListResponse, error) {
	filter := &repository.AppointmentFilter{}
	if query != nil {
		filter.DoctorID = query.DoctorID
		filter.PatientID = query.PatientID
		filter.Status = entity.AppointmentStatus(query.Status)
		if query.Date != "" {
			date, err := entity.ParseDate(query.Date)
			if err != nil {
				return nil, ErrInvalidDateFormat
			}
			filter.Date = &date
		}
	}

	appointments, err := u.appointmentRepo.FindAll(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to find all appointments: %+v", err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

func (u *appointmentUsecase) ApproveAppointment(ctx context.Context, id int) (*dto.AppointmentResponse, error) {
	return u.changeStatus(ctx, id, entity.AppointmentStatusApproved, entity.AuditActionAppointmentApprove)
}

func (u *appointmentUsecase) RejectAppointment(ctx context.Context, id int) (*dto.AppointmentResponse, error) {
	return u.changeStatus(ctx, id, entity.AppointmentStatusRejected, entity.AuditActionAppointmentReject)
}

func (u *appointmentUsecase) CancelAppointment(ctx context.Context, id int) (*dto.AppointmentResponse, error) {
	return u.changeStatus(ctx, id, entity.AppointmentStatusCancelled, entity.AuditActionAppointmentCancel)
}

// changeStatus overwrites the status. With strict transitions the transition
// table is enforced. Setting the current status again is a no-op.
func (u *appointmentUsecase) changeStatus(ctx context.Context, id int, target entity.AppointmentStatus, action string) (*dto.AppointmentResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.appointmentRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %d: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	if appointment.Status == target {
		return converter.AppointmentToResponse(appointment), nil
	}

	if u.strictTransitions && !appointment.Status.CanTransitionTo(target) {
		return nil, ErrInvalidStatusTransition
	}

	// Re-activating a cancelled appointment needs its slot back
	if !appointment.IsActive() && target.IsActive() {
		holder, err := u.appointmentRepo.FindActiveBySlot(tx, appointment.DoctorID, appointment.Slot())
		if err != nil {
			u.log.Warnf("Failed to check slot for appointment %d: %+v", id, err)
			return nil, err
		}
		if holder != nil && holder.ID != appointment.ID {
			u.metrics.IncBookingConflict(metrics.ReasonSlotTaken)
			return nil, ErrSlotTaken
		}
	}

	affected, err := u.appointmentRepo.UpdateStatus(tx, id, target)
	if err != nil {
		if isDuplicateKeyError(err, slotIndexNames...) {
			u.metrics.IncBookingConflict(metrics.ReasonSlotTaken)
			return nil, ErrSlotTaken
		}
		u.log.Warnf("Failed to update appointment %d status: %+v", id, err)
		return nil, err
	}
	if affected == 0 {
		return nil, ErrAppointmentNotFound
	}

	oldStatus := appointment.Status
	appointment.Status = target

	// Audit log - status change
	if err := u.auditService.LogUpdate(ctx, tx, middleware.AdminIDPtr(ctx), action, "appointment", id,
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": target},
	); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.metrics.IncStatusChange(string(target))
	u.log.Infof("Appointment %d status changed: %s -> %s", id, oldStatus, target)

	return converter.AppointmentToResponse(appointment), nil
}
