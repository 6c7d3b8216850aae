package repository

import (
	"errors"

	"clinic-booking/internal/domain/entity"
	domainRepo "clinic-booking/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Omit(clause.Associations).Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id int) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Preload("Patient").Preload("Doctor").Preload("Service").
		Where("id = ?", id).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindActiveBySlot(db *gorm.DB, doctorID int, slot entity.SlotKey) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Where("doctor_id = ? AND appointment_date = ? AND appointment_time = ? AND status <> ?",
		doctorID, slot.Date, slot.Time, entity.AppointmentStatusCancelled).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindActiveByDoctorAndDateRange(db *gorm.DB, doctorID int, start, end entity.Date) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("doctor_id = ? AND appointment_date >= ? AND appointment_date <= ? AND status <> ?",
		doctorID, start, end, entity.AppointmentStatusCancelled).
		Order("appointment_date ASC, appointment_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByPatientID(db *gorm.DB, patientID int) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Preload("Patient").Preload("Doctor").Preload("Service").
		Where("patient_id = ?", patientID).
		Order("appointment_date DESC, appointment_time DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindAll(db *gorm.DB, filter *domainRepo.AppointmentFilter) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := db.Preload("Patient").Preload("Doctor").Preload("Service")

	if filter != nil {
		if filter.DoctorID != 0 {
			query = query.Where("doctor_id = ?", filter.DoctorID)
		}
		if filter.PatientID != 0 {
			query = query.Where("patient_id = ?", filter.PatientID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Date != nil {
			query = query.Where("appointment_date = ?", *filter.Date)
		}
	}

	err := query.Order("appointment_date DESC, appointment_time DESC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateStatus(db *gorm.DB, id int, status entity.AppointmentStatus) (int64, error) {
	result := db.Model(&entity.Appointment{}).Where("id = ?", id).Update("status", status)
	return result.RowsAffected, result.Error
}
