package repository

import (
	"clinic-booking/internal/domain/entity"

	"gorm.io/gorm"
)

type AppointmentFilter struct {
	DoctorID  int
	PatientID int
	Status    entity.AppointmentStatus
	Date      *entity.Date
}

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id int) (*entity.Appointment, error)
	// FindActiveBySlot returns the non-cancelled appointment holding the slot, or nil.
	FindActiveBySlot(db *gorm.DB, doctorID int, slot entity.SlotKey) (*entity.Appointment, error)
	// FindActiveByDoctorAndDateRange loads active appointments with dates in [start, end].
	FindActiveByDoctorAndDateRange(db *gorm.DB, doctorID int, start, end entity.Date) ([]entity.Appointment, error)
	FindByPatientID(db *gorm.DB, patientID int) ([]entity.Appointment, error)
	FindAll(db *gorm.DB, filter *AppointmentFilter) ([]entity.Appointment, error)
	UpdateStatus(db *gorm.DB, id int, status entity.AppointmentStatus) (int64, error)
}
