package usecase

import (
	"context"
	"errors"

	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/domain/repository"
	"clinic-booking/internal/service"
	"clinic-booking/pkg/metrics"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxRangeDays bounds one availability query
const MaxRangeDays = 366

var ErrDateRangeTooLarge = errors.New("date range is too large")

type AvailabilityUsecase interface {
	GetAvailableSlots(ctx context.Context, doctorID int, startDate, endDate string) (*dto.SlotListResponse, error)
}

type availabilityUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	appointmentRepo  repository.AppointmentRepository
	generator        *service.SlotGenerator
	metrics          *metrics.Metrics
	defaultRangeDays int
}

func NewAvailabilityUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	generator *service.SlotGenerator,
	m *metrics.Metrics,
	defaultRangeDays int,
) AvailabilityUsecase {
	if defaultRangeDays < 0 {
		defaultRangeDays = 0
	}
	return &availabilityUsecase{
		db:               db,
		log:              log,
		appointmentRepo:  appointmentRepo,
		generator:        generator,
		metrics:          m,
		defaultRangeDays: defaultRangeDays,
	}
}

// GetAvailableSlots lists the slots of [startDate, endDate] for a doctor. An
// empty endDate means startDate plus the default range. The doctor is not
// validated; an unknown doctor simply has no bookings.
func (u *availabilityUsecase) GetAvailableSlots(ctx context.Context, doctorID int, startDate, endDate string) (*dto.SlotListResponse, error) {
	start, err := entity.ParseDate(startDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	end := start.AddDays(u.defaultRangeDays)
	if endDate != "" {
		end, err = entity.ParseDate(endDate)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
	}

	if end.After(start.AddDays(MaxRangeDays)) {
		return nil, ErrDateRangeTooLarge
	}

	u.metrics.IncAvailabilityRequest()

	booked := entity.NewSlotSet()
	if !end.Before(start) {
		appointments, err := u.appointmentRepo.FindActiveByDoctorAndDateRange(u.db.WithContext(ctx), doctorID, start, end)
		if err != nil {
			u.log.Warnf("Failed to find appointments for doctor %d: %+v", doctorID, err)
			return nil, err
		}
		for i := range appointments {
			booked.Add(appointments[i].Slot())
		}
	}

	slots := u.generator.GenerateSlots(start, end, booked)

	available := 0
	for _, slot := range slots {
		if slot.Available {
			available++
		}
	}

	return &dto.SlotListResponse{
		DoctorID:       doctorID,
		StartDate:      start,
		EndDate:        end,
		Slots:          slots,
		Total:          len(slots),
		AvailableCount: available,
	}, nil
}
