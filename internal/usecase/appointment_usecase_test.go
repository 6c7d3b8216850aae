package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/delivery/http/middleware"
	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/service"
	"clinic-booking/internal/testutil"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookingRequest(doctorID, serviceID int, email, date, clock string) *dto.CreateAppointmentRequest {
	return &dto.CreateAppointmentRequest{
		FirstName:       "John",
		LastName:        "Doe",
		Email:           email,
		Phone:           "555-0100",
		DoctorID:        doctorID,
		ServiceID:       serviceID,
		AppointmentDate: date,
		AppointmentTime: clock,
	}
}

func countRows(t *testing.T, env *testEnv, model interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, env.db.Model(model).Count(&count).Error)
	return count
}

func TestCreateAppointment(t *testing.T) {
	env := newTestEnv(t)
	uc := env.appointmentUsecase(false)
	doctor := testutil.CreateDoctor(t, env.db, "ana@clinic.example")
	svc := testutil.CreateService(t, env.db, "Cleaning")

	resp, err := uc.CreateAppointment(context.Background(), bookingRequest(doctor.ID, svc.ID, "john@example.com", "2025-06-02", "10:00"))
	require.NoError(t, err)

	assert.NotZero(t, resp.ID)
	assert.Equal(t, string(entity.AppointmentStatusScheduled), resp.Status)
	assert.Equal(t, entity.NewDate(2025, time.June, 2), resp.AppointmentDate)
	assert.Equal(t, entity.NewClockTime(10, 0), resp.AppointmentTime)
	assert.Equal(t, "Ana Silva", resp.DoctorName)
	assert.Equal(t, "Cleaning", resp.ServiceName)

	assert.EqualValues(t, 1, countRows(t, env, &entity.Patient{}))
	assert.False(t, env.mr.Exists(service.SlotLockKey(doctor.ID, entity.SlotKey{Date: resp.AppointmentDate, Time: resp.AppointmentTime})))

	var logs []entity.AuditLog
	require.NoError(t, env.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, entity.AuditActionAppointmentCreate, logs[0].Action)
	assert.Nil(t, logs[0].AdminID)

	assert.Equal(t, float64(1), promtestutil.ToFloat64(env.metrics.BookingsCreated))
}

func TestCreateAppointmentReusesPatientByEmail(t *testing.T) {
	env := newTestEnv(t)
	uc := env.appointmentUsecase(false)
	doctor := testutil.CreateDoctor(t, env.db, "ana@clinic.example")
	svc := testutil.CreateService(t, env.db, "Cleaning")
	ctx := context.Background()

	first, err := uc.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "john@example.com", "2025-06-02", "10:00"))
	require.NoError(t, err)
	second, err := uc.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "john@example.com", "2025-06-02", "10:30"))
	require.NoError(t, err)

	assert.Equal(t, first.PatientID, second.PatientID)
	assert.EqualValues(t, 1, countRows(t, env, &entity.Patient{}))
}

func TestCreateAppointmentSlotTaken(t *testing.T) {
	env := newTestEnv(t)
	uc := env.appointmentUsecase(false)
	doctor := testutil.CreateDoctor(t, env.db, "ana@clinic.example")
	svc := testutil.CreateService(t, env.db, "Cleaning")
	ctx := context.Background()

	_, err := uc.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "john@example.com", "2025-06-02", "10:00"))
	require.NoError(t, err)

	_, err = uc.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "mary@example.com", "2025-06-02", "10:00"))
	assert.ErrorIs(t, err, ErrSlotTaken)

	// the second patient is rolled back with the failed booking
	assert.EqualValues(t, 1, countRows(t, env, &entity.Patient{}))
	assert.EqualValues(t, 1, countRows(t, env, &entity.Appointment{}))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(env.metrics.BookingConflicts.WithLabelValues("slot_taken")))

	// the same time with another doctor is free
	other := testutil.CreateDoctor(t, env.db, "bob@clinic.example")
	_, err = uc.CreateAppointment(ctx, bookingRequest(other.ID, svc.ID, "mary@example.com", "2025-06-02", "10:00"))
	assert.NoError(t, err)
}

func TestCreateAppointmentAfterCancel(t *testing.T) {
	env := newTestEnv(t)
	uc := env.appointmentUsecase(false)
	doctor := testutil.CreateDoctor(t, env.db, "ana@clinic.example")
	svc := testutil.CreateService(t, env.db, "Cleaning")
	ctx := context.Background()

	first, err := uc.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "john@example.com", "2025-06-02", "10:00"))
	require.NoError(t, err)

	cancelled, err := uc.CancelAppointment(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.AppointmentStatusCancelled), cancelled.Status)

	second, err := uc.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "mary@example.com", "2025-06-02", "10:00"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateAppointmentUnknownReferences(t *testing.T) {
	env := newTestEnv(t)
	uc := env.appointmentUsecase(false)
	doctor := testutil.CreateDoctor(t, env.db, "ana@clinic.example")
	svc := testutil.CreateService(t, env.db, "Cleaning")
	ctx := context.Background()

	_, err := uc.CreateAppointment(ctx, bookingRequest(doctor.ID+100, svc.ID, "john@example.com", "2025-06-02", "10:00"))
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	_, err = uc.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID+100, "john@example.com", "2025-06-02", "10:00"))
	assert.ErrorIs(t, err, ErrServiceNotFound)

	assert.Zero(t, countRows(t, env, &entity.Appointment{}))
	assert.Zero(t, countRows(t, env, &entity.Patient{}))
}

func TestCreateAppointmentInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	uc := env.appointmentUsecase(false)
	ctx := context.Background()

	_, err := uc.CreateAppointment(ctx, bookingRequest(1, 1, "john@example.com", "02/06/2025", "10:00"))
	assert.ErrorIs(t, err, ErrInvalidDateFormat)

	_, err = uc.CreateAppointment(ctx, bookingRequest(1, 1, "john@example.com", "2025-06-02", "25:00"))
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)

	_, err = uc.CreateAppointment(ctx, bookingRequest(1, 1, "john@example.com", "2025-06-02", "10:00:45"))
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
	assert.Zero(t, countRows(t, env, &entity.Appointment{}))
}

func TestCreateAppointmentSlotBeingBooked(t *testing.T) {
	env := newTestEnv(t)
	uc := env.appointmentUsecase(false)
	doctor := testutil.CreateDoctor(t, env.db, "ana@clinic.example")
	svc := testutil.CreateService(t, env.db, "Cleaning")

	slot := entity.SlotKey{Date: entity.NewDate(2025, time.June, 2), Time: entity.NewClockTime(10, 0)}
	require.NoError(t, env.mr.Set(service.SlotLockKey(doctor.ID, slot), "other-request"))

	_, err := uc.CreateAppointment(context.Background(), bookingRequest(doctor.ID, svc.ID, "john@example.com", "2025-06-02", "10:00"))
	assert.ErrorIs(t, err, ErrSlotBeingBooked)
	assert.Zero(t, countRows(t, env, &entity.Patient{}))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(env.metrics.BookingConflicts.WithLabelValues("slot_being_booked")))
}

func TestCreateAppointmentConcurrent(t *testing.T) {
	env := newTestEnv(t)
	uc := env.appointmentUsecase(false)
	doctor := testutil.CreateDoctor(t, env.db, "ana@clinic.example")
	svc := testutil.CreateService(t, env.db, "Cleaning")

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := bookingRequest(doctor.ID, svc.ID, "same@example.com", "2025-06-02", "10:00")
			_, errs[i] = uc.CreateAppointment(context.Background(), req)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, err == ErrSlotTaken || err == ErrSlotBeingBooked, "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.EqualValues(t, 1, countRows(t, env, &entity.Appointment{}))
	assert.EqualValues(t, 1, countRows(t, env, &entity.Patient{}))
}

func TestStatusChangesCompatMode(t *testing.T) {
	env := newTestEnv(t)
	uc := env.appointmentUsecase(false)
	doctor := testutil.CreateDoctor(t, env.db, "ana@clinic.example")
	svc := testutil.CreateService(t, env.db, "Cleaning")
	ctx := context.Background()

	created, err := uc.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "john@example.com", "2025-06-02", "10:00"))
	require.NoError(t, err)

	approved, err := uc.ApproveAppointment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)

	// same status again is a no-op
	again, err := uc.ApproveAppointment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", again.Status)

	_, err = uc.CancelAppointment(ctx, created.ID)
	require.NoError(t, err)

	// compat mode lets an admin bring a cancelled appointment back
	restored, err := uc.ApproveAppointment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", restored.Status)

	_, err = uc.RejectAppointment(ctx, created.ID+100)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	assert.Equal(t, float64(2), promtestutil.ToFloat64(env.metrics.StatusChanges.WithLabelValues("approved")))
}

func TestStatusChangesStrictMode(t *testing.T) {
	env := newTestEnv(t)
	uc := env.appointmentUsecase(true)
	doctor := testutil.CreateDoctor(t, env.db, "ana@clinic.example")
	svc := testutil.CreateService(t, env.db, "Cleaning")
	ctx := context.Background()

	created, err := uc.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "john@example.com", "2025-06-02", "10:00"))
	require.NoError(t, err)

	_, err = uc.RejectAppointment(ctx, created.ID)
	require.NoError(t, err)
	_, err = uc.ApproveAppointment(ctx, created.ID)
	require.NoError(t, err)
	_, err = uc.CancelAppointment(ctx, created.ID)
	require.NoError(t, err)

	_, err = uc.ApproveAppointment(ctx, created.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	found, err := uc.GetAppointment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", found.Status)
}

func TestReactivationConflict(t *testing.T) {
	env := newTestEnv(t)
	uc := env.appointmentUsecase(false)
	doctor := testutil.CreateDoctor(t, env.db, "ana@clinic.example")
	svc := testutil.CreateService(t, env.db, "Cleaning")
	ctx := context.Background()

	first, err := uc.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "john@example.com", "2025-06-02", "10:00"))
	require.NoError(t, err)
	_, err = uc.CancelAppointment(ctx, first.ID)
	require.NoError(t, err)

	_, err = uc.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "mary@example.com", "2025-06-02", "10:00"))
	require.NoError(t, err)

	_, err = uc.ApproveAppointment(ctx, first.ID)
	assert.ErrorIs(t, err, ErrSlotTaken)

	found, err := uc.GetAppointment(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", found.Status)
}

func TestStatusChangeRecordsAdmin(t *testing.T) {
	env := newTestEnv(t)
	uc := env.appointmentUsecase(false)
	doctor := testutil.CreateDoctor(t, env.db, "ana@clinic.example")
	svc := testutil.CreateService(t, env.db, "Cleaning")
	admin := &entity.Admin{Username: "admin", Password: "x"}
	require.NoError(t, env.db.Create(admin).Error)

	created, err := uc.CreateAppointment(context.Background(), bookingRequest(doctor.ID, svc.ID, "john@example.com", "2025-06-02", "10:00"))
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), middleware.AdminIDKey, admin.ID)
	_, err = uc.RejectAppointment(ctx, created.ID)
	require.NoError(t, err)

	var entry entity.AuditLog
	require.NoError(t, env.db.Where("action = ?", entity.AuditActionAppointmentReject).First(&entry).Error)
	require.NotNil(t, entry.AdminID)
	assert.Equal(t, admin.ID, *entry.AdminID)
	assert.Equal(t, map[string]interface{}{"status": "rejected"}, entry.Metadata["new_value"])
}

func TestAppointmentLookups(t *testing.T) {
	env := newTestEnv(t)
	uc := env.appointmentUsecase(false)
	doctor := testutil.CreateDoctor(t, env.db, "ana@clinic.example")
	svc := testutil.CreateService(t, env.db, "Cleaning")
	ctx := context.Background()

	first, err := uc.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "john@example.com", "2025-06-02", "10:00"))
	require.NoError(t, err)
	_, err = uc.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "john@example.com", "2025-06-03", "11:00"))
	require.NoError(t, err)
	_, err = uc.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "mary@example.com", "2025-06-03", "11:30"))
	require.NoError(t, err)

	byEmail, err := uc.GetAppointmentsByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, byEmail.Total)
	assert.Equal(t, "John Doe", byEmail.Appointments[0].PatientName)

	unknown, err := uc.GetAppointmentsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Zero(t, unknown.Total)
	assert.NotNil(t, unknown.Appointments)

	byPatient, err := uc.GetAppointmentsByPatient(ctx, first.PatientID)
	require.NoError(t, err)
	assert.Equal(t, 2, byPatient.Total)

	all, err := uc.GetAllAppointments(ctx, &dto.AppointmentListQuery{Date: "2025-06-03"})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)

	_, err = uc.GetAllAppointments(ctx, &dto.AppointmentListQuery{Date: "June 3"})
	assert.ErrorIs(t, err, ErrInvalidDateFormat)

	_, err = uc.GetAppointment(ctx, 9999)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}
