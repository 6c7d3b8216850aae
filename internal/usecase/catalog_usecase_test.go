package usecase

import (
	"context"
	"testing"

	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/repository"
	"clinic-booking/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestDoctorUsecaseLifecycle(t *testing.T) {
	env := newTestEnv(t)
	uc := NewDoctorUsecase(env.db, env.log, repository.NewDoctorRepository(), env.audit)
	ctx := context.Background()

	created, err := uc.CreateDoctor(ctx, &dto.CreateDoctorRequest{
		FirstName: "Ana", LastName: "Silva", Specialization: "Orthodontics", Email: "ana@clinic.example",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Silva", created.FullName)

	_, err = uc.CreateDoctor(ctx, &dto.CreateDoctorRequest{FirstName: "X", LastName: "Y", Email: "ana@clinic.example"})
	assert.ErrorIs(t, err, ErrDoctorEmailExists)

	other, err := uc.CreateDoctor(ctx, &dto.CreateDoctorRequest{FirstName: "Bob", LastName: "Lee", Email: "bob@clinic.example"})
	require.NoError(t, err)

	updated, err := uc.UpdateDoctor(ctx, created.ID, &dto.UpdateDoctorRequest{Phone: strPtr("555-0199")})
	require.NoError(t, err)
	assert.Equal(t, "555-0199", updated.Phone)
	assert.Equal(t, "Orthodontics", updated.Specialization)

	_, err = uc.UpdateDoctor(ctx, other.ID, &dto.UpdateDoctorRequest{Email: strPtr("ana@clinic.example")})
	assert.ErrorIs(t, err, ErrDoctorEmailExists)

	list, err := uc.GetAllDoctors(ctx, "ortho")
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	require.NoError(t, uc.DeleteDoctor(ctx, created.ID))
	assert.ErrorIs(t, uc.DeleteDoctor(ctx, created.ID), ErrDoctorNotFound)

	_, err = uc.GetDoctor(ctx, created.ID)
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	var actions []string
	require.NoError(t, env.db.Model(&entity.AuditLog{}).Order("id ASC").Pluck("action", &actions).Error)
	assert.Equal(t, []string{
		entity.AuditActionDoctorCreate,
		entity.AuditActionDoctorCreate,
		entity.AuditActionDoctorUpdate,
		entity.AuditActionDoctorDelete,
	}, actions)
}

func TestDeleteDoctorCascadesAppointments(t *testing.T) {
	env := newTestEnv(t)
	doctors := NewDoctorUsecase(env.db, env.log, repository.NewDoctorRepository(), env.audit)
	booking := env.appointmentUsecase(false)
	doctor := testutil.CreateDoctor(t, env.db, "ana@clinic.example")
	svc := testutil.CreateService(t, env.db, "Cleaning")
	ctx := context.Background()

	_, err := booking.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "john@example.com", "2025-06-02", "10:00"))
	require.NoError(t, err)

	require.NoError(t, doctors.DeleteDoctor(ctx, doctor.ID))
	assert.Zero(t, countRows(t, env, &entity.Appointment{}))
	assert.EqualValues(t, 1, countRows(t, env, &entity.Patient{}))
}

func TestServiceUsecaseLifecycle(t *testing.T) {
	env := newTestEnv(t)
	uc := NewServiceUsecase(env.db, env.log, repository.NewServiceRepository(), env.audit)
	ctx := context.Background()

	_, err := uc.CreateService(ctx, &dto.CreateServiceRequest{Name: "Cleaning", DurationMinutes: 30, Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	created, err := uc.CreateService(ctx, &dto.CreateServiceRequest{Name: "Cleaning", DurationMinutes: 30, Price: decimal.RequireFromString("80.50")})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("80.5").Equal(created.Price))

	minutes := 45
	updated, err := uc.UpdateService(ctx, created.ID, &dto.UpdateServiceRequest{DurationMinutes: &minutes})
	require.NoError(t, err)
	assert.Equal(t, 45, updated.DurationMinutes)
	assert.Equal(t, "Cleaning", updated.Name)

	_, err = uc.UpdateService(ctx, created.ID+10, &dto.UpdateServiceRequest{Name: strPtr("Other")})
	assert.ErrorIs(t, err, ErrServiceNotFound)

	list, err := uc.GetAllServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	require.NoError(t, uc.DeleteService(ctx, created.ID))
	_, err = uc.GetService(ctx, created.ID)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestPatientAndAuditLogUsecases(t *testing.T) {
	env := newTestEnv(t)
	patients := NewPatientUsecase(env.db, env.log, repository.NewPatientRepository())
	auditLogs := NewAuditLogUsecase(env.db, env.log, repository.NewAuditLogRepository())
	booking := env.appointmentUsecase(false)
	doctor := testutil.CreateDoctor(t, env.db, "ana@clinic.example")
	svc := testutil.CreateService(t, env.db, "Cleaning")
	ctx := context.Background()

	created, err := booking.CreateAppointment(ctx, bookingRequest(doctor.ID, svc.ID, "john@example.com", "2025-06-02", "10:00"))
	require.NoError(t, err)

	list, err := patients.GetAllPatients(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)

	patient, err := patients.GetPatient(ctx, created.PatientID)
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", patient.Email)

	_, err = patients.GetPatient(ctx, 999)
	assert.ErrorIs(t, err, ErrPatientNotFound)

	logs, err := auditLogs.GetAllAuditLogs(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, logs.Total)
	assert.Equal(t, entity.AuditActionAppointmentCreate, logs.Logs[0].Action)
	assert.Nil(t, logs.Logs[0].Admin)
	assert.Equal(t, "appointment", logs.Logs[0].Entity)
	assert.Equal(t, created.ID, logs.Logs[0].EntityID)

	filtered, err := auditLogs.GetAllAuditLogs(ctx, &dto.AuditLogListQuery{Action: " Doctor "})
	require.NoError(t, err)
	assert.Zero(t, filtered.Total)

	entry, err := auditLogs.GetAuditLog(ctx, logs.Logs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "appointment", entry.Metadata["entity"])

	_, err = auditLogs.GetAuditLog(ctx, 12345)
	assert.ErrorIs(t, err, ErrAuditLogNotFound)
}
