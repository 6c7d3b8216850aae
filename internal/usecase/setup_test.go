package usecase

import (
	"testing"
	"time"

	"clinic-booking/internal/repository"
	"clinic-booking/internal/service"
	"clinic-booking/internal/testutil"
	"clinic-booking/pkg/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	log         *logrus.Logger
	mr          *miniredis.Miniredis
	redisClient *redis.Client
	metrics     *metrics.Metrics
	audit       service.AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr, client := testutil.NewTestRedis(t)
	log := testutil.NewLogger()
	return &testEnv{
		db:          testutil.NewTestDB(t),
		log:         log,
		mr:          mr,
		redisClient: client,
		metrics:     metrics.NewMetrics("test"),
		audit:       service.NewAuditService(log, repository.NewAuditLogRepository()),
	}
}

func (e *testEnv) appointmentUsecase(strict bool) AppointmentUsecase {
	return NewAppointmentUsecase(
		e.db, e.log,
		repository.NewAppointmentRepository(),
		repository.NewPatientRepository(),
		repository.NewDoctorRepository(),
		repository.NewServiceRepository(),
		e.audit,
		service.NewRedisSlotLocker(e.redisClient, e.log, 5*time.Second),
		e.metrics,
		strict,
	)
}

func (e *testEnv) availabilityUsecase(t *testing.T) AvailabilityUsecase {
	t.Helper()
	generator, err := service.NewSlotGenerator(service.DefaultWorkingHours())
	require.NoError(t, err)
	return NewAvailabilityUsecase(e.db, e.log, repository.NewAppointmentRepository(), generator, e.metrics, 7)
}
