// Package testutil provides in-memory stores for package tests.
package testutil

import (
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"clinic-booking/internal/domain/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter atomic.Int64

// NewTestDB opens a private in-memory SQLite database with the full schema.
// A single connection keeps every query on the same in-memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entity.Admin{},
		&entity.Patient{},
		&entity.Doctor{},
		&entity.Service{},
		&entity.Appointment{},
		&entity.AuditLog{},
	))

	return db
}

// NewTestRedis starts a miniredis server bound to the test lifetime.
func NewTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

// NewLogger returns a logger that discards output.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func CreateDoctor(t *testing.T, db *gorm.DB, email string) *entity.Doctor {
	t.Helper()

	doctor := &entity.Doctor{FirstName: "Ana", LastName: "Silva", Specialization: "Orthodontics", Email: email}
	require.NoError(t, db.Create(doctor).Error)
	return doctor
}

func CreateService(t *testing.T, db *gorm.DB, name string) *entity.Service {
	t.Helper()

	svc := &entity.Service{Name: name, DurationMinutes: 30}
	require.NoError(t, db.Create(svc).Error)
	return svc
}

func CreatePatient(t *testing.T, db *gorm.DB, email string) *entity.Patient {
	t.Helper()

	patient := &entity.Patient{FirstName: "John", LastName: "Doe", Email: email}
	require.NoError(t, db.Create(patient).Error)
	return patient
}
