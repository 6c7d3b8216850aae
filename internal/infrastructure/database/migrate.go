package database

import (
	"errors"
	"fmt"

	"clinic-booking/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// newMigrator binds golang-migrate to the pool behind db. The migrator is not
// closed by callers since closing it would close the shared pool.
func newMigrator(db *gorm.DB) (*migrate.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// MigrateUp applies all pending migrations.
func MigrateUp(db *gorm.DB, log *logrus.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logVersion(m, log, "Database schema is up to date")
	return nil
}

// MigrateDown rolls back the given number of migrations, all of them when steps is 0.
func MigrateDown(db *gorm.DB, steps int, log *logrus.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	if steps > 0 {
		err = m.Steps(-steps)
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	logVersion(m, log, "Database migrations rolled back")
	return nil
}

type versioner interface {
	Version() (version uint, dirty bool, err error)
}

// logVersion reports the schema version after a migration run. A missing
// version after a full rollback is not an error.
func logVersion(v versioner, log *logrus.Logger, msg string) {
	version, dirty, err := v.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.WithField("version", "none").Info(msg)
	case err != nil:
		log.Warnf("Failed to read schema version: %+v", err)
		log.Info(msg)
	default:
		log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info(msg)
	}
}
