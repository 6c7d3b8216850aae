package database

import (
	"context"
	"fmt"
	"time"

	"clinic-booking/config"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const pingTimeout = 5 * time.Second

// NewPostgresConnection opens the pool and pings it. SQL statements are only
// logged in development.
func NewPostgresConnection(ctx context.Context, cfg config.DBConfig, env string, log *logrus.Logger) (*gorm.DB, error) {
	logLevel := logger.Warn
	if env == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	configurePool(sqlDB, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(logrus.Fields{
		"host":           cfg.Host,
		"database":       cfg.Name,
		"max_open_conns": cfg.MaxOpenConns,
	}).Info("Connected to PostgreSQL")

	return db, nil
}

type poolConfigurer interface {
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
}

// configurePool leaves the database/sql defaults for zero values.
func configurePool(pool poolConfigurer, cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}
