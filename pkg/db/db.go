// Package db opens the gorm connection used by the postgres event store.
package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options describes a postgres connection and its pool.
type Options struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Debug logs every statement.
	Debug bool
}

// DSN builds the postgres connection URL.
func DSN(o Options) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		o.User,
		o.Password,
		o.Host,
		o.Port,
		o.Name,
		o.SSLMode,
	)
}

// Open connects to postgres and applies pool settings.
func Open(o Options, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if o.Debug {
		level = logger.Info
	}

	gdb, err := gorm.Open(postgres.Open(DSN(o)), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(o.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(o.ConnMaxIdleTime)

	log.Info("database_connected",
		zap.String("host", o.Host),
		zap.String("name", o.Name),
	)
	return gdb, nil
}

// Close releases the underlying connection pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
