package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aldoetobex/lawcase-backend/pkg/models"
)

type Options struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Open connects to Postgres. Duplicate-key and not-found errors are translated
// to gorm.ErrDuplicatedKey / gorm.ErrRecordNotFound.
func Open(opts Options) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(opts.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// indexes that GORM tags cannot express.
var extraDDL = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_clients_firm_name_phone ON clients (firm_id, name, (COALESCE(phone, '')))`,
	`CREATE INDEX IF NOT EXISTS ix_case_stages_order ON case_stages (case_id, sort_order, created_at)`,
	`CREATE INDEX IF NOT EXISTS ix_case_reminders_due ON case_reminders (case_id, due_date, created_at DESC)`,
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("migrate: pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	for _, stmt := range extraDDL {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Ping checks connectivity with a live round trip.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
