package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"warehouse-reservation-backend/config"
	"warehouse-reservation-backend/internal/model"
)

// Init opens the configured database and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite serialises writers anyway; one connection keeps in-memory DSNs coherent.
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetimeMinutes > 0 {
			sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
		}
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	slog.Info("database initialization complete", "driver", db.Dialector.Name())
	return db, nil
}

// Migrate creates the tables and, on postgres, the constraints that back the
// engine's invariants at the storage level.
func Migrate(db *gorm.DB) error {
	slog.Info("running database migrations")
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := applyPostgresDDL(db); err != nil {
		return err
	}
	return nil
}

func logLevel(name string) logger.LogLevel {
	switch strings.ToLower(name) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}

// postgresDDL is idempotent; each constraint is added only when missing.
var postgresDDL = []string{
	"CREATE EXTENSION IF NOT EXISTS btree_gist;",

	addConstraint("transportations", "transportations_vehicle_no_overlap",
		"EXCLUDE USING GIST (vehicle_id WITH =, tstzrange(scheduled_departure, scheduled_arrival, '[)') WITH &&) "+
			"WHERE (status IN ('PLANNED', 'IN_PROGRESS'))"),
	addConstraint("transportations", "transportations_driver_no_overlap",
		"EXCLUDE USING GIST (driver_id WITH =, tstzrange(scheduled_departure, scheduled_arrival, '[)') WITH &&) "+
			"WHERE (status IN ('PLANNED', 'IN_PROGRESS'))"),
	addConstraint("transportations", "transportations_window_valid",
		"CHECK (scheduled_arrival > scheduled_departure)"),
	addConstraint("transportations", "transportations_distinct_storages",
		"CHECK (from_storage_id <> to_storage_id)"),
	addConstraint("transportations", "transportations_quantity_positive",
		"CHECK (quantity > 0)"),

	addConstraint("borrowings", "borrowings_window_valid",
		"CHECK (expected_return_date > borrow_date)"),
	addConstraint("borrowings", "borrowings_quantity_positive",
		"CHECK (quantity > 0)"),

	addConstraint("keepings", "keepings_quantity_non_negative",
		"CHECK (quantity >= 0)"),

	"CREATE INDEX IF NOT EXISTS idx_borrowings_active_due ON borrowings (item_id, expected_return_date) WHERE state = 'ACTIVE';",
}

func addConstraint(table, name, definition string) string {
	return fmt.Sprintf(`DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
    ALTER TABLE %s ADD CONSTRAINT %s %s;
  END IF;
END $$;`, name, table, name, definition)
}

func applyPostgresDDL(db *gorm.DB) error {
	for _, ddl := range postgresDDL {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
