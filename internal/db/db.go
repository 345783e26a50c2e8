package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"meeting-scheduler-backend/config"
	"meeting-scheduler-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Event{},
		&model.AvailabilityWindow{},
		&model.PushSubscription{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if err := applyConstraints(db); err != nil {
		log.Printf("Warning: failed to apply schema constraints: %v. Continuing without them.", err)
	}

	log.Println("Database initialization complete.")
	return db, nil
}

func applyConstraints(db *gorm.DB) error {
	ddls := []string{
		// Windows must be non-empty ranges.
		"ALTER TABLE availability_windows " +
			"ADD CONSTRAINT availability_windows_range_valid CHECK (start_time < end_time);",

		// The finalize snapshot reads all windows of one event at once.
		"CREATE INDEX IF NOT EXISTS idx_availability_windows_event_id_id " +
			"ON availability_windows (event_id, id);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
