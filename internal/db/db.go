package db

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// slotIndexes back the no-double-booking rule. The application pre-check
// only produces friendlier errors; these indexes decide who wins a race.
var slotIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_appointments_doctor_slot
		ON appointments (doctor_id, appointment_date, appointment_time)
		WHERE status <> 'cancelled'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_appointments_patient_slot
		ON appointments (patient_id, appointment_date, appointment_time)
		WHERE status <> 'cancelled'`,
}

func NewDB(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		PrepareStmt: true,
		Logger:      gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database ready",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
	)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Appointment{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}

	for _, stmt := range slotIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("creating slot index: %w", err)
		}
	}
	return nil
}
