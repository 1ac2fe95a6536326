// Package repository provides the data access layer using GORM.
package repository

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wastenot/wastenot-backend/internal/config"
	"github.com/wastenot/wastenot-backend/internal/models"
	"github.com/wastenot/wastenot-backend/pkg/logger"
)

// DB holds the database connection.
type DB struct {
	*gorm.DB
}

// NewDB opens the entity store. The sqlite driver (in-memory by default)
// matches the reference deployment; postgres is available for durable setups.
func NewDB(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	var gormLogLevel gormlogger.LogLevel
	switch log.GetLogger().GetLevel() {
	case 0: // debug
		gormLogLevel = gormlogger.Info
	default:
		gormLogLevel = gormlogger.Warn
	}

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Postgres.Host,
			cfg.Postgres.Port,
			cfg.Postgres.User,
			cfg.Postgres.Password,
			cfg.Postgres.Database,
			cfg.Postgres.SSLMode,
		)
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
	default:
		db, err = gorm.Open(sqlite.Open(cfg.SQLite.DSN), gormConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == "postgres" {
		sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("driver", cfg.Driver).
		Msg("Connected to entity store")

	return &DB{db}, nil
}

// AutoMigrate runs database migrations for all models.
func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(
		&models.User{},
		&models.Meal{},
		&models.Badge{},
		&models.Activity{},
		&models.ActivityParticipant{},
	)
}

// SeedActivities inserts the default sustainability activities when the
// activities table is empty.
func (db *DB) SeedActivities() error {
	var count int64
	if err := db.Model(&models.Activity{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	activities := []models.Activity{
		{
			Title:       "Campus Garden Cleanup",
			Description: "Join us to clean up and plant new flowers in the campus garden.",
			Type:        "garden",
			Date:        time.Date(2023, 10, 14, 10, 0, 0, 0, time.UTC),
			Points:      200,
			Location:    "Main Campus Garden",
		},
		{
			Title:       "Recycling Workshop",
			Description: "Learn how to properly sort and recycle different materials.",
			Type:        "recycling",
			Date:        time.Date(2023, 10, 17, 14, 0, 0, 0, time.UTC),
			Points:      150,
			Location:    "Student Union Building, Room 201",
		},
	}
	return db.Create(&activities).Error
}

// Close closes the database connection.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks if the database is healthy.
func (db *DB) Health() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
