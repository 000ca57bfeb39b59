package db

import (
	"fmt"
	"time"

	"github.com/aquascan/backend/internal/config"
	"github.com/aquascan/backend/internal/db/models"
	"github.com/aquascan/backend/internal/utils"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps a GORM DB connection with additional functionality
type Database struct {
	*gorm.DB
	logger *utils.Logger
	config *config.DatabaseConfig
}

// NewDatabase opens a connection using the configured driver
func NewDatabase(cfg *config.DatabaseConfig, log *utils.Logger) (*Database, error) {
	dbLogger := log.Named("database")

	gormLogger := logger.New(
		&logAdapter{logger: dbLogger},
		logger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gormConfig := &gorm.Config{
		Logger:                 gormLogger,
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dbLogger.Info("Opening sqlite database", zap.String("path", cfg.Path))
		dialector = sqlite.Open(cfg.GetDSN())
	case "postgres":
		dbLogger.Info("Connecting to database",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.String("dbname", cfg.DBName),
			zap.String("user", cfg.User),
		)
		dialector = postgres.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB instance: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	database := Wrap(db, cfg, log)

	if err := database.VerifyConnection(); err != nil {
		return nil, err
	}

	return database, nil
}

// Wrap builds a Database around an existing GORM connection
func Wrap(db *gorm.DB, cfg *config.DatabaseConfig, log *utils.Logger) *Database {
	return &Database{
		DB:     db,
		logger: log.Named("database"),
		config: cfg,
	}
}

// VerifyConnection checks if the database connection is working
func (db *Database) VerifyConnection() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB instance: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	db.logger.Info("Successfully connected to database")
	return nil
}

// AutoMigrate creates or updates the schema for all models
func (db *Database) AutoMigrate() error {
	db.logger.Info("Running auto migrations")

	if err := db.DB.AutoMigrate(
		&models.User{},
		&models.Sample{},
		&models.Notification{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}

	return nil
}

// Ping reports whether the database answers, used by the health check
func (db *Database) Ping() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the database connection
func (db *Database) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	db.logger.Info("Database connection closed")
	return nil
}

// logAdapter adapts our logger to GORM's logger interface
type logAdapter struct {
	logger *utils.Logger
}

// Printf implements GORM's logger interface
func (l *logAdapter) Printf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}
