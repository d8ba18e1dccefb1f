package database

import (
	"fmt"
	"time"

	"compliance-ledger/internal/config"
	"compliance-ledger/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const maxAttempts = 10

// Open connects to the configured store, retrying while the database container starts up.
// The returned handle is owned by the caller.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	for i := 1; i <= maxAttempts; i++ {
		log.Info("connecting to database", zap.String("driver", cfg.DBDriver), zap.Int("attempt", i))

		db, err = gorm.Open(dialector(cfg), gormConfig(log))
		if err == nil {
			break
		}

		log.Warn("failed to connect to database", zap.Error(err))
		if cfg.DBDriver == config.DriverSQLite {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database after %d attempts: %w", maxAttempts, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == config.DriverSQLite {
		// one connection serialises writers, which sqlite needs for the id allocator
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	}

	log.Info("connected to database")
	return db, nil
}

func dialector(cfg *config.Config) gorm.Dialector {
	if cfg.DBDriver == config.DriverSQLite {
		return sqlite.Open(cfg.DBDSN)
	}
	return postgres.Open(cfg.DBDSN)
}

func gormConfig(log *zap.Logger) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(zap.NewStdLog(log), gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// Migrate creates or updates every ledger table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.AuditLog{},
		&models.Product{},
		&models.CommercialReference{},
		&models.MetadataTemplate{},
		&models.ProductMetadata{},
		&models.RegulatoryRequirement{},
		&models.RequirementAssessment{},
		&models.VulnerabilityCompliance{},
		&models.VulnerabilityTracking{},
	)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
