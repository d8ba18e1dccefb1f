package main

import (
	"log"
	"os"

	"compliance-ledger/internal/config"
	"compliance-ledger/internal/database"
	"compliance-ledger/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Product compliance ledger",
	Long:  `Tracks products, their CRA plans, security metadata, requirement assessments and vulnerability readiness.`,
}

func init() {
	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(exportCommand())
	rootCmd.AddCommand(importCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads the configuration and opens a migrated store. The caller owns both the
// logger and the handle.
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	zapLogger, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Printf("failed to initialize logger: %v", err)
		return nil, nil, nil, err
	}

	db, err := database.Open(cfg, zapLogger)
	if err != nil {
		zapLogger.Error("failed to open database", zap.Error(err))
		return nil, nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		zapLogger.Error("failed to migrate database", zap.Error(err))
		_ = database.Close(db)
		return nil, nil, nil, err
	}
	return cfg, zapLogger, db, nil
}
