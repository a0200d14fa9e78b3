package main

import (
	"context"
	"flag"

	"car-intel/internal/config"
	"car-intel/internal/database"
	"car-intel/internal/export"
	"car-intel/internal/intel"
	"car-intel/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	dbURL      = flag.String("db", "", "database connection URL (overrides DATABASE_URL)")
	outputFile = flag.String("output", "price_report.xlsx", "output workbook path")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	if *dbURL != "" {
		cfg.DatabaseURL = *dbURL
	}

	logger := newLogger(cfg.Environment)
	defer logger.Sync()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	st, err := store.NewGormStore(db, logger)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}

	if err := export.Workbook(context.Background(), st, intel.DefaultTopN, *outputFile); err != nil {
		logger.Fatal("export failed", zap.Error(err))
	}
	logger.Info("workbook written", zap.String("path", *outputFile))
}

func newLogger(environment string) *zap.Logger {
	if environment == "production" {
		logger, _ := zap.NewProduction()
		return logger
	}
	logger, _ := zap.NewDevelopment()
	return logger
}
