package main

import (
	"context"
	"flag"

	"car-intel/internal/config"
	"car-intel/internal/database"
	"car-intel/internal/intel"
	"car-intel/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	dbURL  = flag.String("db", "", "database connection URL (overrides DATABASE_URL)")
	outDir = flag.String("out", "", "artifacts output directory (overrides ARTIFACTS_DIR)")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	if *dbURL != "" {
		cfg.DatabaseURL = *dbURL
	}
	if *outDir != "" {
		cfg.ArtifactsDir = *outDir
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

	generator := intel.NewGenerator(st, cfg, logger)
	if err := generator.Run(context.Background()); err != nil {
		logger.Fatal("intel generation failed", zap.Error(err))
	}
}

func newLogger(environment string) *zap.Logger {
	if environment == "production" {
		logger, _ := zap.NewProduction()
		return logger
	}
	logger, _ := zap.NewDevelopment()
	return logger
}
