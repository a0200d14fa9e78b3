package main

import (
	"flag"

	"car-intel/internal/api"
	"car-intel/internal/config"
	"car-intel/internal/database"
	"car-intel/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var port = flag.String("port", "", "listen port (overrides PORT)")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
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

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	api.SetupRoutes(r.Group("/api"), st, cfg.ArtifactsDir, logger)

	logger.Info("api server listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
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
