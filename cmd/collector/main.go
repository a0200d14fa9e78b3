package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"car-intel/internal/adapters"
	"car-intel/internal/collector"
	"car-intel/internal/config"
	"car-intel/internal/database"
	"car-intel/internal/fetch"
	"car-intel/internal/pdftext"
	"car-intel/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var dbURL = flag.String("db", "", "database connection URL (overrides DATABASE_URL)")

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

	fetcher := fetch.New(cfg.FetchTimeout, cfg.FetchRetryCount, cfg.FetchRetryWait)
	registry := adapters.DefaultRegistry(pdftext.New(), logger)

	c := collector.New(registry, st, fetcher, logger)
	results, err := c.Run(context.Background())
	for _, r := range results {
		fmt.Printf("%-12s %-10s rows=%d\n", r.Brand, r.Status, r.Rows)
	}
	if err != nil {
		logger.Error("collection run failed", zap.Error(err))
		os.Exit(1)
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
