package config

import (
	"os"
	"strconv"
	"time"

	"car-intel/internal/models"
)

type Config struct {
	DatabaseURL  string
	Port         string
	Environment  string
	ArtifactsDir string

	// Outbound fetch behavior for vendor collection.
	FetchTimeout    time.Duration
	FetchRetryCount int
	FetchRetryWait  time.Duration

	// Analytics tuning. Hand-tuned, intentionally overridable.
	Gap       GapConfig
	Lifecycle LifecycleConfig
}

// GapConfig holds the opportunity-score blend weights and the popularity
// priors. The defaults are heuristic constants, not statistical estimates.
type GapConfig struct {
	WeightSegmentShare float64
	WeightFuel         float64
	WeightTransmission float64
	WeightPriceBand    float64

	FuelPriors         map[string]float64
	TransmissionPriors map[string]float64
	BandPriors         map[string]float64
}

// LifecycleConfig holds the drift window and staleness thresholds.
type LifecycleConfig struct {
	DriftWindowDays int
	StaleAfterDays  int
}

func Load() *Config {
	defaultDSN := "root:carintel@tcp(127.0.0.1:3306)/car_intel?charset=utf8mb4&parseTime=True&loc=Local"

	return &Config{
		DatabaseURL:  getEnv("DATABASE_URL", defaultDSN),
		Port:         getEnv("PORT", "8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		ArtifactsDir: getEnv("ARTIFACTS_DIR", "artifacts"),

		FetchTimeout:    time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 20)) * time.Second,
		FetchRetryCount: getEnvInt("FETCH_RETRY_COUNT", 3),
		FetchRetryWait:  time.Duration(getEnvInt("FETCH_RETRY_WAIT_SECONDS", 2)) * time.Second,

		Gap: GapConfig{
			WeightSegmentShare: getEnvFloat("GAP_WEIGHT_SEGMENT_SHARE", 0.40),
			WeightFuel:         getEnvFloat("GAP_WEIGHT_FUEL", 0.25),
			WeightTransmission: getEnvFloat("GAP_WEIGHT_TRANSMISSION", 0.20),
			WeightPriceBand:    getEnvFloat("GAP_WEIGHT_PRICE_BAND", 0.15),
			FuelPriors: map[string]float64{
				models.FuelPetrol:   1.0,
				models.FuelHybrid:   0.8,
				models.FuelDiesel:   0.6,
				models.FuelElectric: 0.5,
				models.FuelLPG:      0.3,
				models.FuelUnknown:  0.2,
			},
			TransmissionPriors: map[string]float64{
				models.TransmissionAutomatic: 1.0,
				models.TransmissionManual:    0.5,
				models.TransmissionUnknown:   0.2,
			},
			// Mid-range bands are where buyer volume concentrates.
			BandPriors: map[string]float64{
				"0-500K":  0.3,
				"500K-1M": 0.7,
				"1M-1.5M": 1.0,
				"1.5M-2M": 0.9,
				"2M-3M":   0.6,
				"3M-5M":   0.4,
				"5M+":     0.2,
			},
		},
		Lifecycle: LifecycleConfig{
			DriftWindowDays: getEnvInt("LIFECYCLE_DRIFT_WINDOW_DAYS", 7),
			StaleAfterDays:  getEnvInt("LIFECYCLE_STALE_AFTER_DAYS", 14),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
