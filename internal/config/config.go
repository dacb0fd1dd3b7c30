package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by AUGUR_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("AUGUR_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// APIKey returns the bearer key the query surface requires. Empty disables
// auth, which is only sensible for local development.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// ObserverIntervalHours returns how often a full observer cycle runs.
// Defaults to 24 if not set.
func ObserverIntervalHours() int {
	hours, err := strconv.Atoi(os.Getenv("OBSERVER_INTERVAL_HOURS"))
	if err != nil || hours <= 0 {
		return 24
	}
	return hours
}

// LookbackDays returns how far back each cycle loads entries.
// Defaults to 90 if not set.
func LookbackDays() int {
	days, err := strconv.Atoi(os.Getenv("LOOKBACK_DAYS"))
	if err != nil || days <= 0 {
		return 90
	}
	return days
}

// SignificanceLevel returns the detector p-value bar.
// Defaults to 0.05 if not set.
func SignificanceLevel() float64 {
	alpha, err := strconv.ParseFloat(os.Getenv("SIGNIFICANCE_LEVEL"), 64)
	if err != nil || alpha <= 0 || alpha >= 1 {
		return 0.05
	}
	return alpha
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
