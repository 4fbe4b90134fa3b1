package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ListenAddr string
	JWTSecret  string

	// Database configuration
	DatabaseURL string

	// Redis configuration (live balance / match-state fanout)
	RedisURL string

	// Economy configuration
	CommissionRate        float64 // fraction of the entry pot withheld by the platform
	ReferralBonusRate     float64 // fraction of the first deposit credited to the referrer
	StartingBalance       int64
	RatingWinDelta        int
	RatingLossDelta       int
	MatchmakerPollSeconds int

	// Environment: "development", "production" or "test"
	Environment string
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// Missing .env is fine in production, env vars are already set
	_ = godotenv.Load()

	config := &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		CommissionRate:        0.10,
		ReferralBonusRate:     0.05,
		StartingBalance:       0,
		RatingWinDelta:        10,
		RatingLossDelta:       -5,
		MatchmakerPollSeconds: 10,

		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if rate := os.Getenv("COMMISSION_RATE"); rate != "" {
		if parsed, err := strconv.ParseFloat(rate, 64); err == nil && parsed >= 0 && parsed < 1 {
			config.CommissionRate = parsed
		}
	}
	if rate := os.Getenv("REFERRAL_BONUS_RATE"); rate != "" {
		if parsed, err := strconv.ParseFloat(rate, 64); err == nil && parsed >= 0 && parsed < 1 {
			config.ReferralBonusRate = parsed
		}
	}
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsed, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsed
		}
	}
	if poll := os.Getenv("MATCHMAKER_POLL_SECONDS"); poll != "" {
		if parsed, err := strconv.Atoi(poll); err == nil && parsed > 0 {
			config.MatchmakerPollSeconds = parsed
		}
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
