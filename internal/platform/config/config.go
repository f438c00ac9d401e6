package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr                string
	DatabaseURL         string
	JWTSecret           string
	Environment         string
	SeedCompanyName     string
	SeedHREmail         string
	SeedHRPassword      string
	RunMigrations       bool
	RunSeed             bool
	MaxBodyBytes        int64
	WindowMaxDays       int
	SaveDebounce        time.Duration
	RenderDebounce      time.Duration
	ScrollThrottle      time.Duration
	ExpandTimeout       time.Duration
	ConflictThreshold   int
	ReportsDir          string
	HolidayAutofill     bool
	DayOffAutofill      bool
	DayOffPresenceType  string
	HolidayPresenceType string
}

func Load() Config {
	return Config{
		Addr:                getEnv("APP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		Environment:         getEnv("APP_ENV", "development"),
		SeedCompanyName:     getEnv("SEED_COMPANY_NAME", "Default Company"),
		SeedHREmail:         getEnv("SEED_HR_EMAIL", "hr@example.com"),
		SeedHRPassword:      getEnv("SEED_HR_PASSWORD", ""),
		RunMigrations:       getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:             getEnvBool("RUN_SEED", true),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		WindowMaxDays:       getEnvInt("WINDOW_MAX_DAYS", 180),
		SaveDebounce:        getEnvDuration("SAVE_DEBOUNCE", 300*time.Millisecond),
		RenderDebounce:      getEnvDuration("RENDER_DEBOUNCE", 50*time.Millisecond),
		ScrollThrottle:      getEnvDuration("SCROLL_THROTTLE", 100*time.Millisecond),
		ExpandTimeout:       getEnvDuration("EXPAND_TIMEOUT", 10*time.Second),
		ConflictThreshold:   getEnvInt("CONFLICT_THRESHOLD", 3),
		ReportsDir:          getEnv("REPORTS_DIR", "reports"),
		HolidayAutofill:     getEnvBool("HOLIDAY_AUTOFILL", true),
		DayOffAutofill:      getEnvBool("DAY_OFF_AUTOFILL", true),
		DayOffPresenceType:  getEnv("DAY_OFF_PRESENCE_TYPE", "day_off"),
		HolidayPresenceType: getEnv("HOLIDAY_PRESENCE_TYPE", "holiday"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedHRPassword) == "" {
			return fmt.Errorf("SEED_HR_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.WindowMaxDays < 7 {
		return fmt.Errorf("WINDOW_MAX_DAYS must be at least 7")
	}
	if c.SaveDebounce <= 0 || c.RenderDebounce <= 0 || c.ScrollThrottle <= 0 {
		return fmt.Errorf("debounce intervals must be positive")
	}
	if c.ConflictThreshold < 2 {
		return fmt.Errorf("CONFLICT_THRESHOLD must be at least 2")
	}
	return nil
}
