package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	AppName           string
	Environment       string
	LogLevel          string
	Port              string
	DataPath          string
	KernelCacheMB     int
	MaxIterations     int
	RefreshSchedule   string
	MetricsEnabled    bool
	MetricsAddress    string
	PredictionLogSize int
}

var defaults = map[string]any{
	"APP_NAME":            "diamond-price",
	"ENVIRONMENT":         "development",
	"LOG_LEVEL":           "info",
	"PORT":                "8080",
	"DATA_PATH":           "10-diamonds.csv",
	"KERNEL_CACHE_MB":     200,
	"MAX_ITERATIONS":      0,
	"REFRESH_SCHEDULE":    "",
	"METRICS_ENABLED":     false,
	"METRICS_ADDRESS":     "localhost:8125",
	"PREDICTION_LOG_SIZE": 1000,
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	config := &Config{
		AppName:           v.GetString("APP_NAME"),
		Environment:       v.GetString("ENVIRONMENT"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		Port:              v.GetString("PORT"),
		DataPath:          v.GetString("DATA_PATH"),
		KernelCacheMB:     v.GetInt("KERNEL_CACHE_MB"),
		MaxIterations:     v.GetInt("MAX_ITERATIONS"),
		RefreshSchedule:   strings.TrimSpace(v.GetString("REFRESH_SCHEDULE")),
		MetricsEnabled:    v.GetBool("METRICS_ENABLED"),
		MetricsAddress:    v.GetString("METRICS_ADDRESS"),
		PredictionLogSize: v.GetInt("PREDICTION_LOG_SIZE"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
	if c.AppName == "" {
		return fmt.Errorf("APP_NAME is required")
	}
	if c.DataPath == "" {
		return fmt.Errorf("DATA_PATH is required")
	}
	if c.KernelCacheMB < 0 {
		return fmt.Errorf("KERNEL_CACHE_MB must not be negative, got %d", c.KernelCacheMB)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("MAX_ITERATIONS must not be negative, got %d", c.MaxIterations)
	}
	if c.PredictionLogSize < 0 {
		return fmt.Errorf("PREDICTION_LOG_SIZE must not be negative, got %d", c.PredictionLogSize)
	}
	if c.MetricsEnabled && c.MetricsAddress == "" {
		return fmt.Errorf("METRICS_ADDRESS is required when metrics are enabled")
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid REFRESH_SCHEDULE %q: %w", c.RefreshSchedule, err)
		}
	}
	return nil
}
