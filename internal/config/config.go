package config

import (
	"fmt"
	"time"

	"github.com/ja-rental/service-rental/internal/common/config"
)

// ServiceConfig holds all configuration for the rental service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    config.DatabaseConfig
	JWTConfig   config.JWTConfig
	KafkaConfig config.KafkaConfig

	// OperatorLocation is the civil time zone audit rows and bare dates are read in.
	OperatorLocation      *time.Location
	ConfirmationThreshold int64
	ReconcileSchedule     string
	MigrationsPath        string
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("RENTAL")
	if err != nil {
		return nil, err
	}

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("DB_NAME", "rental")
	v.SetDefault("OPERATOR_TIMEZONE", "Asia/Manila")
	v.SetDefault("CONFIRMATION_THRESHOLD", 1000)
	v.SetDefault("RECONCILE_SCHEDULE", "0 2 * * *")
	v.SetDefault("MIGRATIONS_PATH", "migrations")

	tz := v.GetString("OPERATOR_TIMEZONE")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid OPERATOR_TIMEZONE %q: %w", tz, err)
	}

	threshold := v.GetInt64("CONFIRMATION_THRESHOLD")
	if threshold <= 0 {
		return nil, fmt.Errorf("CONFIRMATION_THRESHOLD must be positive, got %d", threshold)
	}

	return &ServiceConfig{
		Port:                  config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:                config.GetAppEnv(v),
		DBConfig:              config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:             config.LoadJWTConfig(v),
		KafkaConfig:           config.LoadKafkaConfig(v),
		OperatorLocation:      loc,
		ConfirmationThreshold: threshold,
		ReconcileSchedule:     v.GetString("RECONCILE_SCHEDULE"),
		MigrationsPath:        v.GetString("MIGRATIONS_PATH"),
	}, nil
}
