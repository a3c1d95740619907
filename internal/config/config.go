package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all runtime settings read from the environment.
type Config struct {
	Port            string
	StorageDriver   string
	DatabaseURL     string
	JWTSecret       string
	AdminKeyHash    string
	LogLevel        string
	DefaultCurrency string

	TxTimeout       time.Duration
	LockTimeout     time.Duration
	ShutdownTimeout time.Duration
	SinkTimeout     time.Duration

	SweepInterval    time.Duration
	SweepBatchSize   int
	SweepConcurrency int

	KafkaBrokers       []string
	NotificationsTopic string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	// a missing .env is fine in containers
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("APP_PORT", "8080"),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AdminKeyHash:       os.Getenv("ADMIN_KEY_HASH"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DefaultCurrency:    getEnv("DEFAULT_CURRENCY", "NOK"),
		NotificationsTopic: getEnv("NOTIFICATIONS_TOPIC", "notifications"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.TxTimeout, err = getDuration("TX_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.LockTimeout, err = getDuration("LOCK_TIMEOUT", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.SinkTimeout, err = getDuration("SINK_TIMEOUT", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getDuration("SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.SweepBatchSize, err = getInt("SWEEP_BATCH_SIZE", 200); err != nil {
		return nil, err
	}
	if cfg.SweepConcurrency, err = getInt("SWEEP_CONCURRENCY", 4); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if c.SweepBatchSize <= 0 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be positive")
	}
	if c.SweepConcurrency <= 0 {
		return fmt.Errorf("SWEEP_CONCURRENCY must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
