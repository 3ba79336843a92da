package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Storage
	Backend     string `yaml:"backend"`
	DBPath      string `yaml:"db_path"`
	StorageKey  string `yaml:"storage_key"`
	MemoryQuota int    `yaml:"memory_quota"`
	MemorySeed  string `yaml:"memory_seed"`

	// Backups
	BackupDir      string        `yaml:"backup_dir"`
	BackupRetain   int           `yaml:"backup_retain"`
	BackupInterval time.Duration `yaml:"backup_interval"`

	// Dashboard cache
	DashboardCacheSize int           `yaml:"dashboard_cache_size"`
	DashboardCacheTTL  time.Duration `yaml:"dashboard_cache_ttl"`

	// AMQP change feed, disabled when URL is empty
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue"`

	LogLevel string `yaml:"log_level"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Backend:            "sqlite",
		DBPath:             "./data/growly.db",
		StorageKey:         "growly_data_v1",
		BackupDir:          "./backups",
		BackupRetain:       10,
		BackupInterval:     24 * time.Hour,
		DashboardCacheSize: 32,
		DashboardCacheTTL:  time.Minute,
		AMQPExchange:       "growly",
		AMQPQueue:          "growly_changes",
		LogLevel:           "info",
	}
}

// Load reads the YAML file named by GROWLY_CONFIG, if any, then applies
// environment variables on top.
func Load() (*Config, error) {
	cfg := Defaults()
	if path := os.Getenv("GROWLY_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Backend = getEnv("GROWLY_BACKEND", c.Backend)
	c.DBPath = getEnv("GROWLY_DB_PATH", c.DBPath)
	c.StorageKey = getEnv("GROWLY_STORAGE_KEY", c.StorageKey)
	c.MemoryQuota = getEnvInt("GROWLY_MEMORY_QUOTA", c.MemoryQuota)
	c.MemorySeed = getEnv("GROWLY_MEMORY_SEED", c.MemorySeed)

	c.BackupDir = getEnv("GROWLY_BACKUP_DIR", c.BackupDir)
	c.BackupRetain = getEnvInt("GROWLY_BACKUP_RETAIN", c.BackupRetain)
	c.BackupInterval = getEnvDuration("GROWLY_BACKUP_INTERVAL", c.BackupInterval)

	c.DashboardCacheSize = getEnvInt("GROWLY_DASHBOARD_CACHE_SIZE", c.DashboardCacheSize)
	c.DashboardCacheTTL = getEnvDuration("GROWLY_DASHBOARD_CACHE_TTL", c.DashboardCacheTTL)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// FeedEnabled reports whether change events should be published.
func (c *Config) FeedEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.Backend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid backend '%s': must be one of %v", c.Backend, validBackends))
	}

	if c.Backend == "sqlite" {
		if c.DBPath == "" {
			errors = append(errors, "database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.DBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if strings.TrimSpace(c.StorageKey) == "" {
		errors = append(errors, "storage key cannot be empty")
	}

	if c.MemoryQuota < 0 {
		errors = append(errors, fmt.Sprintf("invalid memory quota %d: must not be negative", c.MemoryQuota))
	}

	if c.BackupDir == "" {
		errors = append(errors, "backup directory cannot be empty")
	}
	if c.BackupRetain < 1 {
		errors = append(errors, fmt.Sprintf("invalid backup retention %d: must be at least 1", c.BackupRetain))
	}
	if c.BackupInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid backup interval %v: must be at least 1 minute", c.BackupInterval))
	}

	if c.DashboardCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid dashboard cache size %d: must be at least 1", c.DashboardCacheSize))
	}
	if c.DashboardCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid dashboard cache ttl %v: must not be negative", c.DashboardCacheTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
