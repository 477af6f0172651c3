package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/task-tracker/modules/api"
	"github.com/example/task-tracker/modules/task"
)

// Config holds the process configuration read from the environment.
type Config struct {
	LogLevel        string
	ShutdownTimeout time.Duration
	Store           task.StoreConfig
	API             api.Config
}

// LoadConfig reads configuration from environment variables and validates it.
func LoadConfig() (Config, error) {
	cfg := Config{
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Store: task.StoreConfig{
			Driver:      strings.ToLower(getEnv("DB_DRIVER", task.DriverSQLite)),
			SQLitePath:  getEnv("DB_PATH", "tasks.db"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Debug:       getEnvBool("DB_DEBUG", false),
		},
		API: api.Config{
			Port:          getEnvInt("HTTP_PORT", 3000),
			TasksPath:     getEnv("TASKS_PATH", "/tasks"),
			AllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),
			AccessLog:     getEnvBool("ACCESS_LOG", true),
			RateLimit: api.RateLimitConfig{
				RedisAddr:     os.Getenv("RATE_LIMIT_REDIS_ADDR"),
				RedisPassword: os.Getenv("RATE_LIMIT_REDIS_PASSWORD"),
				Requests:      getEnvInt("RATE_LIMIT_REQUESTS", 120),
				Window:        getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the modules cannot run with.
func (c Config) Validate() error {
	if c.LogLevel != "info" && c.LogLevel != "error" {
		return fmt.Errorf("unsupported LOG_LEVEL %q (want info or error)", c.LogLevel)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}

	switch c.Store.Driver {
	case task.DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("DB_PATH is required when DB_DRIVER=%s", task.DriverSQLite)
		}
	case task.DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=%s", task.DriverPostgres)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want %s or %s)", c.Store.Driver, task.DriverSQLite, task.DriverPostgres)
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("HTTP_PORT out of range: %d", c.API.Port)
	}
	if !strings.HasPrefix(c.API.TasksPath, "/") || c.API.TasksPath == "/" {
		return fmt.Errorf("TASKS_PATH must start with / and name a collection, got %q", c.API.TasksPath)
	}
	if c.API.RateLimit.Enabled() {
		if c.API.RateLimit.Requests <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.API.RateLimit.Requests)
		}
		if c.API.RateLimit.Window <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.API.RateLimit.Window)
		}
	}
	return nil
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as time.Duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
