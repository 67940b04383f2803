package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the process configuration, loaded from the environment
// (optionally seeded from a .env file).
type Config struct {
	DatabaseURL     string
	DBMaxConns      int
	HTTPAddr        string
	AllowedOrigins  string
	ShutdownTimeout time.Duration
	Environment     string
}

// Load reads configuration from the environment. A missing .env file is
// not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DBMaxConns:      getEnvAsInt("DB_MAX_CONNS", 0),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", ""),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		Environment:     getEnv("APP_ENV", "development"),
	}
}

// Production reports whether the process runs with production logging.
func (c Config) Production() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
