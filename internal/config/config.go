package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the gatecount service.
type Config struct {
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	DatabasePath string
	StaffKeySalt string

	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables and an optional .env
// file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BindAddr:         getEnvOrDefault("GATECOUNT_BIND_ADDR", "127.0.0.1:8480"),
		PortCandidates:   splitList(getEnvOrDefault("GATECOUNT_BIND_FALLBACKS", "127.0.0.1:8481,127.0.0.1:8482")),
		PortAutoFallback: getEnvBoolOrDefault("GATECOUNT_PORT_AUTO_FALLBACK", true),
		DatabasePath:     getEnvOrDefault("GATECOUNT_DB_PATH", "./gatecount.db"),
		StaffKeySalt:     getEnvOrDefault("GATECOUNT_STAFF_KEY_SALT", "gatecount-dev-salt"),
		LogLevel:         strings.ToLower(getEnvOrDefault("GATECOUNT_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("GATECOUNT_LOG_FILE", "logs/gatecount.log"),
	}
	return cfg, nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
