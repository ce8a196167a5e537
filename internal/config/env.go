package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/dates"
)

func getEnvOrDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getIntEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getInt64Env(key string) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBoolEnv(key string, defaultVal bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return defaultVal
	}
}

// DateEnv reads an optional YYYY-MM-DD variable. Unset returns nil.
func DateEnv(key string) (*time.Time, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dates.Layout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s (want YYYY-MM-DD): %w", key, err)
	}
	tt := dates.DateOnly(t)
	return &tt, nil
}

// IntEnv reads an optional non-negative integer variable.
func IntEnv(key string, def int) int { return getIntEnv(key, def) }

// BoolEnv reads an optional boolean variable.
func BoolEnv(key string, def bool) bool { return getBoolEnv(key, def) }
