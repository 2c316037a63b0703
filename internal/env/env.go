package env

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetString(key, fallback string) string {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return val
}

func GetInt(key string, fallback int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	valInt, err := strconv.Atoi(val)

	if err != nil {
		return fallback
	}
	return valInt
}

func GetDuration(key string, fallback time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	d, err := time.ParseDuration(val)

	if err != nil {
		return fallback
	}
	return d
}

// MustString returns the value of a required variable and panics when it
// is unset, for secrets the service cannot run without.
func MustString(key string) string {
	val, exists := os.LookupEnv(key)
	if !exists || val == "" {
		panic(fmt.Sprintf("FATAL: environment variable %s is not configured", key))
	}
	return val
}
