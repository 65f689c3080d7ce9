package utils

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file from the working directory if one exists.
// Missing files are not an error; real deployments configure through the
// environment directly.
func LoadEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load(".env")
}

// LoadEnvFrom loads a .env file from the given directory.
func LoadEnvFrom(dir string) error {
	return godotenv.Load(filepath.Join(dir, ".env"))
}

// Getenv returns the trimmed value of key, or fallback when unset or blank.
func Getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// GetenvDuration returns key parsed as a time.Duration, or fallback when
// unset or unparseable.
func GetenvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
