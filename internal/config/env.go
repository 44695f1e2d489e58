package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvLoader loads a single .env file found in the working directory or one of
// its parents.
type EnvLoader struct {
	loaded bool
}

// NewEnvLoader creates an environment loader
func NewEnvLoader() *EnvLoader {
	return &EnvLoader{}
}

// Load finds and loads the nearest .env file. Variables already present in the
// environment are kept.
func (e *EnvLoader) Load() error {
	if e.loaded {
		return nil
	}

	envPath, err := FindEnvFile()
	if err != nil {
		return fmt.Errorf("failed to find .env file: %w", err)
	}

	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	e.loaded = true
	return nil
}

// RequireAPIKey checks that the key variable for the provider is set
func (e *EnvLoader) RequireAPIKey(provider string) error {
	name := EnvVarForProvider(provider)
	if os.Getenv(name) == "" {
		return fmt.Errorf("missing required environment variable %s", name)
	}
	return nil
}

// FindEnvFile searches for a .env file in the current and parent directories
func FindEnvFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	searchPath := cwd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(searchPath, ".env")
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}

		parent := filepath.Dir(searchPath)
		if parent == searchPath {
			break
		}
		searchPath = parent
	}

	return "", fmt.Errorf(".env file not found in %s or parent directories", cwd)
}

// GetString returns string value or default
func GetString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// GetFloat returns float value or default
func GetFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
