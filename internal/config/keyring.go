package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name in the OS keychain
const KeyringService = "crewforge"

// KeyringManager handles secure credential storage in the OS keychain. Each
// provider's key is stored under its own item, "<provider>-api-key".
type KeyringManager struct {
	logger *slog.Logger
}

// NewKeyringManager creates a new keyring manager
func NewKeyringManager() *KeyringManager {
	return &KeyringManager{
		logger: slog.Default().With("component", "keyring"),
	}
}

func keyringItem(provider string) string {
	return provider + "-api-key"
}

// SaveAPIKey stores a provider API key in the OS keychain
func (km *KeyringManager) SaveAPIKey(provider, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("api key cannot be empty")
	}

	if err := keyring.Set(KeyringService, keyringItem(provider), apiKey); err != nil {
		km.logger.Error("failed to save API key to keychain", "provider", provider, "error", err)
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}

	km.logger.Info("api key saved to keychain", "service", KeyringService, "provider", provider)
	return nil
}

// GetAPIKey retrieves a provider API key. A missing entry is not an error.
func (km *KeyringManager) GetAPIKey(provider string) (string, error) {
	apiKey, err := keyring.Get(KeyringService, keyringItem(provider))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		km.logger.Debug("failed to get API key from keychain", "provider", provider, "error", err)
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}

	return apiKey, nil
}

// DeleteAPIKey removes a provider API key from the OS keychain
func (km *KeyringManager) DeleteAPIKey(provider string) error {
	err := keyring.Delete(KeyringService, keyringItem(provider))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		km.logger.Error("failed to delete API key from keychain", "provider", provider, "error", err)
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}

	km.logger.Info("api key deleted from keychain", "provider", provider)
	return nil
}

// IsAvailable reports whether the OS keychain can be reached. Headless
// systems without a secret service return false.
func (km *KeyringManager) IsAvailable() bool {
	_, err := keyring.Get(KeyringService, "test-availability")
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return true
	}
	km.logger.Debug("keychain not available", "error", err)
	return false
}

// KeySourceInfo describes where a provider API key comes from
type KeySourceInfo struct {
	Source      string // "env", "keychain", "config", "env_file", "none"
	Secure      bool
	Recommended string
}

// GetAPIKeySource determines where the active provider's API key is coming from
func (km *KeyringManager) GetAPIKeySource(cfg *Config) KeySourceInfo {
	provider := cfg.LLM.Provider
	envVar := EnvVarForProvider(provider)

	if os.Getenv(envVar) != "" {
		return KeySourceInfo{
			Source:      "env",
			Secure:      true,
			Recommended: fmt.Sprintf("Using %s from the environment", envVar),
		}
	}

	if key, _ := km.GetAPIKey(provider); key != "" {
		return KeySourceInfo{
			Source:      "keychain",
			Secure:      true,
			Recommended: "Stored in the OS keychain",
		}
	}

	if cfg.APIKey(provider) != "" {
		return KeySourceInfo{
			Source:      "config",
			Secure:      false,
			Recommended: "Plaintext key in config file. Run: crewforge configure",
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		return KeySourceInfo{
			Source:      "env_file",
			Secure:      false,
			Recommended: "Using .env file",
		}
	}

	return KeySourceInfo{
		Source:      "none",
		Secure:      false,
		Recommended: fmt.Sprintf("No %s key configured. Run: crewforge configure", provider),
	}
}

// MaskAPIKey masks an API key for display: "sk-proj...abcd"
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return "(not set)"
	}
	if len(apiKey) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", apiKey[:7], apiKey[len(apiKey)-4:])
}

// KeyPrefix returns the first n characters of a key followed by "...", the
// form printed at the start of a run.
func KeyPrefix(apiKey string, n int) string {
	if apiKey == "" {
		return "(not set)"
	}
	if len(apiKey) <= n {
		return "***"
	}
	return apiKey[:n] + "..."
}
