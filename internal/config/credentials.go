package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rohankatakam/crewforge/internal/errors"
	"golang.org/x/term"
)

// CredentialManager resolves provider API keys with a priority chain:
// environment variable, config file, OS keychain, interactive prompt.
type CredentialManager struct {
	keyring     *KeyringManager
	in          io.Reader
	out         io.Writer
	interactive bool
}

// NewCredentialManager creates a credential manager bound to the process stdio
func NewCredentialManager() *CredentialManager {
	return &CredentialManager{
		keyring:     NewKeyringManager(),
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: isInteractive(),
	}
}

// NewCredentialManagerWithIO creates a credential manager reading answers from
// in. Prompts are only issued when interactive is true.
func NewCredentialManagerWithIO(in io.Reader, out io.Writer, interactive bool) *CredentialManager {
	return &CredentialManager{
		keyring:     NewKeyringManager(),
		in:          in,
		out:         out,
		interactive: interactive,
	}
}

// ResolveAPIKey returns the API key for the configured provider, storing it
// back into cfg. A missing key is a config error unless the user supplies one
// at the prompt.
func (cm *CredentialManager) ResolveAPIKey(cfg *Config) (string, error) {
	provider := cfg.LLM.Provider
	envVar := EnvVarForProvider(provider)

	if err := NewEnvLoader().RequireAPIKey(provider); err == nil {
		key := os.Getenv(envVar)
		cfg.SetAPIKey(provider, key)
		return key, nil
	}

	if key := cfg.APIKey(provider); key != "" {
		return key, nil
	}

	if cm.keyring.IsAvailable() {
		if key, err := cm.keyring.GetAPIKey(provider); err == nil && key != "" {
			cfg.SetAPIKey(provider, key)
			return key, nil
		}
	}

	// Local OpenAI-compatible servers usually accept any token.
	if provider == ProviderOpenAICompatible {
		return "", nil
	}

	if cm.interactive {
		fmt.Fprintf(cm.out, "\n%s not found.\n", envVar)
		if url := KeyPageURL(provider); url != "" {
			fmt.Fprintf(cm.out, "   Create one at: %s\n", url)
		}
		fmt.Fprintf(cm.out, "Enter %s API key: ", provider)

		key, err := cm.ReadSecret()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to read API key")
		}
		if key == "" {
			return "", errors.ConfigErrorf("%s API key is required", provider)
		}
		cfg.SetAPIKey(provider, key)
		return key, nil
	}

	return "", errors.ConfigErrorf(
		"%s not found. Set it via:\n"+
			"  1. Environment variable: export %s=...\n"+
			"  2. A .env file in the working directory\n"+
			"  3. Run: crewforge configure (stores it in the OS keychain)",
		envVar, envVar).WithContext("provider", provider)
}

// SaveAPIKey stores the key in the keychain when available, otherwise in cfg
// (to be written by Config.Save). It reports whether the keychain was used.
func (cm *CredentialManager) SaveAPIKey(cfg *Config, provider, key string) (bool, error) {
	if key == "" {
		return false, errors.ValidationError("api key cannot be empty")
	}

	if cm.keyring.IsAvailable() {
		if err := cm.keyring.SaveAPIKey(provider, key); err != nil {
			return false, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
				"failed to save API key to keychain")
		}
		cfg.SetAPIKey(provider, "")
		cfg.LLM.UseKeychain = true
		return true, nil
	}

	cfg.SetAPIKey(provider, key)
	cfg.LLM.UseKeychain = false
	return false, nil
}

// ReadSecret reads a key without echo when stdin is a terminal, otherwise a
// single line from the configured reader.
func (cm *CredentialManager) ReadSecret() (string, error) {
	if f, ok := cm.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cm.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	reader := bufio.NewReader(cm.in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// KeyPageURL returns the provider console page where API keys are created
func KeyPageURL(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "https://platform.openai.com/api-keys"
	case ProviderGemini:
		return "https://aistudio.google.com/app/apikey"
	case ProviderAnthropic:
		return "https://console.anthropic.com/settings/keys"
	default:
		return ""
	}
}

// isInteractive returns true if stdin is a terminal (not piped)
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
