package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rohankatakam/crewforge/internal/errors"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextRun - crewforge run needs a provider and its credential
	ValidationContextRun ValidationContext = "run"
	// ValidationContextServe - crewforge mcp needs the same as run, checked lazily per call
	ValidationContextServe ValidationContext = "serve"
	// ValidationContextHistory - crewforge runs only needs storage
	ValidationContextHistory ValidationContext = "history"
	// ValidationContextAll - validate all configuration
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  ✗ %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", warn))
		}
	}

	return sb.String()
}

// AsError converts a failed result into a typed config error, or nil
func (vr *ValidationResult) AsError() error {
	if !vr.HasErrors() {
		return nil
	}
	return errors.ConfigError(strings.TrimSpace(vr.Error()))
}

// Validate validates configuration for the given context
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextRun:
		c.validateLLM(result, true)
		c.validateCrew(result)
		c.validateCache(result)
		c.validateStorage(result)
	case ValidationContextServe:
		c.validateLLM(result, false)
		c.validateCrew(result)
		c.validateCache(result)
		c.validateStorage(result)
	case ValidationContextHistory:
		c.validateStorage(result)
	case ValidationContextAll:
		c.validateLLM(result, false)
		c.validateCrew(result)
		c.validateCache(result)
		c.validateStorage(result)
	}

	return result
}

func (c *Config) validateLLM(result *ValidationResult, requireKey bool) {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
		if c.APIKey(c.LLM.Provider) == "" {
			msg := "%s is required for provider %q but not set"
			if requireKey {
				result.AddError(msg, EnvVarForProvider(c.LLM.Provider), c.LLM.Provider)
			} else {
				result.AddWarning(msg, EnvVarForProvider(c.LLM.Provider), c.LLM.Provider)
			}
		}
	case ProviderOpenAICompatible:
		if c.LLM.CustomLLMURL == "" {
			result.AddError("CUSTOM_LLM_URL is required for provider %q", ProviderOpenAICompatible)
		} else if u, err := url.Parse(c.LLM.CustomLLMURL); err != nil || u.Scheme == "" || u.Host == "" {
			result.AddError("CUSTOM_LLM_URL is invalid: %q", c.LLM.CustomLLMURL)
		}
		if c.LLM.Model == "" {
			result.AddError("llm.model is required for provider %q", ProviderOpenAICompatible)
		}
	default:
		result.AddError("unknown llm.provider %q (expected openai, openai-compatible, gemini or anthropic)", c.LLM.Provider)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		result.AddError("llm.temperature must be between 0 and 2 (got %.2f)", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens <= 0 {
		result.AddError("llm.max_tokens must be positive (got %d)", c.LLM.MaxTokens)
	}
	if c.LLM.RequestsPerSecond < 0 {
		result.AddError("llm.requests_per_second cannot be negative")
	} else if c.LLM.RequestsPerSecond == 0 {
		result.AddWarning("llm.requests_per_second is 0, requests will not be paced")
	}
}

func (c *Config) validateCrew(result *ValidationResult) {
	if strings.TrimSpace(c.Crew.OutputDir) == "" {
		result.AddError("crew.output_dir is required")
	}
}

func (c *Config) validateCache(result *ValidationResult) {
	switch c.Cache.Backend {
	case "none", "":
	case "bolt":
		if c.Cache.Path == "" {
			result.AddError("cache.path is required for the bolt cache backend")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			result.AddError("cache.redis_addr (REDIS_ADDR) is required for the redis cache backend")
		}
	default:
		result.AddError("unknown cache.backend %q (expected bolt, redis or none)", c.Cache.Backend)
	}
}

func (c *Config) validateStorage(result *ValidationResult) {
	switch c.Storage.Type {
	case "none", "":
	case "sqlite":
		if c.Storage.LocalPath == "" {
			result.AddError("storage.local_path is required for sqlite storage")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			result.AddError("POSTGRES_DSN is required for postgres storage")
		}
	default:
		result.AddError("unknown storage.type %q (expected sqlite, postgres or none)", c.Storage.Type)
	}
}
