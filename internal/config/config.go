package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Provider names accepted in llm.provider
const (
	ProviderOpenAI           = "openai"
	ProviderOpenAICompatible = "openai-compatible"
	ProviderGemini           = "gemini"
	ProviderAnthropic        = "anthropic"
)

// StateDirName is the per-user state directory under $HOME
const StateDirName = ".crewforge"

// Config holds all configuration settings
type Config struct {
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Crew    CrewConfig    `yaml:"crew" mapstructure:"crew"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

type LLMConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"`
	Model             string        `yaml:"model" mapstructure:"model"`
	OpenAIKey         string        `yaml:"openai_key" mapstructure:"openai_key"`
	GeminiKey         string        `yaml:"gemini_key" mapstructure:"gemini_key"`
	AnthropicKey      string        `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	CustomLLMURL      string        `yaml:"custom_llm_url" mapstructure:"custom_llm_url"`
	CustomLLMKey      string        `yaml:"custom_llm_key" mapstructure:"custom_llm_key"`
	UseKeychain       bool          `yaml:"use_keychain" mapstructure:"use_keychain"`
	MaxTokens         int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64       `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type CrewConfig struct {
	AgentsFile string `yaml:"agents_file" mapstructure:"agents_file"` // empty = embedded default
	TasksFile  string `yaml:"tasks_file" mapstructure:"tasks_file"`   // empty = embedded default
	OutputDir  string `yaml:"output_dir" mapstructure:"output_dir"`
	Verbose    bool   `yaml:"verbose" mapstructure:"verbose"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend" mapstructure:"backend"` // "bolt", "redis", "none"
	Path          string        `yaml:"path" mapstructure:"path"`
	RedisAddr     string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string        `yaml:"redis_password" mapstructure:"redis_password"`
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

type StorageConfig struct {
	Type        string `yaml:"type" mapstructure:"type"` // "sqlite", "postgres", "none"
	LocalPath   string `yaml:"local_path" mapstructure:"local_path"`
	PostgresDSN string `yaml:"postgres_dsn" mapstructure:"postgres_dsn"`
}

type LoggingConfig struct {
	Level     string `yaml:"level" mapstructure:"level"`
	Directory string `yaml:"directory" mapstructure:"directory"` // empty = console only
}

// StateDir returns ~/.crewforge
func StateDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, StateDirName)
}

// DefaultConfigPath returns ~/.crewforge/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(StateDir(), "config.yaml")
}

// Default returns default configuration
func Default() *Config {
	stateDir := StateDir()
	return &Config{
		LLM: LLMConfig{
			Provider:          ProviderOpenAI,
			Model:             DefaultModel(ProviderOpenAI),
			MaxTokens:         4096,
			Temperature:       0.2,
			RequestsPerSecond: 1,
			Timeout:           5 * time.Minute,
		},
		Crew: CrewConfig{
			OutputDir: "output",
			Verbose:   true,
		},
		Cache: CacheConfig{
			Backend: "bolt",
			Path:    filepath.Join(stateDir, "cache.db"),
			TTL:     7 * 24 * time.Hour,
		},
		Storage: StorageConfig{
			Type:      "sqlite",
			LocalPath: filepath.Join(stateDir, "runs.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultModel returns the model used when llm.model is not set for a provider
func DefaultModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderAnthropic:
		return "claude-sonnet-4-20250514"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	default:
		return ""
	}
}

// Load loads configuration from file, .env files and the environment
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvPrefix("CREWFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(StateDirName)
		v.AddConfigPath(".")
		v.AddConfigPath(StateDir())
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !(path != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel(cfg.LLM.Provider)
	}

	return cfg, nil
}

// setDefaults registers every leaf key so AutomaticEnv can override nested values
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("llm.provider", cfg.LLM.Provider)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.openai_key", "")
	v.SetDefault("llm.gemini_key", "")
	v.SetDefault("llm.anthropic_key", "")
	v.SetDefault("llm.custom_llm_url", "")
	v.SetDefault("llm.custom_llm_key", "")
	v.SetDefault("llm.use_keychain", false)
	v.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)
	v.SetDefault("llm.temperature", cfg.LLM.Temperature)
	v.SetDefault("llm.requests_per_second", cfg.LLM.RequestsPerSecond)
	v.SetDefault("llm.timeout", cfg.LLM.Timeout)

	v.SetDefault("crew.agents_file", "")
	v.SetDefault("crew.tasks_file", "")
	v.SetDefault("crew.output_dir", cfg.Crew.OutputDir)
	v.SetDefault("crew.verbose", cfg.Crew.Verbose)

	v.SetDefault("cache.backend", cfg.Cache.Backend)
	v.SetDefault("cache.path", cfg.Cache.Path)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.local_path", cfg.Storage.LocalPath)
	v.SetDefault("storage.postgres_dsn", "")

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.directory", "")
}

// loadEnvFiles loads .env files in order of precedence. godotenv never
// overrides a variable that is already set, so the first file wins.
func loadEnvFiles() {
	envFiles := []string{
		".env.local",
		".env",
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	// A missing .env is normal; only files that exist are loaded.
	NewEnvLoader().Load()

	homeEnvFile := filepath.Join(StateDir(), ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies the conventional provider variables on top of the
// CREWFORGE_* keys. Precedence: env var, config file, keychain.
func applyEnvOverrides(cfg *Config) {
	if provider := GetString("LLM_PROVIDER", ""); provider != "" {
		cfg.LLM.Provider = strings.ToLower(provider)
	}
	if model := GetString("LLM_MODEL", GetString("OPENAI_MODEL", "")); model != "" {
		cfg.LLM.Model = model
	}

	if key := os.Getenv(EnvVarForProvider(ProviderOpenAI)); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	if key := os.Getenv(EnvVarForProvider(ProviderGemini)); key != "" {
		cfg.LLM.GeminiKey = key
	}
	if key := os.Getenv(EnvVarForProvider(ProviderAnthropic)); key != "" {
		cfg.LLM.AnthropicKey = key
	}
	if key := os.Getenv(EnvVarForProvider(ProviderOpenAICompatible)); key != "" {
		cfg.LLM.CustomLLMKey = key
	}
	if url := os.Getenv("CUSTOM_LLM_URL"); url != "" {
		cfg.LLM.CustomLLMURL = url
	}

	if cfg.APIKey(cfg.LLM.Provider) == "" {
		km := NewKeyringManager()
		if km.IsAvailable() {
			if key, err := km.GetAPIKey(cfg.LLM.Provider); err == nil && key != "" {
				cfg.SetAPIKey(cfg.LLM.Provider, key)
				cfg.LLM.UseKeychain = true
			}
		}
	}

	if dir := os.Getenv("OUTPUT_DIR"); dir != "" {
		cfg.Crew.OutputDir = dir
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
	if path := os.Getenv("LOCAL_DB_PATH"); path != "" {
		cfg.Storage.LocalPath = expandPath(path)
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}

	cfg.Cache.Path = expandPath(cfg.Cache.Path)
	cfg.Storage.LocalPath = expandPath(cfg.Storage.LocalPath)
	cfg.LLM.RequestsPerSecond = GetFloat("LLM_REQUESTS_PER_SECOND", cfg.LLM.RequestsPerSecond)
}

// EnvVarForProvider returns the conventional API key variable for a provider
func EnvVarForProvider(provider string) string {
	switch provider {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAICompatible:
		return "CUSTOM_LLM_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// APIKey returns the configured key for a provider
func (c *Config) APIKey(provider string) string {
	switch provider {
	case ProviderGemini:
		return c.LLM.GeminiKey
	case ProviderAnthropic:
		return c.LLM.AnthropicKey
	case ProviderOpenAICompatible:
		return c.LLM.CustomLLMKey
	case ProviderOpenAI:
		return c.LLM.OpenAIKey
	default:
		return ""
	}
}

// SetAPIKey stores a key for a provider in the in-memory config
func (c *Config) SetAPIKey(provider, key string) {
	switch provider {
	case ProviderGemini:
		c.LLM.GeminiKey = key
	case ProviderAnthropic:
		c.LLM.AnthropicKey = key
	case ProviderOpenAICompatible:
		c.LLM.CustomLLMKey = key
	case ProviderOpenAI:
		c.LLM.OpenAIKey = key
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save writes configuration to a YAML file. Keys stored in the keychain are
// not written.
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	llmCfg := c.LLM
	if llmCfg.UseKeychain {
		llmCfg.OpenAIKey = ""
		llmCfg.GeminiKey = ""
		llmCfg.AnthropicKey = ""
		llmCfg.CustomLLMKey = ""
	}

	v.Set("llm", map[string]interface{}{
		"provider":            llmCfg.Provider,
		"model":               llmCfg.Model,
		"openai_key":          llmCfg.OpenAIKey,
		"gemini_key":          llmCfg.GeminiKey,
		"anthropic_key":       llmCfg.AnthropicKey,
		"custom_llm_url":      llmCfg.CustomLLMURL,
		"custom_llm_key":      llmCfg.CustomLLMKey,
		"use_keychain":        llmCfg.UseKeychain,
		"max_tokens":          llmCfg.MaxTokens,
		"temperature":         llmCfg.Temperature,
		"requests_per_second": llmCfg.RequestsPerSecond,
		"timeout":             llmCfg.Timeout.String(),
	})
	v.Set("crew", map[string]interface{}{
		"agents_file": c.Crew.AgentsFile,
		"tasks_file":  c.Crew.TasksFile,
		"output_dir":  c.Crew.OutputDir,
		"verbose":     c.Crew.Verbose,
	})
	v.Set("cache", map[string]interface{}{
		"backend":    c.Cache.Backend,
		"path":       c.Cache.Path,
		"redis_addr": c.Cache.RedisAddr,
		"ttl":        c.Cache.TTL.String(),
	})
	v.Set("storage", map[string]interface{}{
		"type":         c.Storage.Type,
		"local_path":   c.Storage.LocalPath,
		"postgres_dsn": c.Storage.PostgresDSN,
	})
	v.Set("logging", map[string]interface{}{
		"level":     c.Logging.Level,
		"directory": c.Logging.Directory,
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
