// Package config handles configuration for finking.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/diogo/finking/internal/models"
)

// Environment variables that override the configuration file
const (
	EnvConfigDir = "FINKING_CONFIG_DIR"
	EnvEndpoint  = "FINKING_ENDPOINT"
	EnvAPIKey    = "DEEPSEEK_API_KEY"
	EnvPort      = "PORT"
)

// DefaultSystemPrompt is sent to the upstream model with every question
const DefaultSystemPrompt = `You are FinKing, an AI investment analyst.

Provide professional analysis of stocks, crypto, portfolios, market sentiment and
economic indicators. Be confident, back claims with data and reasoning, and
structure answers with a short summary, detailed analysis, and actionable insights
with risk considerations. Use markdown formatting.

Never give personal financial advice, never guarantee returns or predict exact
prices, include risk disclaimers for specific securities, and say when your
information may be outdated.`

// MarkdownConfig configures terminal markdown rendering
type MarkdownConfig struct {
	Style            string `json:"style" toml:"style"`
	EnableEmoji      bool   `json:"enable_emoji" toml:"enable_emoji"`
	PreserveNewLines bool   `json:"preserve_newlines" toml:"preserve_newlines"`
	TableWrap        bool   `json:"table_wrap" toml:"table_wrap"`
	InlineTableLinks bool   `json:"inline_table_links" toml:"inline_table_links"`
}

// ServerConfig configures `finking serve`
type ServerConfig struct {
	Addr string `json:"addr" toml:"addr"`
	// RateLimitPerMinute caps upstream calls made by /api/chat; 0 disables it.
	RateLimitPerMinute int    `json:"rate_limit_per_minute" toml:"rate_limit_per_minute"`
	AllowOrigins       string `json:"allow_origins" toml:"allow_origins"`
	// SessionIdleMinutes is how long an idle web widget session is kept.
	SessionIdleMinutes int `json:"session_idle_minutes" toml:"session_idle_minutes"`
}

// UpstreamConfig configures the model API the backend forwards to
type UpstreamConfig struct {
	URL            string  `json:"url" toml:"url"`
	Model          string  `json:"model" toml:"model"`
	TimeoutSeconds int     `json:"timeout_seconds" toml:"timeout_seconds"`
	MaxTokens      int     `json:"max_tokens" toml:"max_tokens"`
	Temperature    float64 `json:"temperature" toml:"temperature"`
	TopP           float64 `json:"top_p" toml:"top_p"`
	SystemPrompt   string  `json:"system_prompt,omitempty" toml:"system_prompt"`
	// APIKey only ever comes from the environment.
	APIKey string `json:"-" toml:"-"`
}

// Config represents the user configuration
type Config struct {
	// Endpoint is the chat URL the client posts messages to.
	Endpoint          string `json:"endpoint" toml:"endpoint"`
	TimeoutSeconds    int    `json:"timeout_seconds" toml:"timeout_seconds"`
	MaxRetries        int    `json:"max_retries" toml:"max_retries"`
	RetryDelaySeconds int    `json:"retry_delay_seconds" toml:"retry_delay_seconds"`
	// Verbose enables request timing and retry details on stderr.
	Verbose         bool           `json:"verbose" toml:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard" toml:"copy_to_clipboard"`
	LogLevel        string         `json:"log_level,omitempty" toml:"log_level"`
	Markdown        MarkdownConfig `json:"markdown" toml:"markdown"`
	Server          ServerConfig   `json:"server" toml:"server"`
	Upstream        UpstreamConfig `json:"upstream" toml:"upstream"`
}

// Timeout returns the per-attempt deadline
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return models.DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryDelay returns the pause between warm-up retries
func (c Config) RetryDelay() time.Duration {
	if c.RetryDelaySeconds < 0 {
		return 0
	}
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// UpstreamTimeout returns the deadline for one upstream call
func (c Config) UpstreamTimeout() time.Duration {
	if c.Upstream.TimeoutSeconds <= 0 {
		return models.DefaultUpstreamTimeout
	}
	return time.Duration(c.Upstream.TimeoutSeconds) * time.Second
}

// SessionIdle returns how long idle widget sessions are kept
func (c Config) SessionIdle() time.Duration {
	if c.Server.SessionIdleMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Server.SessionIdleMinutes) * time.Minute
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Endpoint:          models.DefaultEndpoint,
		TimeoutSeconds:    int(models.DefaultTimeout / time.Second),
		MaxRetries:        models.DefaultMaxRetries,
		RetryDelaySeconds: int(models.DefaultRetryDelay / time.Second),
		LogLevel:          "info",
		Markdown:          DefaultMarkdownConfig(),
		Server: ServerConfig{
			Addr:               ":5000",
			RateLimitPerMinute: 30,
			AllowOrigins:       "*",
			SessionIdleMinutes: 30,
		},
		Upstream: UpstreamConfig{
			URL:            models.DefaultUpstreamURL,
			Model:          models.DefaultUpstreamModel,
			TimeoutSeconds: int(models.DefaultUpstreamTimeout / time.Second),
			MaxTokens:      2048,
			Temperature:    0.7,
			TopP:           0.9,
			SystemPrompt:   DefaultSystemPrompt,
		},
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".finking"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the JSON config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the configuration from disk and applies environment
// overrides. config.json wins over config.toml; defaults are used when
// neither exists.
func LoadConfig() (Config, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return ApplyEnv(DefaultConfig()), err
	}

	cfg, err := LoadConfigFrom(filepath.Join(configDir, "config.json"))
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = LoadConfigFrom(filepath.Join(configDir, "config.toml"))
	}
	if errors.Is(err, os.ErrNotExist) {
		return ApplyEnv(DefaultConfig()), nil
	}
	if err != nil {
		return ApplyEnv(DefaultConfig()), err
	}

	return ApplyEnv(cfg), nil
}

// LoadConfigFrom reads one config file; the format follows the extension.
// Missing keys keep their default values.
func LoadConfigFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, err
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
		}
		return cfg, nil
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv returns cfg with environment overrides applied
func ApplyEnv(cfg Config) Config {
	if endpoint := os.Getenv(EnvEndpoint); endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.Upstream.APIKey = key
	}
	if port := os.Getenv(EnvPort); port != "" {
		cfg.Server.Addr = ":" + port
	}
	return cfg
}

// SaveConfig saves the configuration to disk as JSON
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
