package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	t.Setenv(EnvEndpoint, "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvPort, "")
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Timeout() != 60*time.Second {
		t.Errorf("Timeout() = %v, want 60s", cfg.Timeout())
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.MaxRetries)
	}
	if cfg.RetryDelay() != 3*time.Second {
		t.Errorf("RetryDelay() = %v, want 3s", cfg.RetryDelay())
	}
	if cfg.UpstreamTimeout() != 30*time.Second {
		t.Errorf("UpstreamTimeout() = %v, want 30s", cfg.UpstreamTimeout())
	}
	if cfg.Upstream.Model != "deepseek-chat" {
		t.Errorf("Upstream.Model = %s", cfg.Upstream.Model)
	}
	if cfg.Upstream.MaxTokens != 2048 || cfg.Upstream.Temperature != 0.7 || cfg.Upstream.TopP != 0.9 {
		t.Errorf("unexpected upstream defaults: %+v", cfg.Upstream)
	}
	if cfg.Server.Addr != ":5000" {
		t.Errorf("Server.Addr = %s", cfg.Server.Addr)
	}
}

func TestDurationsFallback(t *testing.T) {
	cfg := Config{TimeoutSeconds: 0, RetryDelaySeconds: -1}

	if cfg.Timeout() != 60*time.Second {
		t.Errorf("Timeout() = %v", cfg.Timeout())
	}
	if cfg.RetryDelay() != 0 {
		t.Errorf("RetryDelay() = %v", cfg.RetryDelay())
	}
	if cfg.SessionIdle() != 30*time.Minute {
		t.Errorf("SessionIdle() = %v", cfg.SessionIdle())
	}
}

func TestGetConfigDir_EnvOverride(t *testing.T) {
	dir := withConfigDir(t)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() returned error: %v", err)
	}
	if got != dir {
		t.Errorf("GetConfigDir() = %s, want %s", got, dir)
	}

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() returned error: %v", err)
	}
	if path != filepath.Join(dir, "config.json") {
		t.Errorf("GetConfigPath() = %s", path)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	withConfigDir(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.Endpoint != DefaultConfig().Endpoint {
		t.Errorf("Endpoint = %s, want default", cfg.Endpoint)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	dir := withConfigDir(t)

	cfg := DefaultConfig()
	cfg.Endpoint = "https://chat.example.com/api/chat"
	cfg.MaxRetries = 5
	cfg.Upstream.APIKey = "secret"

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Error("API key must never be written to disk")
	}

	info, err := os.Stat(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if loaded.Endpoint != cfg.Endpoint || loaded.MaxRetries != 5 {
		t.Errorf("loaded config mismatch: %+v", loaded)
	}
	if loaded.Upstream.APIKey != "" {
		t.Error("API key must not be loaded from disk")
	}
}

func TestLoadConfig_PartialJSONKeepsDefaults(t *testing.T) {
	dir := withConfigDir(t)

	data, _ := json.Marshal(map[string]any{"max_retries": 1})
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.MaxRetries != 1 {
		t.Errorf("MaxRetries = %d, want 1", cfg.MaxRetries)
	}
	if cfg.Timeout() != 60*time.Second {
		t.Errorf("Timeout() = %v, want default", cfg.Timeout())
	}
}

func TestLoadConfig_TOML(t *testing.T) {
	dir := withConfigDir(t)

	content := `endpoint = "http://localhost:9000/api/chat"
retry_delay_seconds = 1

[server]
addr = ":9000"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.Endpoint != "http://localhost:9000/api/chat" {
		t.Errorf("Endpoint = %s", cfg.Endpoint)
	}
	if cfg.RetryDelay() != time.Second {
		t.Errorf("RetryDelay() = %v", cfg.RetryDelay())
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %s", cfg.Server.Addr)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	dir := withConfigDir(t)

	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg.MaxRetries != DefaultConfig().MaxRetries {
		t.Error("expected defaults on parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	withConfigDir(t)
	t.Setenv(EnvEndpoint, "http://env/api/chat")
	t.Setenv(EnvAPIKey, "sk-test")
	t.Setenv(EnvPort, "8080")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.Endpoint != "http://env/api/chat" {
		t.Errorf("Endpoint = %s", cfg.Endpoint)
	}
	if cfg.Upstream.APIKey != "sk-test" {
		t.Errorf("APIKey = %s", cfg.Upstream.APIKey)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %s", cfg.Server.Addr)
	}
}
