package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/finking/internal/config"
	"github.com/diogo/finking/internal/models"
)

func TestConfigCommand_Subcommands(t *testing.T) {
	want := map[string]bool{"show": false, "path": false, "init": false}
	for _, cmd := range configCmd.Commands() {
		want[cmd.Name()] = true
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected config subcommand %q", name)
		}
	}
}

func TestConfigCommand_Path(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfigDir, dir)
	td := newTestDeps(t, models.ReplyOutcome("", 1))

	cmd := NewConfigCmd(td.Dependencies)
	cmd.SetArgs([]string{"path"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config path error = %v", err)
	}

	if got := strings.TrimSpace(td.stdout.String()); got != filepath.Join(dir, "config.json") {
		t.Errorf("path = %q", got)
	}
}

func TestConfigCommand_ShowHidesAPIKey(t *testing.T) {
	t.Setenv(config.EnvConfigDir, t.TempDir())
	t.Setenv(config.EnvAPIKey, "sk-secret")
	t.Setenv(config.EnvEndpoint, "")
	resetFlags(t)
	td := newTestDeps(t, models.ReplyOutcome("", 1))

	cmd := NewConfigCmd(td.Dependencies)
	cmd.SetArgs([]string{"show"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config show error = %v", err)
	}

	out := td.stdout.String()
	if strings.Contains(out, "sk-secret") {
		t.Error("config show must not print the API key")
	}

	var cfg config.Config
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("config show should print JSON: %v", err)
	}
	if cfg.Endpoint != models.DefaultEndpoint {
		t.Errorf("Endpoint = %q, want default", cfg.Endpoint)
	}
}

func TestInitConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfigDir, dir)
	td := newTestDeps(t, models.ReplyOutcome("", 1))

	if err := initConfig(td.Dependencies, false); err != nil {
		t.Fatalf("initConfig() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if err := initConfig(td.Dependencies, false); err == nil {
		t.Error("expected error when the file already exists")
	}

	if err := initConfig(td.Dependencies, true); err != nil {
		t.Errorf("initConfig(force) error = %v", err)
	}
}

func TestConfigCommand_OpensMenu(t *testing.T) {
	t.Setenv(config.EnvConfigDir, t.TempDir())
	resetFlags(t)
	td := newTestDeps(t, models.ReplyOutcome("", 1))

	cmd := NewConfigCmd(td.Dependencies)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config error = %v", err)
	}
	if td.tui.configCfg == nil {
		t.Fatal("expected the settings menu to open")
	}
}
