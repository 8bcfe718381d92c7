package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetup_InvalidLevel(t *testing.T) {
	if _, err := Setup(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestSetup_Console(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	closer, err := Setup(Options{Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("Setup() returned error: %v", err)
	}
	defer closer.Close()

	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("global level = %v, want debug", zerolog.GlobalLevel())
	}

	log.Debug().Str("endpoint", "x").Msg("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("console output missing message: %q", buf.String())
	}
}

func TestSetup_File(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	path := filepath.Join(t.TempDir(), "logs", "finking.log")
	closer, err := Setup(Options{Level: "info", File: path})
	if err != nil {
		t.Fatalf("Setup() returned error: %v", err)
	}

	log.Info().Msg("to file")
	log.Debug().Msg("filtered")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"message":"to file"`) {
		t.Errorf("log file missing entry: %s", data)
	}
	if strings.Contains(string(data), "filtered") {
		t.Error("debug entry should be filtered at info level")
	}
}

func TestSetup_Quiet(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if _, err := Setup(Options{Quiet: true}); err != nil {
		t.Fatalf("Setup() returned error: %v", err)
	}
	log.Info().Msg("dropped")
}
