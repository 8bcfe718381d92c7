package commands

import (
	"errors"
	"strings"
	"testing"

	apierrors "github.com/diogo/finking/internal/errors"
)

func TestFormatErrorMessage_Nil(t *testing.T) {
	if got := formatErrorMessage(nil, "ctx"); got != "" {
		t.Fatalf("expected empty for nil error, got %s", got)
	}
}

func TestFormatErrorMessage_APIError(t *testing.T) {
	e := apierrors.NewAPIErrorWithBody(500, "/api/chat", "chat request failed", "detailed body")
	out := formatErrorMessage(e, "Failed")
	if !strings.Contains(out, "Failed") {
		t.Errorf("expected context in message, got: %s", out)
	}
	if !strings.Contains(out, "HTTP Status: 500") {
		t.Errorf("expected HTTP Status in message, got: %s", out)
	}
	if !strings.Contains(out, "detailed body") {
		t.Errorf("expected response body in message, got: %s", out)
	}
}

func TestFormatErrorMessage_Hints(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"warmup", apierrors.NewWarmupError(3)},
		{"timeout", apierrors.NewTimeoutError("/api/chat")},
		{"network", apierrors.NewNetworkErrorWithEndpoint("send message", "http://localhost/api/chat", errors.New("refused"))},
		{"parse", apierrors.NewParseError("invalid JSON", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := formatErrorMessage(tt.err, "Error")
			if !strings.Contains(out, "Hint") {
				t.Errorf("expected a hint for %s error, got: %s", tt.name, out)
			}
		})
	}
}

func TestFormatErrorMessage_Plain(t *testing.T) {
	out := formatErrorMessage(errors.New("boom"), "Error")
	if !strings.Contains(out, "Error: boom") {
		t.Errorf("expected wrapped message, got: %s", out)
	}
	if strings.Contains(out, "Hint") {
		t.Errorf("expected no hint for a plain error, got: %s", out)
	}
}
