package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/diogo/finking/internal/api"
	"github.com/diogo/finking/internal/config"
	"github.com/diogo/finking/internal/models"
	"github.com/diogo/finking/internal/tui"
	"github.com/diogo/finking/internal/widget"
)

type fakeSender struct {
	out   models.Outcome
	texts []string
	// retries is replayed through onRetry before answering.
	retries int
	onRetry api.RetryFunc
}

func (f *fakeSender) Send(ctx context.Context, text string) models.Outcome {
	f.texts = append(f.texts, text)
	for i := 1; i <= f.retries; i++ {
		if f.onRetry != nil {
			f.onRetry(i, 0)
		}
	}
	return f.out
}

type fakeTUI struct {
	chatOpts  tui.Options
	chatCalls int
	sender    widget.Sender
	configCfg *config.Config
}

func (f *fakeTUI) RunChat(newSender tui.SenderFactory, opts tui.Options) error {
	f.chatCalls++
	f.chatOpts = opts
	sender, err := newSender(nil)
	if err != nil {
		return err
	}
	f.sender = sender
	return nil
}

func (f *fakeTUI) RunConfig(cfg config.Config) error {
	f.configCfg = &cfg
	return nil
}

type testDeps struct {
	*Dependencies
	sender *fakeSender
	tui    *fakeTUI
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	copied []string
}

func newTestDeps(t *testing.T, out models.Outcome) *testDeps {
	t.Helper()

	td := &testDeps{
		sender: &fakeSender{out: out},
		tui:    &fakeTUI{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	td.Dependencies = &Dependencies{
		NewSender: func(cfg config.Config, onRetry api.RetryFunc) (widget.Sender, error) {
			td.sender.onRetry = onRetry
			return td.sender, nil
		},
		TUI:    td.tui,
		Stdout: td.stdout,
		Stderr: td.stderr,
		IsTTY:  func() bool { return false },
		Copy: func(s string) error {
			td.copied = append(td.copied, s)
			return nil
		},
	}
	return td
}

// resetFlags restores the package-level flags after a test
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		endpointFlag = ""
		timeoutFlag = 0
		logLevelFlag = ""
		logFileFlag = ""
		outputFlag = ""
		fileFlag = ""
		htmlFlag = false
		serveAddrFlag = ""
	})
}

var errSenderFailed = errors.New("sender failed")
