package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/diogo/finking/internal/api"
	"github.com/diogo/finking/internal/config"
	"github.com/diogo/finking/internal/tui"
	"github.com/diogo/finking/internal/widget"
)

// SenderFactory builds the delivery sender for cfg. onRetry may be nil.
type SenderFactory func(cfg config.Config, onRetry api.RetryFunc) (widget.Sender, error)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(newSender tui.SenderFactory, opts tui.Options) error
	RunConfig(cfg config.Config) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewSender creates the delivery client.
	NewSender SenderFactory

	// TUI is the terminal user interface.
	TUI TUIInterface

	Stdout io.Writer
	Stderr io.Writer

	// IsTTY reports whether stdout is a terminal.
	IsTTY func() bool

	// Copy writes to the system clipboard.
	Copy func(string) error
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(newSender tui.SenderFactory, opts tui.Options) error {
	return tui.RunChat(newSender, opts)
}

func (d *DefaultTUI) RunConfig(cfg config.Config) error {
	return tui.RunConfig(cfg)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewSender: newAPISender,
		TUI:       &DefaultTUI{},
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		IsTTY:     isStdoutTTY,
		Copy:      clipboard.WriteAll,
	}
}

// newAPISender creates an api.Client from the delivery settings of cfg
func newAPISender(cfg config.Config, onRetry api.RetryFunc) (widget.Sender, error) {
	opts := []api.ClientOption{
		api.WithTimeout(cfg.Timeout()),
		api.WithMaxRetries(cfg.MaxRetries),
		api.WithRetryDelay(cfg.RetryDelay()),
	}
	if onRetry != nil {
		opts = append(opts, api.WithOnRetry(onRetry))
	}
	client, err := api.NewClient(cfg.Endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
