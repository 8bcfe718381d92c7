package commands

import (
	"github.com/spf13/cobra"

	"github.com/diogo/finking/internal/api"
	"github.com/diogo/finking/internal/config"
	"github.com/diogo/finking/internal/render"
	"github.com/diogo/finking/internal/tui"
	"github.com/diogo/finking/internal/widget"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session with FinKing AI.

Every message is delivered to the configured endpoint. While a reply is
pending the input is disabled; a service that is still warming up is
retried automatically.
Type 'exit', 'quit', or press Ctrl+C to end the session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(deps, loadConfig())
		},
	}
}

var chatCmd = NewChatCmd(deps)

func runChat(d *Dependencies, cfg config.Config) error {
	opts := tui.Options{
		Endpoint:        cfg.Endpoint,
		Markdown:        render.OptionsFromConfig(cfg),
		CopyToClipboard: cfg.CopyToClipboard,
		MaxRetries:      cfg.MaxRetries,
	}

	return d.TUI.RunChat(func(onRetry api.RetryFunc) (widget.Sender, error) {
		return d.NewSender(cfg, onRetry)
	}, opts)
}
