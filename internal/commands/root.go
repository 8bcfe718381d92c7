// Package commands provides CLI commands for finking.
package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diogo/finking/internal/config"
	"github.com/diogo/finking/internal/logging"
)

var (
	// Global flags
	endpointFlag string
	timeoutFlag  time.Duration
	logLevelFlag string
	logFileFlag  string
	outputFlag   string
	fileFlag     string
	htmlFlag     bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"

	deps = NewDependencies()

	logCloser io.Closer
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "finking [message]",
	Short: "FinKing AI investment assistant",
	Long: `finking talks to a FinKing AI backend. It can send single messages,
run an interactive chat, or serve the backend and its web widget itself.

Examples:
  finking chat                          Start interactive chat
  finking serve                         Run the backend and web widget
  finking config                        Configure settings
  finking "Is AAPL overvalued?"         Send a single message
  finking -f question.md                Read message from file
  cat question.md | finking             Read message from stdin
  finking "Hello" -o reply.md           Save reply to file
  finking "Explain ETFs" --html         Print the reply as HTML`,
	Args:              cobra.MaximumNArgs(1),
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check for version flag
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(deps.Stdout, "finking %s (built %s)\n", Version, BuildTime)
			return nil
		}

		prompt, ok, err := readInput(args, os.Stdin)
		if err != nil {
			return err
		}
		if !ok {
			// No input - show help
			return cmd.Help()
		}

		return runQuery(cmd.Context(), deps, loadConfig(), prompt, !deps.IsTTY())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Error"))
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "Chat endpoint URL (default from config)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 0, "Per-attempt timeout (e.g. 60s)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "Write logs to a rotated file")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save reply to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read message from file")
	rootCmd.Flags().BoolVar(&htmlFlag, "html", false, "Print the reply as sanitized HTML")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

// readInput picks the message from -f, piped stdin or the positional
// argument, in that order. ok is false when there is no input at all.
func readInput(args []string, stdin *os.File) (string, bool, error) {
	if fileFlag != "" {
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if stdin != nil {
		if stat, err := stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return "", false, fmt.Errorf("failed to read stdin: %w", err)
			}
			if len(data) > 0 {
				return string(data), true, nil
			}
		}
	}

	if len(args) > 0 {
		return args[0], true, nil
	}

	return "", false, nil
}

// setupLogging installs the process logger. The chat TUI and the settings
// menu own the terminal, so they only log to --log-file.
func setupLogging(cmd *cobra.Command, args []string) error {
	cfg, _ := config.LoadConfig()

	level := logLevelFlag
	if level == "" {
		level = cfg.LogLevel
	}
	if level == "" && cfg.Verbose {
		level = "debug"
	}

	closer, err := logging.Setup(logging.Options{
		Level: level,
		File:  logFileFlag,
		Quiet: ownsTerminal(cmd),
	})
	if err != nil {
		return err
	}
	logCloser = closer
	return nil
}

func ownsTerminal(cmd *cobra.Command) bool {
	return cmd == chatCmd || cmd == configCmd
}

// loadConfig loads the configuration and applies the global flags
func loadConfig() config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Warn().Err(err).Msg("using default configuration")
	}
	return applyFlags(cfg)
}

func applyFlags(cfg config.Config) config.Config {
	if endpointFlag != "" {
		cfg.Endpoint = endpointFlag
	}
	if timeoutFlag > 0 {
		cfg.TimeoutSeconds = int(timeoutFlag / time.Second)
		if cfg.TimeoutSeconds < 1 {
			cfg.TimeoutSeconds = 1
		}
	}
	return cfg
}
