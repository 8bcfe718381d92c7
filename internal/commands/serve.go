package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/diogo/finking/internal/config"
	"github.com/diogo/finking/internal/models"
	"github.com/diogo/finking/internal/server"
	"github.com/diogo/finking/internal/upstream"
)

const (
	shutdownTimeout = 10 * time.Second
	pruneInterval   = time.Minute
)

var serveAddrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat backend and web widget",
	Long: `Run the FinKing AI backend: POST /api/chat answers through DeepSeek,
GET /api/health reports status, and GET / serves the web chat widget.

The DeepSeek API key is read from DEEPSEEK_API_KEY. Without it the server
still starts and answers chat requests with HTTP 500.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if serveAddrFlag != "" {
			cfg.Server.Addr = serveAddrFlag
		}
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddrFlag, "addr", "a", "", "Listen address (default from config or PORT)")
}

// runServe runs the server until ctx ends or the process is interrupted
func runServe(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(cfg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Listen(cfg.Server.Addr); err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return srv.Sessions().RunPruner(gctx, pruneInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newServer wires the DeepSeek completer and a delivery client pointed at
// the server's own chat endpoint, which backs the web widget.
func newServer(cfg config.Config) (*server.Server, error) {
	completer, err := upstream.NewDeepSeek(cfg.Upstream, cfg.UpstreamTimeout(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}
	if !completer.Configured() {
		log.Warn().Str("env", config.EnvAPIKey).Msg("DeepSeek API key not set; chat requests will fail")
	}

	self := cfg
	self.Endpoint = selfEndpoint(cfg.Server.Addr)
	sender, err := newAPISender(self, nil)
	if err != nil {
		return nil, err
	}

	return server.New(server.Options{
		Config:    cfg,
		Completer: completer,
		Sender:    sender,
		Version:   Version,
	}), nil
}

// selfEndpoint returns the chat URL on which a server listening on addr
// can be reached locally
func selfEndpoint(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return models.DefaultEndpoint
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + models.PathChat
}
