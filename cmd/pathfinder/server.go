package pathfinder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soundprediction/pathfinder"
	"github.com/soundprediction/pathfinder/pkg/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServerCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the Pathfinder HTTP server",
		Long: `Start the Pathfinder HTTP server to provide REST API access to path search.

The server provides endpoints for:
- Finding relation paths (POST /api/v1/paths)
- Health checks (/health, /ready, /live)
- Prometheus metrics (/metrics)

Configuration can be provided through config files, environment variables, or command-line flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, v)
		},
	}

	cmd.Flags().String("host", "localhost", "Server host")
	cmd.Flags().Int("port", 8080, "Server port")
	cmd.Flags().String("mode", "release", "Server mode (debug, release, test)")
	cmd.Flags().Int("max-hops", 2, "Hop budget for requests that do not set max_hops")
	cmd.Flags().String("telemetry-parquet-path", "", "Directory for recorded warnings and errors")

	bindFlags(v, cmd.Flags(), map[string]string{
		"server.host":            "host",
		"server.port":            "port",
		"server.mode":            "mode",
		"explore.max_hops":       "max-hops",
		"telemetry.parquet_path": "telemetry-parquet-path",
	})

	return cmd
}

func runServer(cmd *cobra.Command, v *viper.Viper) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	logger, closeLogger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLogger()

	client, err := pathfinder.NewFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize pathfinder: %w", err)
	}
	defer client.Close()
	logger.Info("pathfinder initialized", "backend", cfg.Knowledge.Backend)

	srv := server.New(cfg, client, logger)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.Info("received signal", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		logger.Info("server stopped gracefully")
		return nil
	}
}
