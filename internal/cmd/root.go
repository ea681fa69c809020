package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/bounce/internal/config"
	"github.com/charmbracelet/bounce/internal/tracing"
	"github.com/charmbracelet/bounce/internal/version"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bounce",
	Short: "Debounce keyed events",
	Long: `Bounce coalesces bursts of keyed events into a single action.
Every event restarts the quiet period for its key; the action fires once the
key has been quiet long enough.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.AddCommand(configCmd, demoCmd, watchCmd)
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := fang.Execute(ctx, rootCmd, fang.WithVersion(version.Version)); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config named by --config and applies --debug.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Log.Debug = true
	}
	return cfg, nil
}

// setupTracing starts OTLP export when an endpoint is configured. The
// returned function flushes pending spans.
func setupTracing(cfg *config.Config) (func(), error) {
	err := tracing.Init(tracing.Config{
		Endpoint:       cfg.Tracing.Endpoint,
		ServiceName:    "bounce",
		ServiceVersion: version.Version,
		Insecure:       cfg.Tracing.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
	}, nil
}
