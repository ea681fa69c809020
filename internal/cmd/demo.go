package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/bounce/internal/log"
	"github.com/charmbracelet/bounce/internal/tui"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

var errNoTerminal = errors.New("demo needs an interactive terminal")

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Try the debouncer in an interactive text field",
	Long: `Type into the field. The demo reports that you stopped typing once the
input has been quiet for the input delay, then clears itself after the reset
delay. Logs are written to the configured log file.`,
	Example: `
# Run with the default delays
bounce demo

# Use a shorter quiet period
bounce demo --input-delay 500ms
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isTerminal(cmd.InOrStdin()) || !isTerminal(cmd.OutOrStdout()) {
			return errNoTerminal
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("input-delay") {
			cfg.Demo.InputDelay, _ = cmd.Flags().GetDuration("input-delay")
		}
		if cmd.Flags().Changed("reset-delay") {
			cfg.Demo.ResetDelay, _ = cmd.Flags().GetDuration("reset-delay")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		closer, err := log.SetupFile(log.FileOptions{
			Path:       cfg.Log.File,
			Debug:      cfg.Log.Debug,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		})
		if err != nil {
			return err
		}
		defer closer.Close()

		flush, err := setupTracing(cfg)
		if err != nil {
			return err
		}
		defer flush()

		slog.Info("Starting demo", "input_delay", cfg.Demo.InputDelay, "reset_delay", cfg.Demo.ResetDelay)
		if err := tui.Run(cmd.Context(), tui.Options{
			InputDelay: cfg.Demo.InputDelay,
			ResetDelay: cfg.Demo.ResetDelay,
		}); err != nil {
			return fmt.Errorf("demo failed: %w", err)
		}
		return nil
	},
}

func init() {
	demoCmd.Flags().Duration("input-delay", 0, "Quiet period after the last keystroke")
	demoCmd.Flags().Duration("reset-delay", 0, "How long the stopped typing notice is shown")
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}
