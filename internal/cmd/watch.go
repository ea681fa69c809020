package cmd

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bounce/internal/log"
	"github.com/charmbracelet/bounce/internal/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <path>...",
	Short: "Print files once they settle after a burst of writes",
	Long: `Watch the given files or directories and print one line per file once
it has gone quiet for the configured delay. Every file is debounced
independently.`,
	Example: `
# Print Go files in the current directory as they settle
bounce watch --ext .go .

# Wait a full second of quiet
bounce watch --delay 1s ./docs
  `,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("delay") {
			cfg.Watch.Delay, _ = cmd.Flags().GetDuration("delay")
		}
		if cmd.Flags().Changed("ext") {
			cfg.Watch.Extensions, _ = cmd.Flags().GetStringSlice("ext")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log.SetupConsole(cmd.ErrOrStderr(), cfg.Log.Debug)

		flush, err := setupTracing(cfg)
		if err != nil {
			return err
		}
		defer flush()

		w, err := watch.New(args, watch.Options{
			Delay:      cfg.Watch.Delay,
			Extensions: cfg.Watch.Extensions,
		})
		if err != nil {
			return err
		}

		slog.Info("Watching", "paths", args, "delay", cfg.Watch.Delay)
		out := cmd.OutOrStdout()
		return w.Run(cmd.Context(), func(c watch.Change) {
			fmt.Fprintln(out, c)
		})
	},
}

func init() {
	watchCmd.Flags().Duration("delay", 0, "Quiet period before a file is reported")
	watchCmd.Flags().StringSlice("ext", nil, "Only report files with these extensions")
}
