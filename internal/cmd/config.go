package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Print the built-in defaults merged with the file given by --config. The
output is valid YAML and can be saved and passed back with --config.`,
	Example: `
# Start a YAML config from the defaults
bounce config > bounce.yaml

# Check what a JSON config resolves to
bounce config --config bounce.json
  `,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cfg.WriteYAML(cmd.OutOrStdout())
	},
}
