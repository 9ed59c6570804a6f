package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the aerialqc command tree.
func NewRootCmd() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:   "aerialqc",
		Short: "Sort drone photographs into usable and unusable sets",
		Long: `aerialqc grades aerial photographs for photogrammetry.

Each image is measured from its camera metadata (resolution, digital zoom, ISO,
laser range finder distance, flight speed) and from its pixels (sharpness and
brightness), checked against configurable thresholds, and moved into an accept
or reject directory. Every decision is appended to an audit log.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: <dir>/aerialqc.yaml if present)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(newSortCmd(&opts))
	cmd.AddCommand(newInspectCmd(&opts))
	cmd.AddCommand(newConfigCmd(&opts))

	return cmd
}
