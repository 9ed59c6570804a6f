package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go-aerialqc"
	"github.com/anatolykoptev/go-aerialqc/internal/logger"
)

func newInspectCmd(g *globalOptions) *cobra.Command {
	var o sourceOptions

	cmd := &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Measure and grade images without moving them",
		Long: `Prints the measurement and verdict for each file. Nothing is moved and
nothing is written to the audit log. Thresholds come from the config file of
the current directory (or --config) and AERIALQC_* environment variables.`,
		Example: `  aerialqc inspect DJI_0042.JPG
  aerialqc inspect --exiftool ./exiftool ./flight-042/*.JPG`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g, ".")
			if err != nil {
				return err
			}
			o.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			src, err := openSource(cfg, log)
			if err != nil {
				return err
			}
			defer src.Close()

			ex := aerialqc.NewExtractor(src, &aerialqc.PixelAnalyzer{SkipHash: true}, log)
			out := cmd.OutOrStdout()
			for i, arg := range args {
				path, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(out)
				}

				m := ex.Extract(cmd.Context(), path)
				v := aerialqc.Evaluate(m, cfg.Thresholds)
				printMeasurement(out, m)
				if v.Accepted {
					fmt.Fprintln(out, "Verdict:       ✅ GOOD")
				} else {
					fmt.Fprintf(out, "Verdict:       ❌ BAD -> %s\n", strings.Join(v.Reasons, ", "))
				}
				fmt.Fprintf(out, "Details:       %s\n", v.Diagnostic)
			}
			return nil
		},
	}

	o.register(cmd)
	return cmd
}
