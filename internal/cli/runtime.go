package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anatolykoptev/go-aerialqc"
	"github.com/anatolykoptev/go-aerialqc/internal/config"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
}

// sourceOptions select the metadata source; shared by sort and inspect.
type sourceOptions struct {
	source   string
	exiftool string
}

func (o *sourceOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.source, "metadata-source", "", "Metadata source: native or exiftool")
	cmd.Flags().StringVar(&o.exiftool, "exiftool", "", "Path to the exiftool executable (implies --metadata-source exiftool)")
}

func (o *sourceOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("metadata-source") {
		cfg.Metadata.Source = o.source
	}
	if cmd.Flags().Changed("exiftool") {
		cfg.Metadata.ExifToolPath = o.exiftool
		cfg.Metadata.Source = config.SourceExifTool
	}
}

// loadConfig reads the config file for dir: the --config file when given,
// otherwise <dir>/aerialqc.yaml if it exists.
func loadConfig(cmd *cobra.Command, g *globalOptions, dir string) (*config.Config, error) {
	path, required := filepath.Join(dir, config.DefaultFile), false
	if g.configPath != "" {
		path, required = g.configPath, true
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	return cfg, nil
}

// openSource starts the configured metadata source. Failing to start
// exiftool aborts the run before any file is touched.
func openSource(cfg *config.Config, log *zap.Logger) (aerialqc.MetadataSource, error) {
	if cfg.Metadata.Source != config.SourceExifTool {
		return &aerialqc.NativeSource{}, nil
	}
	et, err := aerialqc.NewExifTool(cfg.Metadata.ExifToolPath, log)
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	et.Timeout = cfg.Metadata.Timeout
	return et, nil
}

// resolve makes p absolute relative to base. Empty stays empty.
func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
