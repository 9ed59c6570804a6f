package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go-aerialqc"
	"github.com/anatolykoptev/go-aerialqc/internal/config"
	"github.com/anatolykoptev/go-aerialqc/internal/logger"
)

type sortOptions struct {
	sourceOptions
	goodDir   string
	badDir    string
	auditLog  string
	report    string
	workers   int
	recursive bool
	dryRun    bool
	dedup     bool
}

func (o *sortOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	o.sourceOptions.apply(cmd, cfg)
	f := cmd.Flags()
	if f.Changed("good-dir") {
		cfg.Output.GoodDir = o.goodDir
	}
	if f.Changed("bad-dir") {
		cfg.Output.BadDir = o.badDir
	}
	if f.Changed("audit-log") {
		cfg.Output.AuditLog = o.auditLog
	}
	if f.Changed("report") {
		cfg.Output.Report = o.report
	}
	if f.Changed("workers") {
		cfg.Workers = o.workers
	}
	if f.Changed("recursive") {
		cfg.Recursive = o.recursive
	}
	if f.Changed("dedup") {
		cfg.Dedup = o.dedup
	}
}

func newSortCmd(g *globalOptions) *cobra.Command {
	var o sortOptions

	cmd := &cobra.Command{
		Use:   "sort [dir]",
		Short: "Grade and move every image in a directory",
		Long: `Grades every .jpg, .jpeg, .png, .dng and .tiff file in the directory
(default: current directory) and moves it into the accept or reject directory.
Files already inside those directories are never processed again.`,
		Example: `  # Sort the current directory with default thresholds
  aerialqc sort

  # Preview decisions for a flight without moving anything
  aerialqc sort ./flight-042 --dry-run --report flight-042.yaml

  # Use exiftool for metadata and reject near-duplicate frames
  aerialqc sort ./flight-042 --exiftool /usr/local/bin/exiftool --dedup`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runSort(cmd, g, &o, dir)
		},
	}

	o.sourceOptions.register(cmd)
	cmd.Flags().StringVar(&o.goodDir, "good-dir", "", "Accept directory (default: <dir>/_GOOD_IMAGES)")
	cmd.Flags().StringVar(&o.badDir, "bad-dir", "", "Reject directory (default: <dir>/_BAD_IMAGES)")
	cmd.Flags().StringVar(&o.auditLog, "audit-log", "", "Audit log file (default: <dir>/sorting_log.txt)")
	cmd.Flags().StringVar(&o.report, "report", "", "Write a run report (.yaml, .yml or .parquet)")
	cmd.Flags().IntVarP(&o.workers, "workers", "w", aerialqc.DefaultWorkers, "Images measured in parallel")
	cmd.Flags().BoolVarP(&o.recursive, "recursive", "r", false, "Include subdirectories")
	cmd.Flags().BoolVarP(&o.dryRun, "dry-run", "n", false, "Evaluate only, do not move files")
	cmd.Flags().BoolVar(&o.dedup, "dedup", false, "Reject near-duplicates of already accepted images")

	return cmd
}

func runSort(cmd *cobra.Command, g *globalOptions, o *sortOptions, dir string) error {
	base, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}

	cfg, err := loadConfig(cmd, g, base)
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

	out := cmd.OutOrStdout()
	printHeader(out, base, cfg.Thresholds)

	if cfg.Metadata.Source == config.SourceExifTool {
		fmt.Fprintln(out, "--- Initializing ExifTool ---")
	}
	src, err := openSource(cfg, log)
	if err != nil {
		return err
	}
	defer src.Close()

	audit, err := aerialqc.OpenAuditLog(resolve(base, cfg.Output.AuditLog))
	if err != nil {
		return err
	}
	defer audit.Close()

	sorter := aerialqc.NewSorter(aerialqc.Config{
		Metadata:   src,
		Visual:     &aerialqc.PixelAnalyzer{SkipHash: !cfg.Dedup},
		Thresholds: cfg.Thresholds,
		Logger:     log,
		GoodDir:    resolve(base, cfg.Output.GoodDir),
		BadDir:     resolve(base, cfg.Output.BadDir),
		Recursive:  cfg.Recursive,
		DryRun:     o.dryRun,
		Workers:    cfg.Workers,
		Dedup:      cfg.Dedup,
		OnStart:    func(total int) { fmt.Fprintf(out, "Found %d images.\n", total) },
		OnResult:   func(r aerialqc.FileResult) { printResult(out, r) },
	}, audit)

	sum, err := sorter.Run(cmd.Context(), base)
	if err != nil {
		audit.Note("Critical error: " + err.Error())
		if sum != nil {
			printSummary(out, sum)
		}
		return err
	}

	if sum.Total == 0 {
		fmt.Fprintln(out, "No images found to process.")
		return nil
	}
	printSummary(out, sum)

	if cfg.Output.Report != "" {
		path := resolve(base, cfg.Output.Report)
		if err := aerialqc.WriteReport(path, sum, cfg.Thresholds); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report saved to: %s\n", path)
	}
	return nil
}
