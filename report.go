package aerialqc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// ReportRow is one file of a run report.
type ReportRow struct {
	File               string   `parquet:"file" yaml:"file"`
	Accepted           bool     `parquet:"accepted" yaml:"accepted"`
	Reasons            []string `parquet:"reasons" yaml:"reasons,omitempty"`
	Diagnostic         string   `parquet:"diagnostic" yaml:"diagnostic"`
	Destination        string   `parquet:"destination" yaml:"destination,omitempty"`
	MoveError          string   `parquet:"move_error" yaml:"move_error,omitempty"`
	Width              int64    `parquet:"width" yaml:"width"`
	Height             int64    `parquet:"height" yaml:"height"`
	DigitalZoom        float64  `parquet:"digital_zoom" yaml:"digital_zoom"`
	FocalLength35mm    float64  `parquet:"focal_length_35mm" yaml:"focal_length_35mm"`
	ISO                int64    `parquet:"iso" yaml:"iso"`
	BlurScore          float64  `parquet:"blur_score" yaml:"blur_score"`
	Brightness         float64  `parquet:"brightness" yaml:"brightness"`
	HasDistance        bool     `parquet:"has_distance" yaml:"has_distance"`
	DistanceMeters     float64  `parquet:"distance_meters" yaml:"distance_meters"`
	SpeedMps           float64  `parquet:"speed_mps" yaml:"speed_mps"`
	GimbalPitchDegrees float64  `parquet:"gimbal_pitch_degrees" yaml:"gimbal_pitch_degrees"`
	MetadataError      string   `parquet:"metadata_error" yaml:"metadata_error,omitempty"`
	LoadError          string   `parquet:"load_error" yaml:"load_error,omitempty"`
}

// ReportRun is the header of a YAML run report.
type ReportRun struct {
	RunID      string     `yaml:"run_id"`
	Base       string     `yaml:"base"`
	DryRun     bool       `yaml:"dry_run"`
	Started    string     `yaml:"started"`
	Finished   string     `yaml:"finished"`
	Total      int        `yaml:"total"`
	Accepted   int        `yaml:"accepted"`
	Rejected   int        `yaml:"rejected"`
	MoveErrors int        `yaml:"move_errors"`
	Thresholds Thresholds `yaml:"thresholds"`
}

// YAMLReport is the complete YAML report document.
type YAMLReport struct {
	Run     ReportRun   `yaml:"run"`
	Results []ReportRow `yaml:"results"`
}

// ReportRows flattens the results of a run.
func ReportRows(sum *Summary) []ReportRow {
	rows := make([]ReportRow, 0, len(sum.Results))
	for _, r := range sum.Results {
		m := r.Measurement
		rows = append(rows, ReportRow{
			File:               r.Name,
			Accepted:           r.Verdict.Accepted,
			Reasons:            r.Verdict.Reasons,
			Diagnostic:         r.Verdict.Diagnostic,
			Destination:        r.Destination,
			MoveError:          r.MoveError,
			Width:              int64(m.Width),
			Height:             int64(m.Height),
			DigitalZoom:        m.DigitalZoom,
			FocalLength35mm:    m.FocalLength35mm,
			ISO:                int64(m.ISO),
			BlurScore:          m.BlurScore,
			Brightness:         m.Brightness,
			HasDistance:        m.HasDistance,
			DistanceMeters:     m.DistanceMeters,
			SpeedMps:           m.SpeedMps,
			GimbalPitchDegrees: m.GimbalPitchDegrees,
			MetadataError:      m.MetadataError,
			LoadError:          m.LoadError,
		})
	}
	return rows
}

// WriteReport saves the run report to path. The format follows the
// extension: .yaml/.yml or .parquet.
func WriteReport(path string, sum *Summary, t Thresholds) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := ensureDir(dir); err != nil {
			return err
		}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		if err := parquet.WriteFile(path, ReportRows(sum)); err != nil {
			return fmt.Errorf("write parquet report: %w", err)
		}
		return nil
	case ".yaml", ".yml":
		return writeYAMLReport(path, sum, t)
	default:
		return fmt.Errorf("unsupported report format %q (want .yaml, .yml or .parquet)", ext)
	}
}

func writeYAMLReport(path string, sum *Summary, t Thresholds) error {
	doc := YAMLReport{
		Run: ReportRun{
			RunID:      sum.RunID,
			Base:       sum.Base,
			DryRun:     sum.DryRun,
			Started:    sum.Started.Format(time.RFC3339),
			Finished:   sum.Finished.Format(time.RFC3339),
			Total:      sum.Total,
			Accepted:   sum.Accepted,
			Rejected:   sum.Rejected,
			MoveErrors: sum.MoveErrors,
			Thresholds: t,
		},
		Results: ReportRows(sum),
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal yaml report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:mnd,gosec // report is not secret
		return fmt.Errorf("write yaml report: %w", err)
	}
	return nil
}
