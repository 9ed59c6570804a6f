package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go-aerialqc"
)

const rule = "------------------------------------------------------------"

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func printHeader(w io.Writer, base string, t aerialqc.Thresholds) {
	fmt.Fprintf(w, "--- Processing folder: %s ---\n", base)
	fmt.Fprintf(w, "THRESHOLDS: Dist>%sm | Speed<%sm/s | Zoom<=%s | ISO<=%d | Res>=%dx%d\n",
		num(t.MinDistanceMeters), num(t.MaxSpeedMps), num(t.MaxDigitalZoom), t.MaxISO, t.MinWidth, t.MinHeight)
	fmt.Fprintf(w, "            Blur>=%s | Bright [%s-%s]\n",
		num(t.MinBlurScore), num(t.MinBrightness), num(t.MaxBrightness))
	fmt.Fprintln(w, rule)
}

func printResult(w io.Writer, r aerialqc.FileResult) {
	fmt.Fprintf(w, "Checking: %s... ", r.Name)
	if r.Verdict.Accepted {
		fmt.Fprintln(w, "✅ GOOD")
	} else {
		fmt.Fprintf(w, "❌ BAD -> %s\n", strings.Join(r.Verdict.Reasons, ", "))
	}
	fmt.Fprintf(w, "   Details: %s\n", r.Verdict.Diagnostic)
	if r.MoveError != "" {
		fmt.Fprintf(w, "   Error moving file: %s\n", r.MoveError)
	}
}

func printSummary(w io.Writer, s *aerialqc.Summary) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Run:        %s\n", s.RunID)
	fmt.Fprintf(w, "Processed:  %d\n", len(s.Results))
	fmt.Fprintf(w, "Accepted:   %d\n", s.Accepted)
	fmt.Fprintf(w, "Rejected:   %d\n", s.Rejected)
	if s.MoveErrors > 0 {
		fmt.Fprintf(w, "Move errors: %d\n", s.MoveErrors)
	}
	if s.DryRun {
		fmt.Fprintln(w, "Dry run: no files were moved.")
	}
	fmt.Fprintln(w, rule)
}

func printMeasurement(w io.Writer, m aerialqc.Measurement) {
	fmt.Fprintf(w, "File:          %s\n", m.Path)
	fmt.Fprintf(w, "Resolution:    %dx%d\n", m.Width, m.Height)
	fmt.Fprintf(w, "Digital zoom:  %sx\n", num(m.DigitalZoom))
	fmt.Fprintf(w, "Focal (35mm):  %s (%s)\n", num(m.FocalLength35mm), aerialqc.LensLabel(m.FocalLength35mm))
	fmt.Fprintf(w, "ISO:           %d\n", m.ISO)
	if m.HasDistance {
		fmt.Fprintf(w, "LRF distance:  %sm\n", num(m.DistanceMeters))
	} else {
		fmt.Fprintln(w, "LRF distance:  n/a")
	}
	fmt.Fprintf(w, "Speed:         %.2f m/s\n", m.SpeedMps)
	fmt.Fprintf(w, "Gimbal pitch:  %s°\n", num(m.GimbalPitchDegrees))
	fmt.Fprintf(w, "Blur score:    %.2f\n", m.BlurScore)
	fmt.Fprintf(w, "Brightness:    %.1f\n", m.Brightness)
	if m.MetadataError != "" {
		fmt.Fprintf(w, "Metadata:      %s\n", m.MetadataError)
	}
	if m.LoadError != "" {
		fmt.Fprintf(w, "Load error:    %s\n", m.LoadError)
	}
}
