package aerialqc

import (
	"fmt"
	"strconv"
	"strings"
)

// Criterion names, in evaluation order.
const (
	CheckResolution  = "resolution"
	CheckDigitalZoom = "digital_zoom"
	CheckISO         = "iso"
	CheckDistance    = "distance"
	CheckSpeed       = "speed"
	CheckBlur        = "blur"
	CheckBrightness  = "brightness"
)

// zoomLensFocal is the 35mm-equivalent focal length above which the lens is
// labelled "Zoom" instead of "Wide". The label never affects the verdict.
const zoomLensFocal = 80.0

const noLRF = "N/A (No LRF)"

// Check is the outcome of a single criterion.
type Check struct {
	Name    string // one of the Check* constants
	Value   string // formatted measured value, with unit
	Status  string // "PASS", "FAIL", "FAIL: Dark", "FAIL: Bright" or "SKIP"
	Passed  bool   // true for skipped criteria
	Skipped bool
	Reason  string // failure reason, empty unless the check failed
}

// Verdict is the evaluation of one Measurement against Thresholds.
type Verdict struct {
	Accepted   bool
	Reasons    []string // one per failed criterion, evaluation order (never nil)
	Diagnostic string   // single-line summary of every graded criterion
	Checks     []Check  // per-criterion evidence (never nil, empty on load errors)
}

// Evaluate grades m against t. It is a pure function: the same inputs always
// produce the same verdict, reasons and diagnostic line.
//
// A load error short-circuits evaluation: the verdict is rejected with the
// error text as its only reason. Otherwise every criterion is evaluated and
// failures accumulate. A missing LRF distance skips the distance criterion.
func Evaluate(m Measurement, t Thresholds) Verdict {
	if m.LoadError != "" {
		return Verdict{
			Accepted:   false,
			Reasons:    []string{m.LoadError},
			Diagnostic: "[ERROR] Could not load image: " + m.LoadError,
			Checks:     []Check{},
		}
	}

	checks := make([]Check, 0, 7) //nolint:mnd // one per criterion

	// 1. Resolution.
	res := fmt.Sprintf("%dx%d", m.Width, m.Height)
	checks = append(checks, grade(CheckResolution, res,
		m.Width >= t.MinWidth && m.Height >= t.MinHeight,
		"Low Resolution ("+res+")"))

	// 2. Digital zoom.
	checks = append(checks, grade(CheckDigitalZoom, fixed(m.DigitalZoom, 2)+"x",
		m.DigitalZoom <= t.MaxDigitalZoom,
		"Digital Zoom ("+plain(m.DigitalZoom)+"x)"))

	// 3. ISO.
	iso := strconv.Itoa(m.ISO)
	checks = append(checks, grade(CheckISO, iso,
		m.ISO <= t.MaxISO,
		"High ISO ("+iso+")"))

	// 4. Distance, only when the LRF reported one.
	if m.HasDistance {
		checks = append(checks, grade(CheckDistance, fixed(m.DistanceMeters, 2)+"m",
			m.DistanceMeters >= t.MinDistanceMeters,
			fmt.Sprintf("Too Close (%sm < %sm)", plain(m.DistanceMeters), plain(t.MinDistanceMeters))))
	} else {
		checks = append(checks, Check{Name: CheckDistance, Value: noLRF, Status: "SKIP", Passed: true, Skipped: true})
	}

	// 5. Flight speed.
	checks = append(checks, grade(CheckSpeed, fixed(m.SpeedMps, 2)+"m/s",
		m.SpeedMps <= t.MaxSpeedMps,
		"Moving Too Fast ("+fixed(m.SpeedMps, 1)+" m/s)"))

	// 6. Blur.
	checks = append(checks, grade(CheckBlur, fixed(m.BlurScore, 2),
		m.BlurScore >= t.MinBlurScore,
		"Blurry (Score: "+fixed(m.BlurScore, 1)+")"))

	// 7. Brightness: too dark and overexposed share one slot.
	checks = append(checks, gradeBrightness(m.Brightness, t))

	v := Verdict{
		Accepted:   true,
		Reasons:    []string{},
		Diagnostic: diagnostic(m, checks),
		Checks:     checks,
	}
	for _, c := range checks {
		if !c.Passed {
			v.Accepted = false
			v.Reasons = append(v.Reasons, c.Reason)
		}
	}
	return v
}

func grade(name, value string, passed bool, reason string) Check {
	if passed {
		return Check{Name: name, Value: value, Status: "PASS", Passed: true}
	}
	return Check{Name: name, Value: value, Status: "FAIL", Reason: reason}
}

func gradeBrightness(b float64, t Thresholds) Check {
	c := Check{Name: CheckBrightness, Value: fixed(b, 1), Status: "PASS", Passed: true}
	switch {
	case b < t.MinBrightness:
		c.Status, c.Passed, c.Reason = "FAIL: Dark", false, "Too Dark ("+fixed(b, 1)+")"
	case b > t.MaxBrightness:
		c.Status, c.Passed, c.Reason = "FAIL: Bright", false, "Overexposed ("+fixed(b, 1)+")"
	}
	return c
}

// LensLabel describes the lens from its 35mm-equivalent focal length.
func LensLabel(focal35 float64) string {
	if focal35 > zoomLensFocal {
		return "Zoom"
	}
	return "Wide"
}

// diagnosticFields maps criteria to their diagnostic labels, in output order.
// Resolution and ISO are reported through reasons only.
var diagnosticFields = []struct{ check, label string }{
	{CheckDigitalZoom, "DigZoom"},
	{CheckDistance, "Dist"},
	{CheckSpeed, "Speed"},
	{CheckBlur, "Blur"},
	{CheckBrightness, "Bright"},
}

func diagnostic(m Measurement, checks []Check) string {
	parts := make([]string, 0, len(diagnosticFields)+1)
	parts = append(parts, fmt.Sprintf("Lens: %s (%dmm)", LensLabel(m.FocalLength35mm), int(m.FocalLength35mm)))
	for _, f := range diagnosticFields {
		for _, c := range checks {
			if c.Name == f.check {
				parts = append(parts, f.label+": "+c.annotated())
				break
			}
		}
	}
	return strings.Join(parts, " | ")
}

// annotated renders the check as "<value> (<status>)", or the bare value when skipped.
func (c Check) annotated() string {
	if c.Skipped {
		return c.Value
	}
	return c.Value + " (" + c.Status + ")"
}
