package aerialqc

import (
	"reflect"
	"slices"
	"strings"
	"testing"
)

// goodMeasurement passes every default threshold.
func goodMeasurement() Measurement {
	return Measurement{
		Path:            "DJI_0001.JPG",
		Width:           4000,
		Height:          3000,
		DigitalZoom:     1.0,
		FocalLength35mm: 24,
		ISO:             400,
		BlurScore:       300.0,
		Brightness:      120.0,
		DistanceMeters:  50.0,
		HasDistance:     true,
		SpeedMps:        1.2,
	}
}

func TestEvaluate_Reasons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(m *Measurement)
		want   []string
	}{
		{
			name:   "all within bounds",
			modify: func(*Measurement) {},
			want:   []string{},
		},
		{
			name:   "low width",
			modify: func(m *Measurement) { m.Width = 1920 },
			want:   []string{"Low Resolution (1920x3000)"},
		},
		{
			name:   "low height",
			modify: func(m *Measurement) { m.Height = 1080 },
			want:   []string{"Low Resolution (4000x1080)"},
		},
		{
			name:   "digital zoom",
			modify: func(m *Measurement) { m.DigitalZoom = 2.5 },
			want:   []string{"Digital Zoom (2.5x)"},
		},
		{
			name:   "whole digital zoom keeps decimal",
			modify: func(m *Measurement) { m.DigitalZoom = 2 },
			want:   []string{"Digital Zoom (2.0x)"},
		},
		{
			name:   "high iso",
			modify: func(m *Measurement) { m.ISO = 2000 },
			want:   []string{"High ISO (2000)"},
		},
		{
			name:   "too close",
			modify: func(m *Measurement) { m.DistanceMeters = 5 },
			want:   []string{"Too Close (5.0m < 20.0m)"},
		},
		{
			name:   "too fast",
			modify: func(m *Measurement) { m.SpeedMps = 6.24 },
			want:   []string{"Moving Too Fast (6.2 m/s)"},
		},
		{
			name:   "blurry",
			modify: func(m *Measurement) { m.BlurScore = 50.26 },
			want:   []string{"Blurry (Score: 50.3)"},
		},
		{
			name:   "too dark",
			modify: func(m *Measurement) { m.Brightness = 10 },
			want:   []string{"Too Dark (10.0)"},
		},
		{
			name:   "overexposed",
			modify: func(m *Measurement) { m.Brightness = 250 },
			want:   []string{"Overexposed (250.0)"},
		},
		{
			name: "failures accumulate in criterion order",
			modify: func(m *Measurement) {
				m.Brightness = 5
				m.ISO = 3200
				m.Width = 640
				m.SpeedMps = 9
			},
			want: []string{"Low Resolution (640x3000)", "High ISO (3200)", "Moving Too Fast (9.0 m/s)", "Too Dark (5.0)"},
		},
		{
			name: "missing distance is skipped",
			modify: func(m *Measurement) {
				m.HasDistance = false
				m.DistanceMeters = 1
			},
			want: []string{},
		},
		{
			name: "boundary values pass",
			modify: func(m *Measurement) {
				m.Width, m.Height = 3000, 2000
				m.ISO = 1600
				m.DistanceMeters = 20
				m.SpeedMps = 5
				m.BlurScore = 100
				m.Brightness = 240
			},
			want: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := goodMeasurement()
			tc.modify(&m)

			v := Evaluate(m, DefaultThresholds())
			if !reflect.DeepEqual(v.Reasons, tc.want) {
				t.Errorf("Reasons = %q, want %q", v.Reasons, tc.want)
			}
			if v.Accepted != (len(tc.want) == 0) {
				t.Errorf("Accepted = %v with reasons %q", v.Accepted, v.Reasons)
			}
		})
	}
}

func TestEvaluate_Diagnostic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(m *Measurement)
		want   string
	}{
		{
			name:   "accepted",
			modify: func(*Measurement) {},
			want:   "Lens: Wide (24mm) | DigZoom: 1.00x (PASS) | Dist: 50.00m (PASS) | Speed: 1.20m/s (PASS) | Blur: 300.00 (PASS) | Bright: 120.0 (PASS)",
		},
		{
			name: "zoom lens without LRF",
			modify: func(m *Measurement) {
				m.FocalLength35mm = 162
				m.HasDistance = false
			},
			want: "Lens: Zoom (162mm) | DigZoom: 1.00x (PASS) | Dist: N/A (No LRF) | Speed: 1.20m/s (PASS) | Blur: 300.00 (PASS) | Bright: 120.0 (PASS)",
		},
		{
			name: "failures",
			modify: func(m *Measurement) {
				m.DigitalZoom = 2.5
				m.DistanceMeters = 5
				m.SpeedMps = 6.25
				m.BlurScore = 42.123
				m.Brightness = 250
			},
			want: "Lens: Wide (24mm) | DigZoom: 2.50x (FAIL) | Dist: 5.00m (FAIL) | Speed: 6.25m/s (FAIL) | Blur: 42.12 (FAIL) | Bright: 250.0 (FAIL: Bright)",
		},
		{
			name:   "dark",
			modify: func(m *Measurement) { m.Brightness = 3.21 },
			want:   "Lens: Wide (24mm) | DigZoom: 1.00x (PASS) | Dist: 50.00m (PASS) | Speed: 1.20m/s (PASS) | Blur: 300.00 (PASS) | Bright: 3.2 (FAIL: Dark)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := goodMeasurement()
			tc.modify(&m)
			if got := Evaluate(m, DefaultThresholds()).Diagnostic; got != tc.want {
				t.Errorf("Diagnostic =\n  %q\nwant\n  %q", got, tc.want)
			}
		})
	}
}

func TestEvaluate_LoadErrorShortCircuits(t *testing.T) {
	t.Parallel()

	records := []Measurement{
		goodMeasurement(),
		{},
		{Width: 10, Height: 10, ISO: 99999, BlurScore: 0, Brightness: 0, HasDistance: true},
	}
	for i := range records {
		records[i].LoadError = "could not load image (corrupt?)"
	}

	for _, m := range records {
		v := Evaluate(m, DefaultThresholds())
		if v.Accepted {
			t.Fatalf("Evaluate(%+v) accepted a record with a load error", m)
		}
		if !reflect.DeepEqual(v.Reasons, []string{m.LoadError}) {
			t.Errorf("Reasons = %q, want only the load error", v.Reasons)
		}
		if want := "[ERROR] Could not load image: " + m.LoadError; v.Diagnostic != want {
			t.Errorf("Diagnostic = %q, want %q", v.Diagnostic, want)
		}
		if len(v.Checks) != 0 {
			t.Errorf("Checks = %+v, want none", v.Checks)
		}
	}
}

func TestEvaluate_NoDistanceNeverRejects(t *testing.T) {
	t.Parallel()

	for _, d := range []float64{-10, 0, 1, 19.99, 1000} {
		m := goodMeasurement()
		m.HasDistance = false
		m.DistanceMeters = d
		m.ISO = 5000

		v := Evaluate(m, DefaultThresholds())
		for _, r := range v.Reasons {
			if strings.HasPrefix(r, "Too Close") {
				t.Errorf("distance %v: unexpected reason %q", d, r)
			}
		}
		if !strings.Contains(v.Diagnostic, "Dist: N/A (No LRF)") {
			t.Errorf("distance %v: diagnostic %q lacks the no-LRF placeholder", d, v.Diagnostic)
		}
	}
}

func TestEvaluate_Monotonic(t *testing.T) {
	t.Parallel()

	m := goodMeasurement()
	tests := []struct {
		check string
		set   func(t *Thresholds, step float64)
	}{
		{CheckResolution, func(t *Thresholds, s float64) { t.MinWidth = int(s * 1000) }},
		{CheckResolution, func(t *Thresholds, s float64) { t.MinHeight = int(s * 1000) }},
		{CheckDigitalZoom, func(t *Thresholds, s float64) { t.MaxDigitalZoom = 3 - s/2 }},
		{CheckISO, func(t *Thresholds, s float64) { t.MaxISO = int(1000 - s*100) }},
		{CheckDistance, func(t *Thresholds, s float64) { t.MinDistanceMeters = s * 10 }},
		{CheckSpeed, func(t *Thresholds, s float64) { t.MaxSpeedMps = 3 - s/2 }},
		{CheckBlur, func(t *Thresholds, s float64) { t.MinBlurScore = s * 50 }},
		{CheckBrightness, func(t *Thresholds, s float64) { t.MinBrightness = s * 20 }},
		{CheckBrightness, func(t *Thresholds, s float64) { t.MaxBrightness = 240 - s*20 }},
	}

	for _, tc := range tests {
		failed := false
		for step := 0.0; step <= 10; step++ {
			th := DefaultThresholds()
			tc.set(&th, step)
			v := Evaluate(m, th)
			i := slices.IndexFunc(v.Checks, func(c Check) bool { return c.Name == tc.check })
			if i < 0 {
				t.Fatalf("%s: check missing", tc.check)
			}
			passed := v.Checks[i].Passed
			if failed && passed {
				t.Errorf("%s: flipped back to pass at step %v", tc.check, step)
			}
			failed = failed || !passed
		}
		if !failed {
			t.Errorf("%s: never failed while tightening the threshold", tc.check)
		}
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	t.Parallel()

	m := goodMeasurement()
	m.ISO = 2000
	m.Brightness = 250
	th := DefaultThresholds()

	first := Evaluate(m, th)
	second := Evaluate(m, th)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Evaluate is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestLensLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		focal float64
		want  string
	}{
		{0, "Wide"},
		{24, "Wide"},
		{80, "Wide"},
		{80.5, "Zoom"},
		{162, "Zoom"},
	}
	for _, tc := range tests {
		if got := LensLabel(tc.focal); got != tc.want {
			t.Errorf("LensLabel(%v) = %q, want %q", tc.focal, got, tc.want)
		}
	}
}
