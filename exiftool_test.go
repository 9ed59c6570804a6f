package aerialqc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestParseExifToolJSON(t *testing.T) {
	t.Parallel()

	out := []byte(`[{
  "SourceFile": "/data/DJI_0001.JPG",
  "EXIF:ExifImageWidth": 4000,
  "EXIF:ISO": 100,
  "Composite:DigitalZoomRatio": 1,
  "XMP:LRFTargetDistance": 52.3,
  "XMP:FlightSpeed": "+1.0,-2.0,+2.0"
}]`)

	tags, err := ParseExifToolJSON(out)
	if err != nil {
		t.Fatalf("ParseExifToolJSON error: %v", err)
	}
	if _, ok := tags["SourceFile"]; ok {
		t.Error("SourceFile should be dropped")
	}
	if len(tags) != 5 {
		t.Errorf("got %d tags, want 5: %v", len(tags), tags)
	}

	m := defaultMeasurement("DJI_0001.JPG")
	applyTags(&m, tags)
	if m.Width != 4000 || m.ISO != 100 || m.DistanceMeters != 52.3 || m.SpeedMps != 3 {
		t.Errorf("measurement from exiftool tags = %+v", m)
	}
}

func TestParseExifToolJSON_Empty(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "  \n", "[]"} {
		tags, err := ParseExifToolJSON([]byte(in))
		if err != nil || len(tags) != 0 {
			t.Errorf("ParseExifToolJSON(%q) = %v, %v; want empty", in, tags, err)
		}
	}
	if _, err := ParseExifToolJSON([]byte("Error: File not found")); err == nil {
		t.Error("ParseExifToolJSON should reject non-JSON output")
	}
}

func TestReadUntilReady(t *testing.T) {
	t.Parallel()

	r := bufio.NewReader(strings.NewReader("[{\"a\":1}]\n{ready7}\nnext\n"))
	out, err := readUntilReady(r, 7)
	if err != nil || string(out) != "[{\"a\":1}]\n" {
		t.Errorf("readUntilReady = %q, %v", out, err)
	}

	r = bufio.NewReader(strings.NewReader("partial output"))
	if _, err := readUntilReady(r, 1); err == nil {
		t.Error("readUntilReady should fail when the process exits early")
	}
}

func TestLocateExifTool_Configured(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := LocateExifTool(filepath.Join(dir, "missing")); !errors.Is(err, ErrExifToolNotFound) {
		t.Errorf("missing configured path error = %v, want ErrExifToolNotFound", err)
	}
	if _, err := LocateExifTool(dir); !errors.Is(err, ErrExifToolNotFound) {
		t.Errorf("directory as configured path error = %v, want ErrExifToolNotFound", err)
	}

	exe := filepath.Join(dir, "exiftool")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if got, err := LocateExifTool(exe); err != nil || got != exe {
		t.Errorf("LocateExifTool(%q) = %q, %v", exe, got, err)
	}
}

// fakeExifTool speaks the -stay_open protocol: it remembers the last file
// name and answers every -executeN with a fixed JSON record and {readyN}.
const fakeExifTool = `#!/bin/sh
file=""
while IFS= read -r line; do
  case "$line" in
    -execute*)
      n=${line#-execute}
      case "$file" in
        *empty*) ;;
        *) printf '[{"SourceFile":"%s","EXIF:ISO":200,"XMP:FlightSpeed":"+3,+4,0"}]\n' "$file" ;;
      esac
      printf '{ready%s}\n' "$n"
      file=""
      ;;
    False) exit 0 ;;
    -*) ;;
    *) file="$line" ;;
  esac
done
`

func TestExifTool_StayOpen(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake exiftool is a shell script")
	}

	dir := t.TempDir()
	exe := filepath.Join(dir, "exiftool")
	if err := os.WriteFile(exe, []byte(fakeExifTool), 0o755); err != nil {
		t.Fatal(err)
	}

	et, err := NewExifTool(exe, nil)
	if err != nil {
		t.Fatalf("NewExifTool error: %v", err)
	}
	t.Cleanup(func() { _ = et.Close() })

	if et.Path() != exe {
		t.Errorf("Path() = %q, want %q", et.Path(), exe)
	}

	ctx := context.Background()
	for _, name := range []string{"a.jpg", "b.jpg"} {
		tags, err := et.Lookup(ctx, filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Lookup(%s) error: %v", name, err)
		}
		if iso, ok := tagFloat(tags[TagISO]); !ok || iso != 200 {
			t.Errorf("Lookup(%s) ISO = %v", name, tags[TagISO])
		}
		if got := parseSpeed(flightSpeedString(tags)); got != 5 {
			t.Errorf("Lookup(%s) speed = %v, want 5", name, got)
		}
	}

	tags, err := et.Lookup(ctx, filepath.Join(dir, "empty.jpg"))
	if err != nil || len(tags) != 0 {
		t.Errorf("Lookup(empty) = %v, %v; want no tags", tags, err)
	}

	if _, err := et.Lookup(ctx, "bad\nname.jpg"); err == nil {
		t.Error("Lookup should reject file names containing newlines")
	}

	if err := et.Close(); err != nil {
		t.Errorf("Close error: %v", err)
	}
	if err := et.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}
}

// Tests that exec a freshly written script run serially: a concurrent fork
// can keep the script open for writing and make exec fail with ETXTBSY.

// startSlowExifTool starts a fake exiftool that takes delay to answer.
func startSlowExifTool(t *testing.T, delay string) (*ExifTool, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake exiftool is a shell script")
	}

	dir := t.TempDir()
	exe := filepath.Join(dir, "exiftool")
	script := strings.Replace(fakeExifTool, "n=${line#-execute}", "n=${line#-execute}\n      sleep "+delay, 1)
	if err := os.WriteFile(exe, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	et, err := NewExifTool(exe, nil)
	if err != nil {
		t.Fatalf("NewExifTool error: %v", err)
	}
	t.Cleanup(func() { _ = et.Close() })
	return et, dir
}

func TestExifTool_TimeoutExcludesQueueing(t *testing.T) {
	// Four requests of 0.4s each queue for 1.6s in total; each one alone
	// fits comfortably in its 1s budget.
	et, dir := startSlowExifTool(t, "0.4")
	et.Timeout = time.Second

	const workers = 4
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tags, err := et.Lookup(context.Background(), filepath.Join(dir, fmt.Sprintf("f%d.jpg", i)))
			if err == nil && len(tags) == 0 {
				err = errors.New("no tags")
			}
			errs[i] = err
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("lookup %d: %v", i, err)
		}
	}
}

func TestExifTool_TimeoutRestartsProcess(t *testing.T) {
	et, dir := startSlowExifTool(t, "0.4")
	et.Timeout = 50 * time.Millisecond

	if _, err := et.Lookup(context.Background(), filepath.Join(dir, "a.jpg")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("slow lookup error = %v, want context.DeadlineExceeded", err)
	}

	et.Timeout = 5 * time.Second
	tags, err := et.Lookup(context.Background(), filepath.Join(dir, "b.jpg"))
	if err != nil || len(tags) == 0 {
		t.Errorf("lookup after restart = %v, %v", tags, err)
	}
}

func TestExifTool_CancelledBeforeRequest(t *testing.T) {
	et, dir := startSlowExifTool(t, "0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := et.Lookup(ctx, filepath.Join(dir, "a.jpg")); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled lookup error = %v, want context.Canceled", err)
	}

	et.mu.Lock()
	alive := et.cmd != nil
	et.mu.Unlock()
	if !alive {
		t.Error("a request cancelled before it was sent must not stop exiftool")
	}
}
