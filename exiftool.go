package aerialqc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// ErrExifToolNotFound is returned when no exiftool executable can be located.
var ErrExifToolNotFound = errors.New("exiftool executable not found")

// exiftoolArgs are sent with every request: JSON output, group-qualified
// tag names, numeric values.
var exiftoolArgs = []string{"-json", "-G", "-n"}

// ExifTool is a MetadataSource backed by one long-lived exiftool process
// running in -stay_open mode. Requests are serialized; the process is
// restarted lazily if a request is cancelled or times out.
type ExifTool struct {
	// Timeout bounds a single request once it holds the process. Time spent
	// waiting behind other requests does not count. Zero means no limit.
	Timeout time.Duration

	path   string
	env    []string
	logger *zap.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	seq    int
}

// LocateExifTool finds the exiftool executable. The configured path wins;
// otherwise an executable next to the running binary, then $PATH.
func LocateExifTool(configured string) (string, error) {
	if configured != "" {
		if info, err := os.Stat(configured); err == nil && !info.IsDir() {
			return configured, nil
		}
		return "", fmt.Errorf("%w: %s", ErrExifToolNotFound, configured)
	}

	name := "exiftool"
	if runtime.GOOS == "windows" {
		name = "exiftool.exe"
	}
	if exe, err := os.Executable(); err == nil {
		local := filepath.Join(filepath.Dir(exe), name)
		if info, err := os.Stat(local); err == nil && !info.IsDir() {
			return local, nil
		}
	}
	if p, err := exec.LookPath("exiftool"); err == nil {
		return p, nil
	}
	return "", ErrExifToolNotFound
}

// NewExifTool locates and starts exiftool. Failure to find or start it is
// fatal for a run and is reported before any file is processed.
func NewExifTool(configured string, logger *zap.Logger) (*ExifTool, error) {
	path, err := LocateExifTool(configured)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	et := &ExifTool{path: path, logger: logger}
	// Bundled Windows builds ship their Perl libraries beside the executable.
	if lib := filepath.Join(filepath.Dir(path), "exiftool_files", "lib"); dirExists(lib) {
		et.env = append(os.Environ(), "PERL5LIB="+lib)
	}

	et.mu.Lock()
	defer et.mu.Unlock()
	if err := et.start(); err != nil {
		return nil, err
	}
	logger.Info("aerialqc: exiftool started", zap.String("path", path))
	return et, nil
}

// Path returns the executable in use.
func (e *ExifTool) Path() string { return e.path }

func (e *ExifTool) start() error {
	cmd := exec.Command(e.path, "-stay_open", "True", "-@", "-") //nolint:gosec // path located by LocateExifTool
	cmd.Dir = filepath.Dir(e.path)
	cmd.Env = e.env
	cmd.Stderr = io.Discard

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("exiftool stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("exiftool stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start exiftool: %w", err)
	}

	e.cmd, e.stdin, e.stdout = cmd, stdin, bufio.NewReader(stdout)
	return nil
}

type exiftoolReply struct {
	out []byte
	err error
}

// Lookup implements MetadataSource.
func (e *ExifTool) Lookup(ctx context.Context, path string) (Tags, error) {
	if strings.ContainsAny(path, "\r\n") {
		return nil, fmt.Errorf("exiftool: unsupported file name %q", path)
	}
	// The process runs in its own directory.
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	if e.cmd == nil {
		if err := e.start(); err != nil {
			return nil, err
		}
	}

	e.seq++
	seq := e.seq
	var req strings.Builder
	for _, a := range exiftoolArgs {
		req.WriteString(a + "\n")
	}
	req.WriteString(abs + "\n-execute" + strconv.Itoa(seq) + "\n")
	if _, err := io.WriteString(e.stdin, req.String()); err != nil {
		e.kill()
		return nil, fmt.Errorf("exiftool write: %w", err)
	}

	replies := make(chan exiftoolReply, 1)
	go func() {
		out, err := readUntilReady(e.stdout, seq)
		replies <- exiftoolReply{out: out, err: err}
	}()

	select {
	case r := <-replies:
		if r.err != nil {
			e.kill()
			return nil, r.err
		}
		return ParseExifToolJSON(r.out)
	case <-ctx.Done():
		// Unblock the reader before reaping the process.
		_ = e.cmd.Process.Kill()
		<-replies
		e.kill()
		return nil, ctx.Err()
	}
}

// readUntilReady collects output lines until the "{ready<seq>}" marker.
func readUntilReady(r *bufio.Reader, seq int) ([]byte, error) {
	marker := "{ready" + strconv.Itoa(seq) + "}"
	var buf bytes.Buffer
	for {
		line, err := r.ReadString('\n')
		if strings.TrimSpace(line) == marker {
			return buf.Bytes(), nil
		}
		buf.WriteString(line)
		if err != nil {
			return nil, fmt.Errorf("exiftool exited: %w", err)
		}
	}
}

// ParseExifToolJSON decodes `exiftool -json -G` output for a single file.
// Empty output (exiftool reported an error on stderr) yields empty Tags.
func ParseExifToolJSON(out []byte) (Tags, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return Tags{}, nil
	}
	var records []map[string]any
	if err := sonic.Unmarshal(out, &records); err != nil {
		return nil, fmt.Errorf("decode exiftool output: %w", err)
	}
	if len(records) == 0 {
		return Tags{}, nil
	}
	tags := make(Tags, len(records[0]))
	for k, v := range records[0] {
		if k == "SourceFile" {
			continue
		}
		tags[k] = v
	}
	return tags, nil
}

// kill stops the process; the next Lookup starts a fresh one. Caller holds mu.
func (e *ExifTool) kill() {
	if e.cmd == nil {
		return
	}
	_ = e.stdin.Close()
	if e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
	_ = e.cmd.Wait()
	e.logger.Warn("aerialqc: exiftool process killed", zap.String("path", e.path))
	e.cmd, e.stdin, e.stdout = nil, nil, nil
}

// Close asks exiftool to exit and waits for it.
func (e *ExifTool) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil {
		return nil
	}
	_, werr := io.WriteString(e.stdin, "-stay_open\nFalse\n")
	_ = e.stdin.Close()
	err := e.cmd.Wait()
	e.cmd, e.stdin, e.stdout = nil, nil, nil
	if werr != nil {
		return fmt.Errorf("stop exiftool: %w", werr)
	}
	if err != nil {
		return fmt.Errorf("stop exiftool: %w", err)
	}
	return nil
}

func dirExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
