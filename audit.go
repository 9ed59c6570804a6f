package aerialqc

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditTimeLayout is the timestamp prefix of every audit line.
const AuditTimeLayout = "2006-01-02 15:04:05,000"

// AuditLine formats the audit message for one file, without the timestamp:
//
//	DJI_0001.JPG [ACCEPTED] -> Lens: Wide (24mm) | DigZoom: ...
//	DJI_0002.JPG [REJECTED] -> Reasons: High ISO (3200) || Lens: ...
func AuditLine(name string, v Verdict) string {
	if v.Accepted {
		return name + " [ACCEPTED] -> " + v.Diagnostic
	}
	return name + " [REJECTED] -> Reasons: " + strings.Join(v.Reasons, ", ") + " || " + v.Diagnostic
}

// AuditLog appends timestamped "<time> - <message>" lines to a writer.
type AuditLog struct {
	logger *zap.Logger
	closer io.Closer
}

// NewAuditLog writes audit lines to w.
func NewAuditLog(w io.Writer) *AuditLog {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "ts",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(AuditTimeLayout),
		ConsoleSeparator: " - ",
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zapcore.InfoLevel)
	return &AuditLog{logger: zap.New(core)}
}

// OpenAuditLog opens (or creates) the audit file at path in append mode.
func OpenAuditLog(path string) (*AuditLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:mnd,gosec // plain text log
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	a := NewAuditLog(f)
	a.closer = f
	return a, nil
}

// Record appends the audit line for one evaluated file.
func (a *AuditLog) Record(name string, v Verdict) {
	if a == nil {
		return
	}
	a.logger.Info(AuditLine(name, v))
}

// Note appends a free-form line (run start, move failures, critical errors).
func (a *AuditLog) Note(msg string) {
	if a == nil {
		return
	}
	a.logger.Info(msg)
}

// Close flushes and closes the underlying file, if any.
func (a *AuditLog) Close() error {
	if a == nil {
		return nil
	}
	_ = a.logger.Sync()
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
