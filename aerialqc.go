// Package aerialqc grades aerial and drone photographs for downstream
// processing such as photogrammetry. Each image is measured (camera metadata
// plus a grayscale pixel analysis), the measurement is evaluated against a set
// of [Thresholds], and the resulting [Verdict] decides whether the file is
// sorted into the accepted or the rejected directory.
package aerialqc

import (
	"context"

	"github.com/corona10/goimagehash"
	"go.uber.org/zap"
)

// Default output locations, relative to the directory being sorted.
const (
	DefaultGoodDir  = "_GOOD_IMAGES"
	DefaultBadDir   = "_BAD_IMAGES"
	DefaultAuditLog = "sorting_log.txt"
)

// DefaultWorkers is the number of files measured in parallel by the sorter.
const DefaultWorkers = 4

// Tags is a flat mapping of group-qualified tag names (e.g. "EXIF:ISO",
// "XMP:LRFTargetDistance") to raw values as reported by a metadata source.
// Values are whatever the source produced: numbers, strings, rationals or lists.
type Tags map[string]any

// MetadataSource abstracts metadata extraction (native decoder, exiftool, etc.)
// A source returns an empty Tags and a nil error when the file carries no
// metadata. Unknown tags are simply absent.
type MetadataSource interface {
	Lookup(ctx context.Context, path string) (Tags, error)
	Close() error
}

// Analysis holds the scalar outputs of a grayscale pixel analysis.
type Analysis struct {
	Sharpness  float64                 // Laplacian variance
	Brightness float64                 // mean intensity, 0-255
	Hash       *goimagehash.ImageHash // difference hash, nil if hashing failed
}

// VisualAnalyzer abstracts loading an image and measuring it.
type VisualAnalyzer interface {
	Analyze(ctx context.Context, path string) (Analysis, error)
}

// Config holds all dependencies injected by the consumer.
type Config struct {
	Metadata MetadataSource // default: NativeSource
	Visual   VisualAnalyzer // default: PixelAnalyzer
	Logger   *zap.Logger    // nil = no logging

	// Thresholds is used as given unless every bound is zero: the zero
	// value means "unset" and is replaced by DefaultThresholds(). To gate
	// with all-zero bounds, call Evaluate directly.
	Thresholds Thresholds

	GoodDir   string // default: <base>/_GOOD_IMAGES
	BadDir    string // default: <base>/_BAD_IMAGES
	Recursive bool   // descend into subdirectories (destination dirs are always skipped)
	DryRun    bool   // evaluate and log, but leave files in place
	Workers   int    // default: DefaultWorkers
	Dedup     bool   // reject near-duplicates of already accepted images

	// Optional callbacks for progress reporting.
	OnStart  func(total int)
	OnResult func(FileResult)
}

// defaults fills zero-value fields with sensible defaults.
func (c *Config) defaults() {
	if c.Metadata == nil {
		c.Metadata = &NativeSource{}
	}
	if c.Visual == nil {
		c.Visual = &PixelAnalyzer{}
	}
	if c.Thresholds == (Thresholds{}) {
		c.Thresholds = DefaultThresholds()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
}

// extractor builds the Extractor for this configuration.
func (c *Config) extractor() *Extractor {
	c.defaults()
	return &Extractor{Metadata: c.Metadata, Visual: c.Visual, Logger: c.Logger}
}
