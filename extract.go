package aerialqc

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNoMetadata is recorded when a metadata source returns no tags for a file.
var ErrNoMetadata = errors.New("No Metadata Found") //nolint:staticcheck // shown verbatim in reports

// Extractor turns an image file into a Measurement using a metadata source
// and a visual analyzer. It never returns an error: every failure is
// captured on the Measurement itself.
type Extractor struct {
	Metadata MetadataSource
	Visual   VisualAnalyzer
	Logger   *zap.Logger
}

// NewExtractor returns an Extractor with default collaborators for nil arguments.
func NewExtractor(meta MetadataSource, visual VisualAnalyzer, logger *zap.Logger) *Extractor {
	cfg := Config{Metadata: meta, Visual: visual, Logger: logger}
	return cfg.extractor()
}

// Extract measures the image at path.
func (e *Extractor) Extract(ctx context.Context, path string) Measurement {
	m := defaultMeasurement(path)
	log := e.logger()

	tags, err := e.lookup(ctx, path)
	switch {
	case err != nil:
		m.MetadataError = err.Error()
		log.Debug("aerialqc: metadata lookup failed", zap.String("path", path), zap.Error(err))
	case len(tags) == 0:
		m.MetadataError = ErrNoMetadata.Error()
		log.Debug("aerialqc: no metadata", zap.String("path", path))
	default:
		applyTags(&m, tags)
	}

	a, err := e.analyze(ctx, path)
	if err != nil {
		m.LoadError = err.Error()
		log.Debug("aerialqc: visual analysis failed", zap.String("path", path), zap.Error(err))
		return m
	}
	m.BlurScore = a.Sharpness
	m.Brightness = a.Brightness
	m.Hash = a.Hash

	return m
}

// applyTags fills the metadata-derived fields of m from tags.
func applyTags(m *Measurement, tags Tags) {
	for _, r := range fieldRules {
		r.set(m, r.resolve(tags))
	}
	if d, ok := parseDistance(tags); ok {
		m.DistanceMeters = d
		m.HasDistance = true
	}
	m.SpeedMps = parseSpeed(flightSpeedString(tags))
}

func (e *Extractor) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// lookup calls the metadata source, converting a panic into an error.
func (e *Extractor) lookup(ctx context.Context, path string) (tags Tags, err error) {
	if e.Metadata == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			tags, err = nil, fmt.Errorf("metadata source panic: %v", r)
		}
	}()
	return e.Metadata.Lookup(ctx, path)
}

// analyze calls the visual analyzer, converting a panic into an error.
func (e *Extractor) analyze(ctx context.Context, path string) (a Analysis, err error) {
	if e.Visual == nil {
		return Analysis{}, ErrImageLoad
	}
	defer func() {
		if r := recover(); r != nil {
			a, err = Analysis{}, fmt.Errorf("%w: %v", ErrImageLoad, r)
		}
	}()
	return e.Visual.Analyze(ctx, path)
}
