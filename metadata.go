package aerialqc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/bep/imagemeta"
)

// NativeSource reads EXIF and XMP metadata in-process with bep/imagemeta.
// Keys are reported as "EXIF:<Tag>" and "XMP:<Tag>"; header dimensions are
// reported as "File:ImageWidth" / "File:ImageHeight", mirroring exiftool -G.
// It holds no state and is safe for concurrent use.
type NativeSource struct{}

// wantedTags maps (source, tag-name) → true for every tag the extractor reads.
var wantedTags = buildWantedTags()

func buildWantedTags() map[imagemeta.Source]map[string]bool {
	wanted := map[imagemeta.Source]map[string]bool{
		imagemeta.EXIF: {},
		imagemeta.XMP:  {},
	}
	keys := []string{TagLRFDistance, TagFlightSpeed, TagFlightXSpeed, TagFlightYSpeed, TagFlightZSpeed}
	for _, r := range fieldRules {
		keys = append(keys, r.Keys...)
	}
	for _, k := range keys {
		group, name, ok := strings.Cut(k, ":")
		if !ok {
			continue
		}
		switch group {
		case "EXIF":
			wanted[imagemeta.EXIF][name] = true
		case "XMP":
			wanted[imagemeta.XMP][name] = true
		}
	}
	return wanted
}

// imageFormats maps lowercased file extensions to imagemeta formats.
var imageFormats = map[string]imagemeta.ImageFormat{
	".jpg":  imagemeta.JPEG,
	".jpeg": imagemeta.JPEG,
	".png":  imagemeta.PNG,
	".tif":  imagemeta.TIFF,
	".tiff": imagemeta.TIFF,
	".dng":  imagemeta.TIFF,
	".webp": imagemeta.WebP,
}

// Lookup implements MetadataSource.
func (s *NativeSource) Lookup(ctx context.Context, path string) (Tags, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return ExtractTags(data, imageFormats[strings.ToLower(filepath.Ext(path))])
}

// Close implements MetadataSource.
func (s *NativeSource) Close() error { return nil }

// ExtractTags parses EXIF/XMP metadata from raw image bytes.
// Returns an empty Tags (not an error) when the data carries no metadata.
// A decode error is returned only when nothing at all could be read.
func ExtractTags(data []byte, format imagemeta.ImageFormat) (Tags, error) {
	tags := Tags{}
	if len(data) == 0 {
		return tags, nil
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		tags[TagFileImageWidth] = cfg.Width
		tags[TagFileImageHeight] = cfg.Height
	}

	_, err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: format,
		Sources:     imagemeta.EXIF | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			if names, ok := wantedTags[ti.Source]; ok {
				return names[ti.Tag]
			}
			return false
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			switch ti.Source {
			case imagemeta.EXIF:
				tags["EXIF:"+ti.Tag] = ti.Value
			case imagemeta.XMP:
				tags["XMP:"+ti.Tag] = ti.Value
			}
			return nil
		},
	})
	if err != nil && len(tags) == 0 {
		return tags, fmt.Errorf("decode metadata: %w", err)
	}

	return tags, nil
}
