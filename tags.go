package aerialqc

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Tag names, group-qualified the way exiftool -G reports them.
const (
	TagExifImageWidth   = "EXIF:ExifImageWidth"
	TagExifImageHeight  = "EXIF:ExifImageHeight"
	TagPixelXDimension  = "EXIF:PixelXDimension"
	TagPixelYDimension  = "EXIF:PixelYDimension"
	TagFileImageWidth   = "File:ImageWidth"
	TagFileImageHeight  = "File:ImageHeight"
	TagEXIFImageWidth   = "EXIF:ImageWidth"
	TagEXIFImageHeight  = "EXIF:ImageHeight"
	TagImageWidth       = "ImageWidth"
	TagImageHeight      = "ImageHeight"
	TagCompositeZoom    = "Composite:DigitalZoomRatio"
	TagEXIFZoom         = "EXIF:DigitalZoomRatio"
	TagISO              = "EXIF:ISO"
	TagCompositeFocal35 = "Composite:FocalLength35efl"
	TagEXIFFocal35      = "EXIF:FocalLengthIn35mmFormat"
	TagLRFDistance      = "XMP:LRFTargetDistance"
	TagFlightSpeed      = "XMP:FlightSpeed"
	TagFlightXSpeed     = "XMP:FlightXSpeed"
	TagFlightYSpeed     = "XMP:FlightYSpeed"
	TagFlightZSpeed     = "XMP:FlightZSpeed"
	TagGimbalPitch      = "XMP:GimbalPitchDegree"
)

// fieldRule normalizes one numeric Measurement field: the first tag in Keys
// holding a non-zero number wins, otherwise Default is kept. Positive rules
// also skip negative values.
type fieldRule struct {
	Field    string
	Keys     []string
	Default  float64
	Positive bool
	set      func(m *Measurement, v float64)
}

// fieldRules is evaluated once per image, in order. Distance and speed need
// presence tracking and vector parsing and are handled separately.
var fieldRules = []fieldRule{
	{
		Field:    "width",
		Keys:     []string{TagExifImageWidth, TagPixelXDimension, TagFileImageWidth, TagEXIFImageWidth, TagImageWidth},
		Default:  0,
		Positive: true,
		set:      func(m *Measurement, v float64) { m.Width = int(v) },
	},
	{
		Field:    "height",
		Keys:     []string{TagExifImageHeight, TagPixelYDimension, TagFileImageHeight, TagEXIFImageHeight, TagImageHeight},
		Default:  0,
		Positive: true,
		set:      func(m *Measurement, v float64) { m.Height = int(v) },
	},
	{
		Field:   "digital_zoom",
		Keys:    []string{TagCompositeZoom, TagEXIFZoom},
		Default: 1.0,
		set:     func(m *Measurement, v float64) { m.DigitalZoom = v },
	},
	{
		Field:    "iso",
		Keys:     []string{TagISO},
		Default:  0,
		Positive: true,
		set:      func(m *Measurement, v float64) { m.ISO = int(v) },
	},
	{
		Field:   "focal_length_35mm",
		Keys:    []string{TagCompositeFocal35, TagEXIFFocal35},
		Default: 0,
		set:     func(m *Measurement, v float64) { m.FocalLength35mm = v },
	},
	{
		Field:   "gimbal_pitch",
		Keys:    []string{TagGimbalPitch},
		Default: 0,
		set:     func(m *Measurement, v float64) { m.GimbalPitchDegrees = v },
	},
}

// resolve returns the value of the first key with a usable non-zero number.
func (r fieldRule) resolve(tags Tags) float64 {
	for _, k := range r.Keys {
		f, ok := tagFloat(tags[k])
		if !ok || f == 0 || (r.Positive && f < 0) {
			continue
		}
		return f
	}
	return r.Default
}

// floater is implemented by rational types of metadata decoders.
type floater interface {
	Float64() float64
}

// tagFloat coerces a raw tag value to a finite float64.
// Strings may carry a leading '+' (DJI XMP) or be a "num/den" fraction.
// Lists yield their first element.
func tagFloat(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int8:
		f = float64(val)
	case int16:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case uint:
		f = float64(val)
	case uint8:
		f = float64(val)
	case uint16:
		f = float64(val)
	case uint32:
		f = float64(val)
	case uint64:
		f = float64(val)
	case *big.Rat:
		if val == nil {
			return 0, false
		}
		f, _ = val.Float64()
	case floater:
		f = val.Float64()
	case string:
		return parseFloatString(val)
	case []any:
		if len(val) == 0 {
			return 0, false
		}
		return tagFloat(val[0])
	case []string:
		if len(val) == 0 {
			return 0, false
		}
		return parseFloatString(val[0])
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseFloatString(s string) (float64, bool) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, ok1 := parsePlainFloat(num)
		d, ok2 := parsePlainFloat(den)
		if !ok1 || !ok2 || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	return parsePlainFloat(s)
}

// parsePlainFloat parses a single finite decimal number, allowing
// surrounding spaces and a leading '+'.
func parsePlainFloat(s string) (float64, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// tagString extracts a string from a tag value.
// XMP values may be string or []string (from altList/seqList); numbers are
// formatted without loss.
func tagString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
		return ""
	case []any:
		if len(val) > 0 {
			return tagString(val[0])
		}
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		if f, ok := tagFloat(val); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return fmt.Sprint(val)
	}
}

// flightSpeedString returns the "x,y,z" speed vector. DJI writes the three
// components as separate XMP tags; they are joined when no combined tag exists.
func flightSpeedString(tags Tags) string {
	if s := tagString(tags[TagFlightSpeed]); s != "" {
		return s
	}
	x, okX := tags[TagFlightXSpeed]
	y, okY := tags[TagFlightYSpeed]
	z, okZ := tags[TagFlightZSpeed]
	if !okX || !okY || !okZ {
		return ""
	}
	return tagString(x) + "," + tagString(y) + "," + tagString(z)
}

// parseSpeed returns the Euclidean magnitude of a comma-delimited 3-component
// vector. Fewer than three components or any unparsable component yields 0.
func parseSpeed(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	parts := strings.Split(s, ",")
	vals := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, ok := parsePlainFloat(p)
		if !ok {
			return 0
		}
		vals = append(vals, f)
	}
	if len(vals) < 3 { //nolint:mnd // x,y,z
		return 0
	}
	return math.Sqrt(vals[0]*vals[0] + vals[1]*vals[1] + vals[2]*vals[2])
}

// parseDistance returns the LRF distance and whether it was present and parsable.
func parseDistance(tags Tags) (float64, bool) {
	raw, ok := tags[TagLRFDistance]
	if !ok {
		return 0, false
	}
	return tagFloat(raw)
}
