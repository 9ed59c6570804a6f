package aerialqc

// Default quality thresholds.
const (
	DefaultMinWidth          = 3000
	DefaultMinHeight         = 2000
	DefaultMaxDigitalZoom    = 1.0
	DefaultMaxISO            = 1600
	DefaultMinBlurScore      = 100.0 // Laplacian variance; higher is stricter
	DefaultMinDistanceMeters = 20.0  // LRF target distance
	DefaultMaxSpeedMps       = 5.0
	DefaultMinBrightness     = 20.0  // 0-255, avoids pitch black frames
	DefaultMaxBrightness     = 240.0 // 0-255, avoids blown out frames
)

// Thresholds holds the quality bounds an image must satisfy to be accepted.
// Each bound is independent of the others. A Thresholds value is passed to
// every [Evaluate] call and is never modified by it.
type Thresholds struct {
	MinWidth          int     `yaml:"min_width" env:"MIN_WIDTH"`
	MinHeight         int     `yaml:"min_height" env:"MIN_HEIGHT"`
	MaxDigitalZoom    float64 `yaml:"max_digital_zoom" env:"MAX_DIGITAL_ZOOM"`
	MaxISO            int     `yaml:"max_iso" env:"MAX_ISO"`
	MinBlurScore      float64 `yaml:"min_blur_score" env:"MIN_BLUR_SCORE"`
	MinDistanceMeters float64 `yaml:"min_distance_meters" env:"MIN_DISTANCE_METERS"`
	MaxSpeedMps       float64 `yaml:"max_speed_mps" env:"MAX_SPEED_MPS"`
	MinBrightness     float64 `yaml:"min_brightness" env:"MIN_BRIGHTNESS"`
	MaxBrightness     float64 `yaml:"max_brightness" env:"MAX_BRIGHTNESS"`
}

// DefaultThresholds returns the documented default bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinWidth:          DefaultMinWidth,
		MinHeight:         DefaultMinHeight,
		MaxDigitalZoom:    DefaultMaxDigitalZoom,
		MaxISO:            DefaultMaxISO,
		MinBlurScore:      DefaultMinBlurScore,
		MinDistanceMeters: DefaultMinDistanceMeters,
		MaxSpeedMps:       DefaultMaxSpeedMps,
		MinBrightness:     DefaultMinBrightness,
		MaxBrightness:     DefaultMaxBrightness,
	}
}
