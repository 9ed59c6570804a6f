package aerialqc

import "github.com/corona10/goimagehash"

// Measurement is the fixed-shape record produced for one image.
// It is built once by the Extractor and never modified afterwards.
type Measurement struct {
	Path string

	Width           int
	Height          int
	DigitalZoom     float64 // 1.0 = no digital zoom
	FocalLength35mm float64 // label only, never gated
	ISO             int

	BlurScore  float64 // Laplacian variance, higher = sharper
	Brightness float64 // mean intensity, 0-255

	// DistanceMeters is meaningful only when HasDistance is true.
	// An absent distance skips the distance check; it never fails it.
	DistanceMeters float64
	HasDistance    bool

	SpeedMps           float64 // magnitude of the flight speed vector
	GimbalPitchDegrees float64 // informational

	MetadataError string // non-fatal
	LoadError     string // fatal for the verdict

	Hash *goimagehash.ImageHash // nil when the image could not be hashed
}

// defaultMeasurement returns a record with every metadata-derived field at its default.
func defaultMeasurement(path string) Measurement {
	return Measurement{
		Path:        path,
		DigitalZoom: 1.0,
	}
}
