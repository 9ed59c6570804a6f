package aerialqc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/corona10/goimagehash"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrImageLoad is wrapped by every visual analysis failure.
var ErrImageLoad = errors.New("could not load image (corrupt?)")

// PixelAnalyzer decodes an image, converts it to 8-bit grayscale and measures
// sharpness (Laplacian variance) and mean brightness. It is safe for
// concurrent use.
//
// DNG files go through the TIFF decoder, which reads only the first IFD.
// That is usually the embedded preview, so a DNG is either measured at
// preview size or fails to decode when the preview is JPEG-compressed.
type PixelAnalyzer struct {
	// SkipHash disables perceptual hashing when no near-duplicate filtering is needed.
	SkipHash bool
}

// Analyze implements VisualAnalyzer.
func (p *PixelAnalyzer) Analyze(ctx context.Context, path string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrImageLoad, err)
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrImageLoad, err)
	}

	gray := Grayscale(img)
	if gray.Bounds().Empty() {
		return Analysis{}, fmt.Errorf("%w: empty image", ErrImageLoad)
	}

	a := Analysis{
		Sharpness:  LaplacianVariance(gray),
		Brightness: MeanIntensity(gray),
	}
	if !p.SkipHash {
		// Graceful degradation: an unhashable image is still graded.
		if h, err := goimagehash.DifferenceHash(gray); err == nil {
			a.Hash = h
		}
	}
	return a, nil
}

// Grayscale converts img to a single-channel 8-bit image using ITU-R 601 luma
// weights. An *image.Gray input is returned as is.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	return gray
}

// LaplacianVariance returns the population variance of the image convolved
// with the 4-neighbour Laplacian kernel
//
//	0  1  0
//	1 -4  1
//	0  1  0
//
// Borders are reflected without repeating the edge pixel (reflect-101).
// Low values indicate a blurry image.
func LaplacianVariance(g *image.Gray) float64 {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	at := func(x, y int) float64 {
		return float64(g.Pix[reflect101(y, h)*g.Stride+reflect101(x, w)])
	}

	var sum, sumSq float64
	for y := 0; y < h; y++ {
		row := y * g.Stride
		for x := 0; x < w; x++ {
			var lap float64
			if x > 0 && y > 0 && x < w-1 && y < h-1 {
				i := row + x
				lap = float64(g.Pix[i-g.Stride]) + float64(g.Pix[i+g.Stride]) +
					float64(g.Pix[i-1]) + float64(g.Pix[i+1]) - 4*float64(g.Pix[i])
			} else {
				lap = at(x, y-1) + at(x, y+1) + at(x-1, y) + at(x+1, y) - 4*at(x, y)
			}
			sum += lap
			sumSq += lap * lap
		}
	}

	n := float64(w * h)
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		return 0
	}
	return variance
}

// MeanIntensity returns the average sample value (0-255).
func MeanIntensity(g *image.Gray) float64 {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for _, v := range row {
			sum += uint64(v)
		}
	}
	return float64(sum) / float64(w*h)
}

// reflect101 maps an out-of-range index back into [0, n) by mirroring around
// the edge pixel, e.g. -1 → 1 and n → n-2.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}
