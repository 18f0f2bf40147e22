// Package imagediff compares two screenshots pixel by pixel using the
// pixelmatch YIQ color distance with anti-aliasing detection.
package imagediff

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/orisano/pixelmatch"
)

// DefaultThreshold is the per-pixel color distance tolerance, in [0,1].
const DefaultThreshold = 0.1

// ErrDimensionMismatch is returned when the images differ in size.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Options tunes a comparison.
type Options struct {
	// Threshold is the per-pixel tolerance; smaller is stricter.
	Threshold float64
	// Fade is the opacity of unchanged pixels in the diff image.
	Fade float64
}

// DefaultOptions returns the options used by the differ.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, Fade: 0.1}
}

// Result holds the outcome of a comparison.
type Result struct {
	DiffPixels  int
	TotalPixels int
	// Diff shows differing pixels in red and anti-aliased ones in yellow
	// over a faded grayscale copy of a.
	Diff image.Image
}

// Mismatch is the share of differing pixels in percent.
func (r *Result) Mismatch() float64 {
	if r.TotalPixels == 0 {
		return 0
	}
	return float64(r.DiffPixels) / float64(r.TotalPixels) * 100
}

// Compare counts the pixels of a and b whose color distance exceeds the
// threshold, ignoring anti-aliased edges. Images of different sizes are
// never compared.
func Compare(a, b image.Image, opts Options) (*Result, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}

	var out image.Image
	n, err := pixelmatch.MatchPixel(a, b,
		pixelmatch.Threshold(opts.Threshold),
		pixelmatch.Alpha(opts.Fade),
		pixelmatch.WriteTo(&out),
	)
	if errors.Is(err, pixelmatch.ErrImageSizesNotMatch) {
		return nil, fmt.Errorf("%w: bounds %v vs %v", ErrDimensionMismatch, ab, bb)
	}
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}
	// Identical images short-circuit without rendering a diff.
	if out == nil {
		out = a
	}
	return &Result{DiffPixels: n, TotalPixels: ab.Dx() * ab.Dy(), Diff: out}, nil
}

// ReadPNG decodes the PNG file at path.
func ReadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
