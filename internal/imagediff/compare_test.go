package imagediff

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

func TestCompare_Identical(t *testing.T) {
	a := solid(10, 10, white)
	res, err := Compare(a, solid(10, 10, white), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, res.DiffPixels)
	assert.Equal(t, 100, res.TotalPixels)
	assert.Equal(t, 0.0, res.Mismatch())
}

func TestCompare_CountsChangedPixels(t *testing.T) {
	a := solid(10, 10, white)
	b := solid(10, 10, white)
	for x := 0; x < 5; x++ {
		b.SetNRGBA(x, 0, color.NRGBA{A: 255})
	}

	res, err := Compare(a, b, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 5, res.DiffPixels)
	assert.InDelta(t, 5.0, res.Mismatch(), 1e-9)
	red := color.RGBA{R: 255, A: 255}
	assert.Equal(t, red, color.RGBAModel.Convert(res.Diff.At(0, 0)))
	assert.NotEqual(t, red, color.RGBAModel.Convert(res.Diff.At(9, 9)))
}

func TestCompare_IdenticalKeepsDiffImage(t *testing.T) {
	a := solid(6, 6, white)
	res, err := Compare(a, solid(6, 6, white), DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, res.Diff)
	assert.Equal(t, a.Bounds(), res.Diff.Bounds())
}

// edge draws a vertical black/white boundary with one transition column.
func edge(transition uint8) *image.NRGBA {
	img := solid(16, 16, white)
	for y := 0; y < 16; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
		img.SetNRGBA(8, y, color.NRGBA{R: transition, G: transition, B: transition, A: 255})
	}
	return img
}

func TestCompare_IgnoresAntiAliasedEdge(t *testing.T) {
	res, err := Compare(edge(255), edge(128), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, res.DiffPixels)
	assert.Equal(t, 256, res.TotalPixels)
}

func TestCompare_BelowThresholdIgnored(t *testing.T) {
	a := solid(4, 4, white)
	b := solid(4, 4, color.NRGBA{R: 253, G: 254, B: 255, A: 255})
	res, err := Compare(a, b, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, res.DiffPixels)
}

func TestCompare_Symmetric(t *testing.T) {
	a := solid(8, 8, white)
	b := solid(8, 8, white)
	for y := 0; y < 8; y += 2 {
		b.SetNRGBA(3, y, color.NRGBA{R: 200, G: 10, B: 40, A: 255})
		a.SetNRGBA(6, y, color.NRGBA{R: 30, G: 30, B: 30, A: 128})
	}

	ab, err := Compare(a, b, DefaultOptions())
	require.NoError(t, err)
	ba, err := Compare(b, a, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, ab.DiffPixels, ba.DiffPixels)
	assert.Equal(t, ab.Mismatch(), ba.Mismatch())
}

func TestCompare_DimensionMismatch(t *testing.T) {
	_, err := Compare(solid(10, 10, white), solid(10, 12, white), DefaultOptions())
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestPNGRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shot.png")
	require.NoError(t, WritePNG(path, solid(3, 2, white)))

	img, err := ReadPNG(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
}
