package faces

import (
	"context"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fherrors "faceharvest/pkg/errors"
)

func TestNewPigoDetectorMissingCascade(t *testing.T) {
	_, err := NewPigoDetector(filepath.Join(t.TempDir(), "facefinder"), DefaultParams())
	require.Error(t, err)
	assert.True(t, fherrors.IsType(err, fherrors.ErrorTypeNotFound))
}

func TestPigoDetectorSkipsImagesBelowMinSize(t *testing.T) {
	d := &PigoDetector{params: DefaultParams()}

	dets, err := d.Detect(context.Background(), image.NewGray(image.Rect(0, 0, 40, 200)))
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestPigoQualityThreshold(t *testing.T) {
	p := DefaultParams()
	d := &PigoDetector{params: p, minQuality: float32(p.MinNeighbors) * pigoQualityPerNeighbor}
	assert.Equal(t, float32(5), d.minQuality)
}

func TestPackedPixels(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 3))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}

	assert.Equal(t, img.Pix, packedPixels(img))

	sub := img.SubImage(image.Rect(1, 1, 3, 3)).(*image.Gray)
	assert.Equal(t, []uint8{5, 6, 9, 10}, packedPixels(sub))
}

func TestClip(t *testing.T) {
	bounds := image.Rect(0, 0, 20, 20)
	got := clip([]Detection{
		{X: -5, Y: -5, Width: 10, Height: 10},
		{X: 25, Y: 0, Width: 5, Height: 5},
		{X: 2, Y: 3, Width: 4, Height: 5},
	}, bounds)

	assert.Equal(t, []Detection{
		{X: 0, Y: 0, Width: 5, Height: 5},
		{X: 2, Y: 3, Width: 4, Height: 5},
	}, got)
}
