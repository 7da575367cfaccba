package faces

import (
	"context"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"faceharvest/pkg/errors"
)

const (
	pigoShiftFactor = 0.1
	pigoIoU         = 0.2
	// clustered detection quality contributed by each raw neighbour
	pigoQualityPerNeighbor = 2.5
)

// PigoDetector runs a pixel-intensity-comparison cascade loaded from disk
type PigoDetector struct {
	classifier *pigo.Pigo
	params     Params
	minQuality float32
}

// NewPigoDetector loads the cascade at path. A missing file is a
// NotFoundError; a file that is not a cascade is an ExtractionError.
func NewPigoDetector(path string, params Params) (*PigoDetector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(path, "cascade file does not exist")
		}
		return nil, errors.Extraction(path, "failed to read cascade file", err)
	}

	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, errors.Extraction(path, "failed to unpack cascade file", err)
	}

	return &PigoDetector{
		classifier: classifier,
		params:     params,
		minQuality: float32(params.MinNeighbors) * pigoQualityPerNeighbor,
	}, nil
}

// Detect implements Detector
func (d *PigoDetector) Detect(ctx context.Context, img *image.Gray) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	rows, cols := b.Dy(), b.Dx()
	maxSize := rows
	if cols < maxSize {
		maxSize = cols
	}
	if maxSize < d.params.MinSize {
		return nil, nil
	}

	cp := pigo.CascadeParams{
		MinSize:     d.params.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: pigoShiftFactor,
		ScaleFactor: d.params.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: packedPixels(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	raw := d.classifier.RunCascade(cp, 0.0)
	raw = d.classifier.ClusterDetections(raw, pigoIoU)

	dets := make([]Detection, 0, len(raw))
	for _, r := range raw {
		if r.Q < d.minQuality {
			continue
		}
		dets = append(dets, Detection{
			X:      b.Min.X + r.Col - r.Scale/2,
			Y:      b.Min.Y + r.Row - r.Scale/2,
			Width:  r.Scale,
			Height: r.Scale,
		})
	}

	return clip(dets, b), nil
}

// packedPixels returns the image's pixels as rows*cols bytes with no padding
func packedPixels(img *image.Gray) []uint8 {
	b := img.Bounds()
	cols := b.Dx()
	if img.Stride == cols {
		return img.Pix[:cols*b.Dy()]
	}

	out := make([]uint8, 0, cols*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := img.PixOffset(b.Min.X, y)
		out = append(out, img.Pix[start:start+cols]...)
	}
	return out
}
