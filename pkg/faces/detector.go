package faces

import (
	"context"
	"image"
)

// Detection is a face bounding box in source image pixel coordinates
type Detection struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the detection as an image.Rectangle
func (d Detection) Rect() image.Rectangle {
	return image.Rect(d.X, d.Y, d.X+d.Width, d.Y+d.Height)
}

func fromRect(r image.Rectangle) Detection {
	return Detection{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Detector finds faces in a grayscale image. Detections are returned in
// the detector's own order, clipped to the image bounds.
type Detector interface {
	Detect(ctx context.Context, img *image.Gray) ([]Detection, error)
}

// Params are the fixed detector settings shared by every image in a run
type Params struct {
	// ScaleFactor is the step between successive detection window sizes
	ScaleFactor float64
	// MinNeighbors is how many overlapping raw hits a face needs
	MinNeighbors int
	// MinSize is the smallest face edge in pixels
	MinSize int
}

// DefaultParams returns scale 1.2, two neighbours and a 50 pixel minimum
func DefaultParams() Params {
	return Params{ScaleFactor: 1.2, MinNeighbors: 2, MinSize: 50}
}

// clip intersects every detection with bounds and drops empty results
func clip(dets []Detection, bounds image.Rectangle) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		r := d.Rect().Intersect(bounds)
		if r.Empty() {
			continue
		}
		out = append(out, fromRect(r))
	}
	return out
}
