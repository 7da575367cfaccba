package faces

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"

	"faceharvest/pkg/errors"
	"faceharvest/pkg/logger"
	"faceharvest/pkg/storage"
)

const jpegQuality = 95

// FaceArtifact is one cropped face written to disk
type FaceArtifact struct {
	Source string    `json:"source"`
	Index  int       `json:"index"`
	Path   string    `json:"path"`
	Box    Detection `json:"box"`
}

// Extractor crops every detected face out of an image
type Extractor struct {
	detector Detector
	logger   logger.Logger
}

// NewExtractor creates an extractor that owns detector for its lifetime
func NewExtractor(detector Detector, log logger.Logger) *Extractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Extractor{detector: detector, logger: log}
}

// Extract writes one JPEG per face found in imagePath and returns how many
// were written. Crop i goes to <dir>/<stem>_<i>.jpg where dir and stem come
// from outputTemplate; the template's own extension is ignored. An image
// with no faces writes nothing and is not an error.
func (e *Extractor) Extract(ctx context.Context, imagePath, outputTemplate string) (int, error) {
	artifacts, err := e.ExtractArtifacts(ctx, imagePath, outputTemplate)
	return len(artifacts), err
}

// ExtractArtifacts is Extract returning the artifacts written. On a write
// failure the artifacts already written are returned with the error.
func (e *Extractor) ExtractArtifacts(ctx context.Context, imagePath, outputTemplate string) ([]FaceArtifact, error) {
	src, err := loadImage(imagePath)
	if err != nil {
		return nil, err
	}

	dets, err := e.detector.Detect(ctx, toGray(src))
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeExtraction) {
			return nil, err
		}
		return nil, errors.Extraction(imagePath, "face detection failed", err)
	}
	dets = clip(dets, src.Bounds())

	log := e.logger.WithField("image", imagePath)
	if len(dets) == 0 {
		log.Debug("No faces detected")
		return nil, nil
	}

	dir := filepath.Dir(outputTemplate)
	stem := stemOf(outputTemplate)

	artifacts := make([]FaceArtifact, 0, len(dets))
	for i, det := range dets {
		if err := ctx.Err(); err != nil {
			return artifacts, err
		}

		path := filepath.Join(dir, fmt.Sprintf("%s_%d.jpg", stem, i))
		if err := writeJPEG(crop(src, det.Rect()), path); err != nil {
			return artifacts, errors.Extraction(imagePath, "failed to write face crop "+path, err)
		}

		artifacts = append(artifacts, FaceArtifact{
			Source: imagePath,
			Index:  i,
			Path:   path,
			Box:    det,
		})
	}

	log.DebugWithFields("Faces extracted", map[string]interface{}{
		"count": len(artifacts),
	})

	return artifacts, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Extraction(path, "failed to open image", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Extraction(path, "failed to decode image", err)
	}
	return img, nil
}

func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	b := src.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, src, b.Min, draw.Src)
	return gray
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func crop(src image.Image, r image.Rectangle) image.Image {
	if s, ok := src.(subImager); ok {
		return s.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}

func writeJPEG(img image.Image, path string) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return err
	}
	return storage.WriteFile(&buf, path)
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
