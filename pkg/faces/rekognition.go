package faces

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"faceharvest/pkg/errors"
)

// RekognitionAPI is the part of the Rekognition client the detector needs
type RekognitionAPI interface {
	DetectFaces(
		ctx context.Context,
		params *rekognition.DetectFacesInput,
		optFns ...func(*rekognition.Options),
	) (*rekognition.DetectFacesOutput, error)
}

// NewRekognitionClient builds a client from the default AWS credential chain
func NewRekognitionClient(ctx context.Context, region string) (*rekognition.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.NotFound("aws", "failed to load AWS configuration: "+err.Error())
	}
	return rekognition.NewFromConfig(cfg), nil
}

// RekognitionDetector delegates detection to AWS Rekognition DetectFaces
type RekognitionDetector struct {
	client        RekognitionAPI
	minConfidence float32
	minSize       int
}

// NewRekognitionDetector wraps client. Faces below minConfidence percent or
// with an edge shorter than minSize pixels are discarded.
func NewRekognitionDetector(client RekognitionAPI, minConfidence float64, minSize int) *RekognitionDetector {
	return &RekognitionDetector{
		client:        client,
		minConfidence: float32(minConfidence),
		minSize:       minSize,
	}
}

// Detect implements Detector. The grayscale image is sent as JPEG bytes and
// the ratio boxes in the response are scaled back to pixels.
func (d *RekognitionDetector) Detect(ctx context.Context, img *image.Gray) ([]Detection, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, errors.Extraction("", "failed to encode image for rekognition", err)
	}

	out, err := d.client.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{Bytes: buf.Bytes()},
	})
	if err != nil {
		return nil, errors.Extraction("", "rekognition DetectFaces failed", err)
	}

	b := img.Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())

	dets := make([]Detection, 0, len(out.FaceDetails))
	for _, fd := range out.FaceDetails {
		if fd.BoundingBox == nil || aws.ToFloat32(fd.Confidence) < d.minConfidence {
			continue
		}
		box := fd.BoundingBox
		det := Detection{
			X:      b.Min.X + int(aws.ToFloat32(box.Left)*w),
			Y:      b.Min.Y + int(aws.ToFloat32(box.Top)*h),
			Width:  int(aws.ToFloat32(box.Width) * w),
			Height: int(aws.ToFloat32(box.Height) * h),
		}
		if det.Width < d.minSize || det.Height < d.minSize {
			continue
		}
		dets = append(dets, det)
	}

	return clip(dets, b), nil
}
