// Package faces finds faces in images and writes each one as a JPEG crop.
//
// A Detector is constructed once and handed to NewExtractor, which owns it
// for the rest of the run. Two detectors are provided: PigoDetector, which
// runs a pico cascade file from disk, and RekognitionDetector, which calls
// the AWS DetectFaces API. Test code substitutes its own Detector.
//
// Extractor handles one image: for the i-th detection it writes
// <stem>_<i>.jpg next to the requested output path, always as JPEG.
// BatchRunner walks a directory of .jpg, .png and .bmp files and runs the
// extractor over each in listing order.
//
//	det, err := faces.NewPigoDetector("asset/facefinder", faces.DefaultParams())
//	if err != nil {
//	    return err
//	}
//	runner := faces.NewBatchRunner(faces.NewExtractor(det, log), log)
//	summary, err := runner.Run(ctx, "data/raw", "data/trimmed")
package faces
