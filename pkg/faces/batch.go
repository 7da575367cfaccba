package faces

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"faceharvest/pkg/config"
	"faceharvest/pkg/errors"
	"faceharvest/pkg/logger"
)

// AllowedExtensions lists the suffixes BatchRunner treats as images.
// Matching ignores case.
var AllowedExtensions = []string{".jpg", ".png", ".bmp"}

// ArtifactRecorder receives every artifact a batch writes
type ArtifactRecorder interface {
	Record(ctx context.Context, runID string, a FaceArtifact) error
}

// Progress is notified once per processed image
type Progress interface {
	Add(n int) error
}

// Summary describes one batch run
type Summary struct {
	RunID     string
	Eligible  int
	Processed int
	Failed    int
	Artifacts int
	Duration  time.Duration
}

// BatchRunner applies an Extractor to every eligible image in a directory
type BatchRunner struct {
	extractor *Extractor
	policy    string
	recorder  ArtifactRecorder
	progress  Progress
	logger    logger.Logger
}

// BatchOption configures a BatchRunner
type BatchOption func(*BatchRunner)

// WithPolicy selects what happens when one image fails
func WithPolicy(policy string) BatchOption {
	return func(r *BatchRunner) { r.policy = policy }
}

// WithRecorder stores every written artifact through rec
func WithRecorder(rec ArtifactRecorder) BatchOption {
	return func(r *BatchRunner) { r.recorder = rec }
}

// WithProgress reports each processed image to p
func WithProgress(p Progress) BatchOption {
	return func(r *BatchRunner) { r.progress = p }
}

// NewBatchRunner creates a runner. The default policy is fail-fast.
func NewBatchRunner(extractor *Extractor, log logger.Logger, opts ...BatchOption) *BatchRunner {
	if log == nil {
		log = logger.GetLogger()
	}
	r := &BatchRunner{
		extractor: extractor,
		policy:    config.PolicyFailFast,
		logger:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run extracts faces from each eligible file directly inside inputDir, in
// directory listing order, writing crops for <name>.<ext> under outputDir
// as <name>_<i>.jpg. Both directories must already exist. Under fail-fast
// the first failure stops the batch and earlier outputs are left in place;
// under isolate-per-item failures are logged and counted.
func (r *BatchRunner) Run(ctx context.Context, inputDir, outputDir string) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: uuid.NewString()}

	if err := requireDir(inputDir); err != nil {
		return summary, err
	}
	if err := requireDir(outputDir); err != nil {
		return summary, err
	}

	files, err := EligibleFiles(inputDir)
	if err != nil {
		return summary, err
	}
	summary.Eligible = len(files)

	log := r.logger.WithFields(map[string]interface{}{
		"run_id": summary.RunID,
		"input":  inputDir,
		"output": outputDir,
	})
	log.InfoWithFields("Starting face extraction", map[string]interface{}{
		"images": len(files),
	})

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		src := filepath.Join(inputDir, name)
		template := filepath.Join(outputDir, stemOf(name)+".jpg")

		artifacts, err := r.extractor.ExtractArtifacts(ctx, src, template)
		summary.Artifacts += len(artifacts)
		if recErr := r.record(ctx, summary.RunID, artifacts); recErr != nil {
			return summary, recErr
		}
		r.tick()

		if err != nil {
			summary.Failed++
			if r.policy != config.PolicyIsolatePerItem {
				log.WithError(err).ErrorWithFields("Extraction failed, aborting batch", map[string]interface{}{
					"image": src,
				})
				return summary, err
			}
			log.WithError(err).WarnWithFields("Extraction failed, skipping", map[string]interface{}{
				"image": src,
			})
			continue
		}
		summary.Processed++
	}

	summary.Duration = time.Since(start)
	log.InfoWithFields("Face extraction finished", map[string]interface{}{
		"processed": summary.Processed,
		"failed":    summary.Failed,
		"artifacts": summary.Artifacts,
		"duration":  summary.Duration,
	})

	return summary, nil
}

func (r *BatchRunner) record(ctx context.Context, runID string, artifacts []FaceArtifact) error {
	if r.recorder == nil {
		return nil
	}
	for _, a := range artifacts {
		if err := r.recorder.Record(ctx, runID, a); err != nil {
			return err
		}
	}
	return nil
}

func (r *BatchRunner) tick() {
	if r.progress != nil {
		_ = r.progress.Add(1)
	}
}

// EligibleFiles lists the names of regular files directly inside dir whose
// suffix is in AllowedExtensions, in directory listing order. An empty
// result is a NotFoundError.
func EligibleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Validation(dir, "cannot list directory: "+err.Error())
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !allowedExtension(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}

	if len(names) == 0 {
		return nil, errors.NotFound(dir, "no .jpg, .png or .bmp files")
	}
	return names, nil
}

func allowedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Validation(path, "directory does not exist")
	}
	if !info.IsDir() {
		return errors.Validation(path, "not a directory")
	}
	return nil
}
