package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"faceharvest/pkg/catalog"
	"faceharvest/pkg/config"
	"faceharvest/pkg/faces"
	"faceharvest/pkg/logger"
	"faceharvest/pkg/ui"
)

var createOutput bool

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Crop every detected face out of a directory of images",
	Long: `Run the face detector over each .jpg, .png and .bmp file directly inside
the input directory. For an image <name>.<ext> every detected face is written
to the output directory as <name>_<i>.jpg, numbered from 0.

Under the default fail-fast policy the first image that cannot be processed
stops the batch; with --extract-policy isolate-per-item it is logged and
skipped.`,
	Example: `  # Extract with the local pigo cascade
  faceharvest extract --input-dir ./data/raw --output-dir ./data/trimmed --cascade ./asset/facefinder

  # Use AWS Rekognition and index crops in a catalog
  faceharvest extract --detector rekognition --catalog ./faces.db`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	addExtractFlags(extractCmd)
	addCatalogFlag(extractCmd)
	extractCmd.Flags().BoolVar(&createOutput, "create-output", false, "create the output directory if it does not exist")
}

func addExtractFlags(cmd *cobra.Command) {
	cmd.Flags().String("input-dir", "", "directory of source images")
	cmd.Flags().String("output-dir", "", "directory crops are written into")
	cmd.Flags().String("detector", config.DetectorPigo, "face detector (pigo, rekognition)")
	cmd.Flags().String("cascade", "", "pigo cascade file")
	cmd.Flags().String("extract-policy", config.PolicyFailFast, "extraction failure policy (fail-fast, isolate-per-item)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd, nil)
	if err != nil {
		return err
	}

	if createOutput {
		if err := os.MkdirAll(cfg.Extraction.OutputDirectory, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	notifier := ui.NewNotifier(notifications)
	summary, err := extractFaces(cmd.Context(), cfg, log)
	printSummary(summary)
	if err != nil {
		notifier.SendError("Extraction failed", err.Error())
		return err
	}

	notifier.SendSuccess("Extraction complete", fmt.Sprintf("%d faces from %d images", summary.Artifacts, summary.Processed))
	return nil
}

// extractFaces builds the configured detector and runs the batch
func extractFaces(ctx context.Context, cfg *config.Config, log logger.Logger) (faces.Summary, error) {
	detector, err := newDetector(ctx, cfg)
	if err != nil {
		return faces.Summary{}, err
	}

	opts := []faces.BatchOption{faces.WithPolicy(cfg.Extraction.FailurePolicy)}

	if cfg.Extraction.CatalogPath != "" {
		cat, err := catalog.Open(cfg.Extraction.CatalogPath)
		if err != nil {
			return faces.Summary{}, err
		}
		defer cat.Close()
		opts = append(opts, faces.WithRecorder(cat))
	}

	// A listing failure is reported again, with its proper type, by Run
	total := 0
	if files, err := faces.EligibleFiles(cfg.Extraction.InputDirectory); err == nil {
		total = len(files)
	}
	opts = append(opts, faces.WithProgress(ui.NewProgress(total, "extracting", quiet)))

	ui.PrintInfo("Detector", cfg.Extraction.Detector)
	ui.PrintInfo("Reading from", cfg.Extraction.InputDirectory)
	ui.PrintInfo("Writing to", cfg.Extraction.OutputDirectory)

	runner := faces.NewBatchRunner(faces.NewExtractor(detector, log), log, opts...)
	return runner.Run(ctx, cfg.Extraction.InputDirectory, cfg.Extraction.OutputDirectory)
}

func newDetector(ctx context.Context, cfg *config.Config) (faces.Detector, error) {
	params := faces.Params{
		ScaleFactor:  cfg.Extraction.ScaleFactor,
		MinNeighbors: cfg.Extraction.MinNeighbors,
		MinSize:      cfg.Extraction.MinSize,
	}

	switch cfg.Extraction.Detector {
	case config.DetectorRekognition:
		client, err := faces.NewRekognitionClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, err
		}
		return faces.NewRekognitionDetector(client, cfg.AWS.MinConfidence, params.MinSize), nil
	case config.DetectorPigo:
		d, err := faces.NewPigoDetector(cfg.Extraction.CascadeFile, params)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown detector %q", cfg.Extraction.Detector)
	}
}

func printSummary(s faces.Summary) {
	if s.Eligible == 0 {
		return
	}
	fmt.Fprintln(ui.Output)
	ui.PrintInfo("Run", s.RunID)
	ui.PrintInfo("Images", fmt.Sprintf("%d processed of %d", s.Processed, s.Eligible))
	ui.PrintInfo("Faces", s.Artifacts)
	if s.Failed > 0 {
		ui.PrintWarning(fmt.Sprintf("%d images failed", s.Failed))
	}
}
