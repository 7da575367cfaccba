package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"faceharvest/pkg/ui"
)

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Harvest images for a query, then extract faces from them",
	Long: `Run harvest followed by extract. Unless --input-dir is given, extraction
reads the directory the harvest just wrote to. The output directory is
created when missing.`,
	Example: `  faceharvest run "nogizaka46" --download-dir ./data/raw --output-dir ./data/trimmed`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addHarvestFlags(runCmd)
	addExtractFlags(runCmd)
	addCatalogFlag(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd, queryOverride(args))
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("input-dir") {
		cfg.Extraction.InputDirectory = cfg.Download.Directory
	}

	notifier := ui.NewNotifier(notifications)
	ctx := cmd.Context()

	report, err := harvestImages(ctx, cfg, log)
	printHarvestReport(report)
	if err != nil {
		notifier.SendError("Harvest failed", err.Error())
		return err
	}

	if err := os.MkdirAll(cfg.Extraction.OutputDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	summary, err := extractFaces(ctx, cfg, log)
	printSummary(summary)
	if err != nil {
		notifier.SendError("Extraction failed", err.Error())
		return err
	}

	notifier.SendSuccess("Run complete", fmt.Sprintf("%d images saved, %d faces extracted", report.Saved, summary.Artifacts))
	return nil
}
