package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"faceharvest/internal/downloader"
	"faceharvest/pkg/auth"
	"faceharvest/pkg/bing"
	"faceharvest/pkg/catalog"
	"faceharvest/pkg/config"
	"faceharvest/pkg/errors"
	"faceharvest/pkg/harvest"
	"faceharvest/pkg/logger"
	"faceharvest/pkg/ratelimit"
	"faceharvest/pkg/ui"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest [query]",
	Short: "Search for images and save every result",
	Long: `Query Bing Image Search page by page and save each result into the
download directory, named after the last segment of its URL.

Paging stops when the search returns a short page, when the next offset
passes --max-results, or after --max-pages requests. Under the default
isolate-per-item policy a failed download is logged and skipped; with
--download-policy fail-fast the first failure stops the run.`,
	Example: `  # Harvest up to 500 results for a query
  faceharvest harvest "nogizaka46"

  # Smaller pages into a custom directory, throttled to 30 downloads a minute
  faceharvest harvest "nogizaka46" --page-size 50 --download-dir ./raw --rate-limit 30`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHarvest,
}

func init() {
	rootCmd.AddCommand(harvestCmd)
	addHarvestFlags(harvestCmd)
	addCatalogFlag(harvestCmd)
}

func addHarvestFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "search query (or pass it as the first argument)")
	cmd.Flags().String("api-key", "", "Bing search subscription key")
	cmd.Flags().Int("page-size", 150, "results requested per page")
	cmd.Flags().Int("max-results", 500, "stop once the next offset passes this value")
	cmd.Flags().Int("max-pages", harvest.DefaultMaxPages, "hard cap on search requests per run")
	cmd.Flags().StringP("download-dir", "o", "", "directory downloads are saved into")
	cmd.Flags().String("download-policy", config.PolicyIsolatePerItem, "download failure policy (isolate-per-item, fail-fast)")
	cmd.Flags().Int("rate-limit", 0, "maximum downloads per minute (0 for unlimited)")
}

func addCatalogFlag(cmd *cobra.Command) {
	cmd.Flags().String("catalog", "", "sqlite catalog recording harvests and crops")
}

func queryOverride(args []string) map[string]interface{} {
	if len(args) == 0 {
		return nil
	}
	return map[string]interface{}{"query": args[0]}
}

func runHarvest(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd, queryOverride(args))
	if err != nil {
		return err
	}

	notifier := ui.NewNotifier(notifications)
	report, err := harvestImages(cmd.Context(), cfg, log)
	printHarvestReport(report)
	if err != nil {
		notifier.SendError("Harvest failed", err.Error())
		return err
	}

	notifier.SendSuccess("Harvest complete", fmt.Sprintf("%d of %d images saved", report.Saved, report.Discovered))
	return nil
}

// harvestImages wires the search client, paginator and downloader for one run
func harvestImages(ctx context.Context, cfg *config.Config, log logger.Logger) (harvest.Report, error) {
	if cfg.Search.Query == "" {
		return harvest.Report{}, errors.Validation("query", "a search query is required")
	}

	apiKey, err := resolveAPIKey(cfg)
	if err != nil {
		return harvest.Report{}, err
	}

	client := bing.NewClient(&http.Client{Timeout: cfg.Search.Timeout}, cfg.Search.Endpoint, apiKey, log)
	paginator := harvest.NewPaginator(client, cfg.Search.MaxPages, log)

	dl := downloader.New(&http.Client{Timeout: cfg.Download.Timeout}, log,
		downloader.WithPolicy(cfg.Download.FailurePolicy),
		downloader.WithRateLimiter(ratelimit.NewPerMinute(cfg.Download.RequestsPerMinute)),
		downloader.WithUserAgent(cfg.Download.UserAgent),
		downloader.WithProgress(ui.NewProgress(0, "downloading", quiet)),
	)

	ui.PrintInfo("Query", cfg.Search.Query)
	ui.PrintInfo("Saving to", cfg.Download.Directory)

	h := harvest.NewHarvester(paginator, dl, log)
	report, runErr := h.Run(ctx, harvest.SearchQuery{
		Text:       cfg.Search.Query,
		PageSize:   cfg.Search.PageSize,
		MaxResults: cfg.Search.MaxResults,
	}, cfg.Download.Directory)

	if cfg.Extraction.CatalogPath != "" {
		if err := recordHarvest(ctx, cfg.Extraction.CatalogPath, report); err != nil {
			log.WithError(err).Warn("Failed to record harvest in catalog")
		}
	}

	return report, runErr
}

func recordHarvest(ctx context.Context, path string, report harvest.Report) error {
	cat, err := catalog.Open(path)
	if err != nil {
		return err
	}
	defer cat.Close()
	return cat.RecordHarvest(ctx, report)
}

// resolveAPIKey prefers a configured key and falls back to the stored one
func resolveAPIKey(cfg *config.Config) (string, error) {
	if cfg.Search.APIKey != "" {
		return cfg.Search.APIKey, nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return "", fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	key, err := manager.ResolveAPIKey("", profile)
	if err != nil {
		return "", fmt.Errorf("no search API key configured, run 'faceharvest auth set-key': %w", err)
	}
	return key, nil
}

func printHarvestReport(r harvest.Report) {
	if r.RunID == "" {
		return
	}
	fmt.Fprintln(ui.Output)
	ui.PrintInfo("Run", r.RunID)
	ui.PrintInfo("Discovered", r.Discovered)
	ui.PrintInfo("Saved", r.Saved)
	if r.Failed > 0 {
		ui.PrintWarning(fmt.Sprintf("%d downloads failed", r.Failed))
	}
}
