package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"faceharvest/pkg/auth"
	"faceharvest/pkg/config"
	"faceharvest/pkg/ui"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage faceharvest configuration",
	Long: `Create, inspect and validate the faceharvest configuration.

Values are resolved in this order, highest first:
  1. command line flags
  2. FACEHARVEST_* environment variables
  3. a .env file in the working directory
  4. the configuration file
  5. built-in defaults`,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with default values",
	Example: `  faceharvest config init
  faceharvest config init ~/.config/faceharvest/config.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the files it points at",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "faceharvest.yaml"
	if len(args) > 0 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists, use --force to overwrite it", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Fprintln(ui.Output, "\nNext steps:")
	fmt.Fprintln(ui.Output, "1. Store your search key with 'faceharvest auth set-key'")
	fmt.Fprintln(ui.Output, "2. Set search.query and extraction.cascade_file in the file")
	fmt.Fprintln(ui.Output, "3. Run 'faceharvest config validate' to check it")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	display := *cfg
	if display.Search.APIKey != "" {
		display.Search.APIKey = auth.MaskKey(display.Search.APIKey)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Fprint(ui.Output, string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var warnings []string
	var problems []string

	if cfg.Search.APIKey == "" {
		if _, err := resolveAPIKey(cfg); err != nil {
			warnings = append(warnings, "no search API key configured or stored")
		}
	}
	if cfg.Search.Query == "" {
		warnings = append(warnings, "search.query is empty, pass a query on the command line")
	}
	if cfg.Extraction.Detector == config.DetectorPigo {
		if _, err := os.Stat(cfg.Extraction.CascadeFile); err != nil {
			problems = append(problems, fmt.Sprintf("cascade file %s: %v", cfg.Extraction.CascadeFile, err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	for _, w := range warnings {
		ui.PrintWarning("  - " + w)
	}
	if len(problems) > 0 {
		for _, p := range problems {
			ui.PrintError("  - "+p, nil)
		}
		return fmt.Errorf("configuration has %d problems", len(problems))
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Search page size", cfg.Search.PageSize)
	ui.PrintInfo("Max results", cfg.Search.MaxResults)
	ui.PrintInfo("Download policy", cfg.Download.FailurePolicy)
	ui.PrintInfo("Detector", cfg.Extraction.Detector)
	ui.PrintInfo("Extraction policy", cfg.Extraction.FailurePolicy)
	return nil
}
