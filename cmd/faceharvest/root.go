package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"faceharvest/pkg/auth"
	"faceharvest/pkg/config"
	"faceharvest/pkg/logger"
	"faceharvest/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	profile       string
	notifications bool
	quiet         bool
)

// intFlags lists the flags MergeCommandLineFlags expects as ints
var intFlags = map[string]bool{
	"page-size":   true,
	"max-results": true,
	"max-pages":   true,
	"rate-limit":  true,
}

var rootCmd = &cobra.Command{
	Use:   "faceharvest",
	Short: "Harvest images from Bing image search and crop the faces in them",
	Long: `faceharvest builds face datasets in two stages.

  harvest  query Bing Image Search page by page and save every result
  extract  detect faces in a directory of images and write one crop per face
  run      both stages back to back

The search API key is read from --api-key, FACEHARVEST_API_KEY, the config
file, or a key stored with 'faceharvest auth set-key'.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			return
		}
		switch cmd.Name() {
		case "version", "help", "show":
		default:
			ui.PrintBanner()
		}
	},
}

// Execute runs the root command, cancelling its context on SIGINT or SIGTERM
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Red("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./faceharvest.yaml or ~/.config/faceharvest/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", auth.DefaultProfile, "stored API key profile")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "send a desktop notification when a run ends")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "hide the banner and progress bars")

	rootCmd.SetVersionTemplate(`faceharvest {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// collectFlags turns the flags set on the command line into the map
// config.Load merges over file and environment values
func collectFlags(fs *pflag.FlagSet) map[string]interface{} {
	flags := make(map[string]interface{})
	fs.Visit(func(f *pflag.Flag) {
		if intFlags[f.Name] {
			if n, err := strconv.Atoi(f.Value.String()); err == nil {
				flags[f.Name] = n
			}
			return
		}
		flags[f.Name] = f.Value.String()
	})
	return flags
}

// setup loads the configuration for cmd and initializes the global logger
func setup(cmd *cobra.Command, overrides map[string]interface{}) (*config.Config, logger.Logger, error) {
	flags := collectFlags(cmd.Flags())
	for k, v := range overrides {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log := logger.GetLogger().WithField("command", cmd.Name())
	log.WithField("version", version).Debug("faceharvest starting")
	return cfg, log, nil
}
