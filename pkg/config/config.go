package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Failure policies for loops that process one item at a time
const (
	PolicyIsolatePerItem = "isolate-per-item"
	PolicyFailFast       = "fail-fast"
)

// Detector backends
const (
	DetectorPigo        = "pigo"
	DetectorRekognition = "rekognition"
)

// DefaultEndpoint is the Bing Image Search v7 endpoint
const DefaultEndpoint = "https://api.cognitive.microsoft.com/bing/v7.0/images/search"

// Config holds all configuration options for faceharvest
type Config struct {
	Search     SearchConfig     `yaml:"search" json:"search"`
	Download   DownloadConfig   `yaml:"download" json:"download"`
	Extraction ExtractionConfig `yaml:"extraction" json:"extraction"`
	AWS        AWSConfig        `yaml:"aws" json:"aws"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// SearchConfig holds image search API settings
type SearchConfig struct {
	Endpoint   string        `yaml:"endpoint" json:"endpoint"`
	APIKey     string        `yaml:"api_key" json:"api_key"`
	Query      string        `yaml:"query" json:"query"`
	PageSize   int           `yaml:"page_size" json:"page_size"`
	MaxResults int           `yaml:"max_results" json:"max_results"`
	MaxPages   int           `yaml:"max_pages" json:"max_pages"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// DownloadConfig holds settings for saving harvested images
type DownloadConfig struct {
	Directory         string        `yaml:"directory" json:"directory"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	FailurePolicy     string        `yaml:"failure_policy" json:"failure_policy"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
}

// ExtractionConfig holds face extraction settings
type ExtractionConfig struct {
	InputDirectory  string  `yaml:"input_directory" json:"input_directory"`
	OutputDirectory string  `yaml:"output_directory" json:"output_directory"`
	Detector        string  `yaml:"detector" json:"detector"`
	CascadeFile     string  `yaml:"cascade_file" json:"cascade_file"`
	ScaleFactor     float64 `yaml:"scale_factor" json:"scale_factor"`
	MinNeighbors    int     `yaml:"min_neighbors" json:"min_neighbors"`
	MinSize         int     `yaml:"min_size" json:"min_size"`
	FailurePolicy   string  `yaml:"failure_policy" json:"failure_policy"`
	CatalogPath     string  `yaml:"catalog_path" json:"catalog_path"`
}

// AWSConfig holds settings for the Rekognition detector
type AWSConfig struct {
	Region        string  `yaml:"region" json:"region"`
	MinConfidence float64 `yaml:"min_confidence" json:"min_confidence"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Endpoint:   DefaultEndpoint,
			PageSize:   150,
			MaxResults: 500,
			MaxPages:   100,
			Timeout:    30 * time.Second,
		},
		Download: DownloadConfig{
			Directory:     "./data/raw",
			Timeout:       60 * time.Second,
			FailurePolicy: PolicyIsolatePerItem,
			UserAgent:     "faceharvest/1.0",
		},
		Extraction: ExtractionConfig{
			InputDirectory:  "./data/raw",
			OutputDirectory: "./data/trimmed",
			Detector:        DetectorPigo,
			CascadeFile:     "./asset/facefinder",
			ScaleFactor:     1.2,
			MinNeighbors:    2,
			MinSize:         50,
			FailurePolicy:   PolicyFailFast,
		},
		AWS: AWSConfig{
			Region:        "us-east-1",
			MinConfidence: 90,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from FACEHARVEST_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("FACEHARVEST_ENDPOINT"); v != "" {
		c.Search.Endpoint = v
	}
	if v := os.Getenv("FACEHARVEST_API_KEY"); v != "" {
		c.Search.APIKey = v
	}
	if v := os.Getenv("FACEHARVEST_QUERY"); v != "" {
		c.Search.Query = v
	}
	if v := os.Getenv("FACEHARVEST_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FACEHARVEST_PAGE_SIZE: %w", err))
		} else {
			c.Search.PageSize = n
		}
	}
	if v := os.Getenv("FACEHARVEST_MAX_RESULTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FACEHARVEST_MAX_RESULTS: %w", err))
		} else {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv("FACEHARVEST_DOWNLOAD_DIR"); v != "" {
		c.Download.Directory = v
	}
	if v := os.Getenv("FACEHARVEST_INPUT_DIR"); v != "" {
		c.Extraction.InputDirectory = v
	}
	if v := os.Getenv("FACEHARVEST_OUTPUT_DIR"); v != "" {
		c.Extraction.OutputDirectory = v
	}
	if v := os.Getenv("FACEHARVEST_DETECTOR"); v != "" {
		c.Extraction.Detector = v
	}
	if v := os.Getenv("FACEHARVEST_CASCADE_FILE"); v != "" {
		c.Extraction.CascadeFile = v
	}
	if v := os.Getenv("FACEHARVEST_CATALOG"); v != "" {
		c.Extraction.CatalogPath = v
	}
	if v := os.Getenv("FACEHARVEST_AWS_REGION"); v != "" {
		c.AWS.Region = v
	}
	if v := os.Getenv("FACEHARVEST_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		"faceharvest.yaml",
		".faceharvest.yaml",
		filepath.Join(home, ".config", "faceharvest", "config.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are checked
// separately by the commands that need them.
func (c *Config) Validate() error {
	var errs []error

	if c.Search.Endpoint == "" {
		errs = append(errs, errors.New("search endpoint is required"))
	}
	if c.Search.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Search.MaxResults < 0 {
		errs = append(errs, errors.New("max results cannot be negative"))
	}
	if c.Search.MaxPages <= 0 {
		errs = append(errs, errors.New("max pages must be positive"))
	}
	if c.Search.Timeout <= 0 {
		errs = append(errs, errors.New("search timeout must be positive"))
	}

	if c.Download.Directory == "" {
		errs = append(errs, errors.New("download directory is required"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if !validPolicy(c.Download.FailurePolicy) {
		errs = append(errs, fmt.Errorf("invalid download failure policy %q", c.Download.FailurePolicy))
	}

	switch c.Extraction.Detector {
	case DetectorPigo:
		if c.Extraction.CascadeFile == "" {
			errs = append(errs, errors.New("cascade file is required for the pigo detector"))
		}
	case DetectorRekognition:
		if c.AWS.Region == "" {
			errs = append(errs, errors.New("aws region is required for the rekognition detector"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid detector %q", c.Extraction.Detector))
	}
	if c.Extraction.ScaleFactor <= 1 {
		errs = append(errs, errors.New("scale factor must be greater than 1"))
	}
	if c.Extraction.MinNeighbors < 0 {
		errs = append(errs, errors.New("min neighbors cannot be negative"))
	}
	if c.Extraction.MinSize <= 0 {
		errs = append(errs, errors.New("min size must be positive"))
	}
	if !validPolicy(c.Extraction.FailurePolicy) {
		errs = append(errs, fmt.Errorf("invalid extraction failure policy %q", c.Extraction.FailurePolicy))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

func validPolicy(p string) bool {
	return p == PolicyIsolatePerItem || p == PolicyFailFast
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["query"].(string); ok && v != "" {
		c.Search.Query = v
	}
	if v, ok := flags["api-key"].(string); ok && v != "" {
		c.Search.APIKey = v
	}
	if v, ok := flags["page-size"].(int); ok && v > 0 {
		c.Search.PageSize = v
	}
	if v, ok := flags["max-results"].(int); ok && v >= 0 {
		c.Search.MaxResults = v
	}
	if v, ok := flags["max-pages"].(int); ok && v > 0 {
		c.Search.MaxPages = v
	}
	if v, ok := flags["download-dir"].(string); ok && v != "" {
		c.Download.Directory = v
	}
	if v, ok := flags["download-policy"].(string); ok && v != "" {
		c.Download.FailurePolicy = v
	}
	if v, ok := flags["rate-limit"].(int); ok && v >= 0 {
		c.Download.RequestsPerMinute = v
	}
	if v, ok := flags["input-dir"].(string); ok && v != "" {
		c.Extraction.InputDirectory = v
	}
	if v, ok := flags["output-dir"].(string); ok && v != "" {
		c.Extraction.OutputDirectory = v
	}
	if v, ok := flags["detector"].(string); ok && v != "" {
		c.Extraction.Detector = v
	}
	if v, ok := flags["cascade"].(string); ok && v != "" {
		c.Extraction.CascadeFile = v
	}
	if v, ok := flags["extract-policy"].(string); ok && v != "" {
		c.Extraction.FailurePolicy = v
	}
	if v, ok := flags["catalog"].(string); ok && v != "" {
		c.Extraction.CatalogPath = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env values never override variables already set in the environment
	_ = godotenv.Load(".env")

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
