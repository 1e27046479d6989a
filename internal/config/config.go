// Package config loads bookdrop settings from an optional YAML file named by
// BOOKDROP_CONFIG, with environment variable overrides and sane defaults for
// a stock Calibre install.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds every tunable of the ingest pipeline and the CLI.
type Config struct {
	WatchedDir       string   `yaml:"watched_dir" env:"BOOKDROP_WATCHED_DIR" env-default:"~/Downloads/books/in-books"`
	ProcessedDir     string   `yaml:"processed_dir" env:"BOOKDROP_PROCESSED_DIR"`
	StagingDir       string   `yaml:"staging_dir" env:"BOOKDROP_STAGING_DIR" env-default:"~/temp"`
	CalibreDBPath    string   `yaml:"calibredb_path" env:"BOOKDROP_CALIBREDB_PATH" env-default:"/usr/bin/calibredb"`
	EbookConvertPath string   `yaml:"ebook_convert_path" env:"BOOKDROP_EBOOK_CONVERT_PATH" env-default:"/usr/bin/ebook-convert"`
	TargetFormat     string   `yaml:"target_format" env:"BOOKDROP_TARGET_FORMAT" env-default:"mobi"`
	StripMarkers     []string `yaml:"strip_markers" env:"BOOKDROP_STRIP_MARKERS" env-default:"z-lib"`
	MaxHyphenSplits  int      `yaml:"max_hyphen_splits" env:"BOOKDROP_MAX_HYPHEN_SPLITS" env-default:"4"`
	DisableNotify    bool     `yaml:"disable_notify" env:"BOOKDROP_DISABLE_NOTIFY"`
	ReportDir        string   `yaml:"report_dir" env:"BOOKDROP_REPORT_DIR"`
}

var formatTokenRE = regexp.MustCompile(`^[a-z0-9]+$`)

// Load reads the file named by BOOKDROP_CONFIG when set, otherwise only the
// environment and defaults, then fills derived values and validates.
func Load() (*Config, error) {
	var cfg Config
	if path := os.Getenv("BOOKDROP_CONFIG"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}

	cfg.WatchedDir = expandHome(cfg.WatchedDir)
	cfg.StagingDir = expandHome(cfg.StagingDir)
	cfg.ProcessedDir = expandHome(cfg.ProcessedDir)
	cfg.ReportDir = expandHome(cfg.ReportDir)
	if cfg.ProcessedDir == "" {
		cfg.ProcessedDir = deriveProcessedDir(cfg.WatchedDir)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.WatchedDir == "" {
		return fmt.Errorf("watched_dir must not be empty")
	}
	if c.StagingDir == "" {
		return fmt.Errorf("staging_dir must not be empty")
	}
	if !formatTokenRE.MatchString(c.TargetFormat) {
		return fmt.Errorf("target_format %q is not a lowercase format token", c.TargetFormat)
	}
	return nil
}

// SetWatchedDir points the pipeline at a different watched directory and
// re-derives the processed directory from it.
func (c *Config) SetWatchedDir(dir string) {
	c.WatchedDir = expandHome(dir)
	c.ProcessedDir = deriveProcessedDir(c.WatchedDir)
}

// deriveProcessedDir swaps a final "in-books" path element for "processed",
// the layout the watched directory convention implies. A watched directory
// named differently keeps processed files in place.
func deriveProcessedDir(watched string) string {
	if filepath.Base(watched) == "in-books" {
		return filepath.Join(filepath.Dir(watched), "processed")
	}
	return watched
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
