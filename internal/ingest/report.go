package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/calibre-utils/bookdrop/internal/config"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ReportConfig is the configuration section of the run report.
type ReportConfig struct {
	RunID        string `yaml:"runid"`
	Timestamp    string `yaml:"timestamp"`
	WatchedDir   string `yaml:"watcheddir"`
	ProcessedDir string `yaml:"processeddir"`
	TargetFormat string `yaml:"targetformat"`
	DryRun       bool   `yaml:"dryrun"`
	CatalogSize  int    `yaml:"catalogsize"`
}

// ReportEntry is a single file outcome in the run report.
type ReportEntry struct {
	File        string   `yaml:"file"`
	Status      string   `yaml:"status"`
	Title       string   `yaml:"title,omitempty"`
	Author      string   `yaml:"author,omitempty"`
	BookID      int      `yaml:"bookid,omitempty"`
	Resolution  string   `yaml:"resolution,omitempty"`
	Suggestions []string `yaml:"suggestions,omitempty"`
	Error       string   `yaml:"error,omitempty"`
}

// RunReport is the complete record of one ingest run.
type RunReport struct {
	Config  ReportConfig   `yaml:"config"`
	Results []ReportEntry  `yaml:"results"`
	Tally   map[string]int `yaml:"tally"`
}

// Tally counts results by status.
func Tally(results []Result) map[string]int {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Status.String()]++
	}
	return counts
}

// SaveReport writes the run report as YAML into dir and returns the path
// of the written file.
func SaveReport(dir string, cfg config.Config, dryRun bool, catalogSize int, results []Result) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	runID := uuid.NewString()

	report := RunReport{
		Config: ReportConfig{
			RunID:        runID,
			Timestamp:    timestamp,
			WatchedDir:   cfg.WatchedDir,
			ProcessedDir: cfg.ProcessedDir,
			TargetFormat: cfg.TargetFormat,
			DryRun:       dryRun,
			CatalogSize:  catalogSize,
		},
		Results: make([]ReportEntry, 0, len(results)),
		Tally:   Tally(results),
	}

	for _, r := range results {
		entry := ReportEntry{
			File:       r.File,
			Status:     r.Status.String(),
			Title:      r.Title,
			Author:     r.Author,
			BookID:     r.BookID,
			Resolution: r.Resolution,
		}
		if r.Err != nil {
			entry.Error = r.Err.Error()
		}
		for _, s := range r.Suggestions {
			entry.Suggestions = append(entry.Suggestions, fmt.Sprintf("%s (%.2f)", s.Value, s.Score))
		}
		report.Results = append(report.Results, entry)
	}

	filename := filepath.Join(dir, fmt.Sprintf("ingest-%s-%s.yaml", timestamp, runID[:8]))

	data, err := yaml.Marshal(&report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	slog.Info("Saved run report", "path", filename)
	return filename, nil
}
