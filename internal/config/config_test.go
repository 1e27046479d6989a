package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOOKDROP_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TargetFormat != "mobi" {
		t.Errorf("TargetFormat = %q, want %q", cfg.TargetFormat, "mobi")
	}
	if cfg.MaxHyphenSplits != 4 {
		t.Errorf("MaxHyphenSplits = %d, want 4", cfg.MaxHyphenSplits)
	}
	if cfg.DisableNotify {
		t.Error("DisableNotify = true, want false")
	}
	if cfg.CalibreDBPath != "/usr/bin/calibredb" {
		t.Errorf("CalibreDBPath = %q", cfg.CalibreDBPath)
	}
	if len(cfg.StripMarkers) != 1 || cfg.StripMarkers[0] != "z-lib" {
		t.Errorf("StripMarkers = %v, want [z-lib]", cfg.StripMarkers)
	}
	if !strings.HasSuffix(cfg.WatchedDir, filepath.Join("Downloads", "books", "in-books")) {
		t.Errorf("WatchedDir = %q, want home-expanded in-books default", cfg.WatchedDir)
	}
	if !strings.HasSuffix(cfg.ProcessedDir, filepath.Join("Downloads", "books", "processed")) {
		t.Errorf("ProcessedDir = %q, want derived processed dir", cfg.ProcessedDir)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BOOKDROP_CONFIG", "")
	t.Setenv("BOOKDROP_WATCHED_DIR", "/srv/books/in-books")
	t.Setenv("BOOKDROP_TARGET_FORMAT", "epub")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WatchedDir != "/srv/books/in-books" {
		t.Errorf("WatchedDir = %q", cfg.WatchedDir)
	}
	if cfg.ProcessedDir != filepath.Join("/srv/books", "processed") {
		t.Errorf("ProcessedDir = %q, want /srv/books/processed", cfg.ProcessedDir)
	}
	if cfg.TargetFormat != "epub" {
		t.Errorf("TargetFormat = %q, want %q", cfg.TargetFormat, "epub")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookdrop.yaml")
	body := strings.Join([]string{
		"watched_dir: /data/in-books",
		"staging_dir: /data/tmp",
		"target_format: azw3",
		"disable_notify: true",
		"strip_markers:",
		"  - z-lib",
		"  - libgen",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOOKDROP_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WatchedDir != "/data/in-books" {
		t.Errorf("WatchedDir = %q", cfg.WatchedDir)
	}
	if cfg.ProcessedDir != filepath.Join("/data", "processed") {
		t.Errorf("ProcessedDir = %q", cfg.ProcessedDir)
	}
	if cfg.TargetFormat != "azw3" {
		t.Errorf("TargetFormat = %q", cfg.TargetFormat)
	}
	if !cfg.DisableNotify {
		t.Error("DisableNotify = false, want true")
	}
	if len(cfg.StripMarkers) != 2 {
		t.Errorf("StripMarkers = %v, want two markers", cfg.StripMarkers)
	}
}

func TestLoadRejectsBadTargetFormat(t *testing.T) {
	t.Setenv("BOOKDROP_CONFIG", "")
	t.Setenv("BOOKDROP_TARGET_FORMAT", "MOBI")

	if _, err := Load(); err == nil {
		t.Error("Load() accepted an uppercase target format")
	}
}

func TestDeriveProcessedDir(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/home/u/Downloads/books/in-books", filepath.Join("/home/u/Downloads/books", "processed")},
		{"/srv/drop", "/srv/drop"},
	}
	for _, tt := range tests {
		if got := deriveProcessedDir(tt.in); got != tt.want {
			t.Errorf("deriveProcessedDir(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
