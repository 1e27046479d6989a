package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/calibre-utils/bookdrop/internal/calibre"
	"github.com/calibre-utils/bookdrop/internal/catalog"
	"github.com/calibre-utils/bookdrop/internal/config"
	"github.com/calibre-utils/bookdrop/internal/ingest"
	"github.com/calibre-utils/bookdrop/internal/notify"
	"github.com/calibre-utils/bookdrop/internal/snapshot"
	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	var dir string
	var file string
	var catalogFile string
	var reportDir string
	var dryRun bool
	var noNotify bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Process e-book files from the watched directory",
		Long: `Ingest processes e-book files the way the watched-folder hook does: each
file name is stripped of release noise, split into title and author, and
resolved against the Calibre catalog. Unknown books are added with
calibredb, then converted to the target format and registered.

Originals move to the processed directory once handled. A YAML run report
is written when a report directory is configured.`,
		Example: `  # Process every file in the watched directory
  bookdrop ingest

  # Process a single dropped file
  bookdrop ingest --file "Neuromancer by William Gibson.epub"

  # Resolve against a catalog snapshot without touching Calibre
  bookdrop ingest --dry-run --catalog-file catalog.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if dir != "" {
				cfg.SetWatchedDir(dir)
			}
			if reportDir != "" {
				cfg.ReportDir = reportDir
			}

			client := calibre.NewClient(cfg.CalibreDBPath, cfg.EbookConvertPath)

			var notifier ingest.Notifier
			if !cfg.DisableNotify && !noNotify {
				notifier = notify.NewDesktop()
			}

			pipeline := ingest.New(*cfg, client, client, notifier, dryRun)

			var records []catalog.Record
			if catalogFile != "" {
				records, err = snapshot.LoadRecords(catalogFile)
				if err != nil {
					return fmt.Errorf("failed to load catalog file: %w", err)
				}
			} else {
				records, err = pipeline.FetchRecords(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list calibre catalog: %w", err)
				}
			}

			var paths []string
			if file != "" {
				path := file
				if !filepath.IsAbs(path) {
					path = filepath.Join(cfg.WatchedDir, path)
				}
				paths = []string{path}
			} else {
				paths, err = ingest.ListFiles(cfg.WatchedDir)
				if err != nil {
					return fmt.Errorf("failed to list watched directory: %w", err)
				}
			}

			if len(paths) == 0 {
				fmt.Println("Nothing to ingest.")
				return nil
			}

			results := pipeline.Run(cmd.Context(), paths, records)
			printTally(results)

			if cfg.ReportDir != "" {
				reportPath, err := ingest.SaveReport(cfg.ReportDir, *cfg, dryRun, len(records), results)
				if err != nil {
					return fmt.Errorf("failed to save run report: %w", err)
				}
				fmt.Printf("\nRun report saved to: %s\n", reportPath)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Watched directory to process (defaults to the configured one)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Single file to process, absolute or relative to the watched directory")
	cmd.Flags().StringVar(&catalogFile, "catalog-file", "", "Resolve against a catalog snapshot or raw listing instead of calibredb")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "Directory for the YAML run report")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Extract and resolve only; do not touch Calibre or move files")
	cmd.Flags().BoolVar(&noNotify, "no-notify", false, "Disable desktop notifications")

	return cmd
}

func printTally(results []ingest.Result) {
	tally := ingest.Tally(results)
	statuses := make([]string, 0, len(tally))
	for status := range tally {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	fmt.Printf("\nProcessed %d file(s):\n", len(results))
	for _, status := range statuses {
		fmt.Printf("  %-18s %d\n", status, tally[status])
	}
}
