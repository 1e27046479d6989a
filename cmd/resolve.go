package cmd

import (
	"fmt"

	"github.com/calibre-utils/bookdrop/internal/catalog"
	"github.com/calibre-utils/bookdrop/internal/config"
	"github.com/calibre-utils/bookdrop/internal/extract"
	"github.com/calibre-utils/bookdrop/internal/ingest"
	"github.com/calibre-utils/bookdrop/internal/match"
	"github.com/calibre-utils/bookdrop/internal/resolve"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	labelColor = color.New(color.FgCyan).SprintFunc()
	okColor    = color.New(color.FgGreen).SprintFunc()
	warnColor  = color.New(color.FgYellow).SprintFunc()
	failColor  = color.New(color.FgRed).SprintFunc()
)

func newResolveCmd() *cobra.Command {
	var catalogFile string

	cmd := &cobra.Command{
		Use:   "resolve [filename]...",
		Short: "Show how a file name resolves against the catalog",
		Long: `Resolve runs the extraction and matching stages on the given file names
and prints what each stage decided, without touching any files or Calibre.

Useful for checking why a drop landed as a new title or missed an
existing record.`,
		Example: `  # Trace one file name against the live catalog
  bookdrop resolve "Dune - Frank Herbert.epub"

  # Trace against a snapshot
  bookdrop resolve --catalog-file catalog.jsonl "Red Mars (Kim Stanley Robinson) (z-lib.org).epub"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			records, err := loadCatalog(cmd.Context(), cfg, catalogFile)
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}

			extractor := extract.New(records, extract.Options{
				Markers:         cfg.StripMarkers,
				MaxHyphenSplits: cfg.MaxHyphenSplits,
			})

			for i, name := range args {
				if i > 0 {
					fmt.Println()
				}
				traceOne(extractor, records, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogFile, "catalog-file", "", "Resolve against a catalog snapshot or raw listing instead of calibredb")

	return cmd
}

func traceOne(extractor *extract.Extractor, records []catalog.Record, name string) {
	fmt.Printf("%s %s\n", labelColor("file:"), name)

	base, _, ok := ingest.SplitExtension(name)
	if !ok {
		base = name
		fmt.Printf("%s no file extension, treating the whole name as the base\n", warnColor("note:"))
	}

	ext := extractor.Extract(base)
	fmt.Printf("%s title=%q author=%q status=%s\n", labelColor("extracted:"), ext.Title, ext.Author, ext.Status)

	out := resolve.Resolve(ext, records)
	switch out.Kind {
	case resolve.ExistingEntry:
		fmt.Printf("%s %s id=%d title=%q author=%q\n",
			labelColor("resolved:"), okColor(out.Kind.String()), out.ID, out.Title, out.Author)
	case resolve.NewTitle:
		fmt.Printf("%s %s title=%q author=%q\n",
			labelColor("resolved:"), warnColor(out.Kind.String()), out.Title, out.Author)
		for _, s := range match.Suggest(out.Title, catalog.Titles(records), 3, match.DefaultMinScore) {
			fmt.Printf("%s %s (%.2f)\n", labelColor("close match:"), s.Value, s.Score)
		}
	default:
		fmt.Printf("%s %s\n", labelColor("resolved:"), failColor(out.Kind.String()))
	}
}
