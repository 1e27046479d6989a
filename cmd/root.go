package cmd

import (
	"context"

	"github.com/calibre-utils/bookdrop/internal/calibre"
	"github.com/calibre-utils/bookdrop/internal/catalog"
	"github.com/calibre-utils/bookdrop/internal/config"
	"github.com/calibre-utils/bookdrop/internal/snapshot"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookdrop",
		Short: "Watched-folder e-book ingestion for Calibre",
		Long: `Bookdrop processes e-book files dropped into a watched directory: it extracts
the title and author from each file name, matches them against the Calibre
catalog, and adds or converts the book as needed.

Run it from an inotify hook on the watched directory, or invoke it by hand.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newCatalogCmd())

	return cmd
}

// loadCatalog returns records from the given snapshot or listing file, or
// from calibredb when no file is given.
func loadCatalog(ctx context.Context, cfg *config.Config, catalogFile string) ([]catalog.Record, error) {
	if catalogFile != "" {
		return snapshot.LoadRecords(catalogFile)
	}
	client := calibre.NewClient(cfg.CalibreDBPath, cfg.EbookConvertPath)
	raw, err := client.List(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.ParseListing(raw), nil
}
