package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/calibre-utils/bookdrop/internal/catalog"
	"github.com/calibre-utils/bookdrop/internal/config"
	"github.com/calibre-utils/bookdrop/internal/extract"
	"github.com/calibre-utils/bookdrop/internal/match"
	"github.com/calibre-utils/bookdrop/internal/resolve"
)

const (
	notifySummary  = "bookdrop"
	maxSuggestions = 3
)

// Status is the terminal outcome of processing one file.
type Status int

const (
	StatusProcessed Status = iota
	StatusDryRun
	StatusFileMissing
	StatusNoExtension
	StatusTitleEmpty
	StatusCannotExtract
	StatusAddFailed
	StatusFormatInDB
	StatusPDFSkipped
	StatusConvertFailed
	StatusAddFormatFailed
	StatusMoveFailed
)

func (s Status) String() string {
	switch s {
	case StatusProcessed:
		return "processed"
	case StatusDryRun:
		return "dry-run"
	case StatusFileMissing:
		return "file-missing"
	case StatusNoExtension:
		return "no-extension"
	case StatusTitleEmpty:
		return "title-empty"
	case StatusCannotExtract:
		return "cannot-extract"
	case StatusAddFailed:
		return "add-failed"
	case StatusFormatInDB:
		return "format-in-db"
	case StatusPDFSkipped:
		return "pdf-skipped"
	case StatusConvertFailed:
		return "convert-failed"
	case StatusAddFormatFailed:
		return "add-format-failed"
	case StatusMoveFailed:
		return "move-failed"
	default:
		return "unknown"
	}
}

// Result records what happened to one file.
type Result struct {
	File        string
	Title       string
	Author      string
	BookID      int
	Resolution  string
	Status      Status
	Suggestions []match.Suggestion
	Err         error
}

// CatalogTool is the calibredb surface the pipeline depends on.
type CatalogTool interface {
	List(ctx context.Context) (string, error)
	Add(ctx context.Context, path string) (int, error)
	AddFormat(ctx context.Context, id int, path string) error
	Formats(ctx context.Context, id int, title string) ([]string, error)
}

// Converter produces a book in another format.
type Converter interface {
	Convert(ctx context.Context, src, dst string) (string, error)
}

// Notifier posts desktop notifications.
type Notifier interface {
	Notify(summary, body string)
}

// Pipeline drives watched-folder files through extraction, catalog
// resolution, and calibredb.
type Pipeline struct {
	cfg      config.Config
	calibre  CatalogTool
	convert  Converter
	notifier Notifier
	dryRun   bool
}

// New creates a pipeline. A nil notifier disables notifications. In dry-run
// mode files are extracted and resolved but nothing is added, converted,
// or moved.
func New(cfg config.Config, calibre CatalogTool, converter Converter, notifier Notifier, dryRun bool) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		calibre:  calibre,
		convert:  converter,
		notifier: notifier,
		dryRun:   dryRun,
	}
}

// FetchRecords loads the current catalog listing from calibredb.
func (p *Pipeline) FetchRecords(ctx context.Context) ([]catalog.Record, error) {
	raw, err := p.calibre.List(ctx)
	if err != nil {
		return nil, err
	}
	records := catalog.ParseListing(raw)
	slog.Debug("Parsed catalog listing", "records", len(records))
	return records, nil
}

// Run processes the given files against the catalog records, one file at a
// time. A failure on one file does not stop the batch.
func (p *Pipeline) Run(ctx context.Context, paths []string, records []catalog.Record) []Result {
	extractor := extract.New(records, extract.Options{
		Markers:         p.cfg.StripMarkers,
		MaxHyphenSplits: p.cfg.MaxHyphenSplits,
	})

	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		res := p.processFile(ctx, path, extractor, records)
		p.notifyResult(res)
		if res.Err != nil {
			slog.Error("Processing failed", "file", res.File, "status", res.Status.String(), "error", res.Err)
		} else {
			slog.Info("Processed file", "file", res.File, "status", res.Status.String(), "title", res.Title, "author", res.Author)
		}
		results = append(results, res)
	}
	return results
}

var extensionRE = regexp.MustCompile(`\.[a-zA-Z0-9]+$`)

// SplitExtension splits a file name on its final dot-extension. ok is
// false when the name has no extension to split.
func SplitExtension(name string) (base, ext string, ok bool) {
	loc := extensionRE.FindStringIndex(name)
	if loc == nil {
		return name, "", false
	}
	return name[:loc[0]], name[loc[0]+1:], true
}

func (p *Pipeline) processFile(ctx context.Context, path string, extractor *extract.Extractor, records []catalog.Record) Result {
	res := Result{File: filepath.Base(path)}

	if _, err := os.Stat(path); err != nil {
		res.Status = StatusFileMissing
		return res
	}

	p.notify(fmt.Sprintf("Processing file %q ...", res.File))

	base, extension, ok := SplitExtension(res.File)
	if !ok {
		res.Status = StatusNoExtension
		return res
	}

	ext := extractor.Extract(base)
	res.Title, res.Author = ext.Title, ext.Author
	switch ext.Status {
	case extract.TitleEmpty:
		res.Status = StatusTitleEmpty
		return res
	case extract.Unresolved:
		res.Status = StatusCannotExtract
		return res
	}

	out := resolve.Resolve(ext, records)
	res.Resolution = out.Kind.String()
	if out.Kind == resolve.Unresolvable {
		res.Status = StatusCannotExtract
		return res
	}
	res.Title, res.Author = out.Title, out.Author
	if out.Kind == resolve.NewTitle {
		res.Suggestions = match.Suggest(out.Title, catalog.Titles(records), maxSuggestions, match.DefaultMinScore)
	}

	if p.dryRun {
		res.Status = StatusDryRun
		return res
	}

	bookID := out.ID
	if out.Kind == resolve.NewTitle {
		id, err := p.calibre.Add(ctx, path)
		if err != nil {
			res.Status = StatusAddFailed
			res.Err = err
			return res
		}
		bookID = id
		slog.Info("Added book", "file", res.File, "id", id, "title", res.Title)
	}
	res.BookID = bookID

	if strings.EqualFold(extension, "pdf") {
		res.Status = StatusPDFSkipped
		return p.finishMove(path, res)
	}

	formats, err := p.calibre.Formats(ctx, bookID, res.Title)
	if err != nil {
		slog.Warn("Failed to list existing formats", "id", bookID, "error", err)
	}
	if containsFormat(formats, p.cfg.TargetFormat) {
		res.Status = StatusFormatInDB
		return p.finishMove(path, res)
	}

	if err := os.MkdirAll(p.cfg.StagingDir, 0755); err != nil {
		res.Status = StatusConvertFailed
		res.Err = fmt.Errorf("failed to create staging directory: %w", err)
		return p.finishMove(path, res)
	}

	staged := filepath.Join(p.cfg.StagingDir, base+"."+p.cfg.TargetFormat)
	outFile, err := p.convert.Convert(ctx, path, staged)
	if err != nil {
		res.Status = StatusConvertFailed
		res.Err = err
		return p.finishMove(path, res)
	}
	p.notify(fmt.Sprintf("Converted %q to %s", res.File, p.cfg.TargetFormat))

	// The original moves to the processed directory before the new format
	// is registered, so a failed add_format never re-triggers ingestion.
	if err := p.moveOriginal(path); err != nil {
		res.Status = StatusMoveFailed
		res.Err = err
		return res
	}

	if err := p.calibre.AddFormat(ctx, bookID, outFile); err != nil {
		res.Status = StatusAddFormatFailed
		res.Err = err
		return res
	}

	if err := os.Remove(outFile); err != nil {
		slog.Warn("Failed to remove converted file", "file", outFile, "error", err)
	}

	res.Status = StatusProcessed
	return res
}

func containsFormat(formats []string, target string) bool {
	for _, f := range formats {
		if f == target {
			return true
		}
	}
	return false
}

// moveOriginal renames the ingested file into the processed directory.
func (p *Pipeline) moveOriginal(path string) error {
	if err := os.MkdirAll(p.cfg.ProcessedDir, 0755); err != nil {
		return fmt.Errorf("failed to create processed directory: %w", err)
	}
	dst := filepath.Join(p.cfg.ProcessedDir, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		return fmt.Errorf("failed to move original: %w", err)
	}
	slog.Info("Moved original", "from", path, "to", dst)
	return nil
}

func (p *Pipeline) finishMove(path string, res Result) Result {
	if err := p.moveOriginal(path); err != nil {
		res.Status = StatusMoveFailed
		res.Err = err
	}
	return res
}

func (p *Pipeline) notify(text string) {
	if p.notifier == nil || p.dryRun {
		return
	}
	p.notifier.Notify(notifySummary, text)
}

func (p *Pipeline) notifyResult(res Result) {
	file := res.File
	var text string

	switch res.Status {
	case StatusFileMissing:
		text = fmt.Sprintf("The file %q does not exist.", file)
	case StatusNoExtension:
		text = fmt.Sprintf("Received file %q, cannot process a file without extension.", file)
	case StatusTitleEmpty:
		text = fmt.Sprintf("Book title not found in file %q", file)
	case StatusCannotExtract:
		text = fmt.Sprintf("Unable to extract book title from the received file name %q", file)
	case StatusAddFailed:
		text = fmt.Sprintf("Unable to add book: received file %q", file)
	case StatusFormatInDB:
		text = fmt.Sprintf("%q is in Calibre in %s, moving it to %s", file, p.cfg.TargetFormat, p.cfg.ProcessedDir)
	case StatusPDFSkipped:
		text = fmt.Sprintf("%q is a PDF file, please try manual conversion", file)
	case StatusConvertFailed:
		text = fmt.Sprintf("Unable to convert %q to %s", file, p.cfg.TargetFormat)
	case StatusAddFormatFailed:
		text = fmt.Sprintf("Unable to add format: received file %q", file)
	case StatusMoveFailed:
		text = fmt.Sprintf("Unable to move %q to %s", file, p.cfg.ProcessedDir)
	case StatusProcessed:
		text = fmt.Sprintf("%q is in Calibre and converted to %s, moving it to %s", file, p.cfg.TargetFormat, p.cfg.ProcessedDir)
	default:
		return
	}

	p.notify(text)
}

// ListFiles returns every regular file under dir, walked in lexical order.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	return files, nil
}
