package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/calibre-utils/bookdrop/internal/catalog"
	"github.com/parquet-go/parquet-go"
)

// Entry is one row of a catalog snapshot. Snapshots let a calibredb
// listing be captured once and re-resolved offline.
type Entry struct {
	ID       int    `json:"id" parquet:"id"`
	Title    string `json:"title" parquet:"title"`
	Author   string `json:"author" parquet:"author"`
	Language string `json:"language" parquet:"language"` // ISO 639-3 code
}

// FromRecords converts catalog records into snapshot rows, detecting the
// language of each title.
func FromRecords(records []catalog.Record) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, Entry{
			ID:       rec.ID,
			Title:    rec.Title,
			Author:   rec.Author,
			Language: DetectLanguage(rec.Title),
		})
	}
	return entries
}

// Records converts snapshot rows back into catalog records.
func Records(entries []Entry) []catalog.Record {
	records := make([]catalog.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, catalog.Record{ID: e.ID, Title: e.Title, Author: e.Author})
	}
	return records
}

// DetectLanguage returns the ISO 639-3 code detected for text, or ""
// when there is nothing to detect.
func DetectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	return whatlanggo.LangToString(info.Lang)
}

// Write saves entries to path as Parquet or JSONL, chosen by the file
// extension.
func Write(path string, entries []Entry) error {
	var data []byte
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		data, err = marshalParquet(entries)
	case ".jsonl", ".json":
		data, err = marshalJSONL(entries)
	default:
		return fmt.Errorf("unsupported snapshot format: %s (supported: .parquet, .jsonl)", ext)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}

	slog.Debug("Wrote snapshot", "path", path, "entries", len(entries))
	return nil
}

// Read loads entries from path, detecting the format from the file
// extension.
func Read(path string) ([]Entry, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return readParquet(path)
	case ".jsonl", ".json":
		return readJSONL(path)
	default:
		return nil, fmt.Errorf("unsupported snapshot format: %s (supported: .parquet, .jsonl)", ext)
	}
}

// LoadRecords reads catalog records from path. Snapshot files (.parquet,
// .jsonl, .json) are decoded directly; any other file is treated as raw
// calibredb listing output and parsed line by line.
func LoadRecords(path string) ([]catalog.Record, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet", ".jsonl", ".json":
		entries, err := Read(path)
		if err != nil {
			return nil, err
		}
		return Records(entries), nil
	default:
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file: %w", err)
		}
		return catalog.ParseListing(string(raw)), nil
	}
}

func marshalParquet(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[Entry](&buf)
	if len(entries) > 0 {
		if _, err := writer.Write(entries); err != nil {
			return nil, fmt.Errorf("failed to write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func marshalJSONL(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal entry %d: %w", e.ID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func readJSONL(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)

	// Increase buffer size for large JSON lines
	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading snapshot: %w", err)
	}

	slog.Debug("Finished reading JSONL snapshot", "total_entries", len(entries), "total_lines", lineNum)

	return entries, nil
}

func readParquet(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet snapshot opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Entry](pf)
	defer reader.Close()

	var entries []Entry
	rows := make([]Entry, 128) // Read in batches

	for {
		n, err := reader.Read(rows)
		if n > 0 {
			entries = append(entries, rows[:n]...)
		}
		if err != nil {
			break
		}
	}

	return entries, nil
}
