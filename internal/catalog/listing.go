// Package catalog models the library catalog as seen through the catalog
// tool's tabular list output: one record per book id, with title and author
// columns that may wrap across continuation lines.
package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// Record is one row of the catalog listing.
type Record struct {
	ID     int
	Title  string
	Author string
}

var (
	skipLineRE  = regexp.MustCompile(`^(Fail|id +title)`)
	idPrefixRE  = regexp.MustCompile(`^(\d+) +`)
	columnGapRE = regexp.MustCompile(`  +`)
	bareWordsRE = regexp.MustCompile(`[\w;,&]+$`)
)

// ParseListing converts the catalog tool's aligned text output into records.
// A line starting with a numeric id opens a new record; a line without one
// continues the most recent record, joining its title fragment without a
// space when the title so far ends in a hyphen or slash (a word broken by
// column wrapping), otherwise with a single space. Author fragments are
// always space-joined. Header and failure lines are skipped, as are
// continuation lines that arrive before any record has started.
func ParseListing(raw string) []Record {
	var records []Record
	for _, line := range strings.Split(raw, "\n") {
		if line == "" || skipLineRE.MatchString(line) {
			continue
		}
		if m := idPrefixRE.FindStringSubmatch(line); m != nil {
			id, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			title, author := splitCells(line[len(m[0]):])
			records = append(records, Record{ID: id, Title: title, Author: author})
			continue
		}
		if len(records) == 0 {
			continue
		}
		continueRecord(&records[len(records)-1], line)
	}
	return records
}

// splitCells resolves the title and author cells of one physical line, with
// any id prefix already removed. Cells are separated by runs of two or more
// spaces. A lone cell on a line that ends in word-like content (letters,
// digits, semicolons, commas, ampersands) is an author whose title cell was
// empty, so it shifts right into the author slot.
func splitCells(text string) (title, author string) {
	fields := splitColumns(text)
	switch {
	case len(fields) >= 2:
		return fields[0], fields[1]
	case len(fields) == 1:
		if bareWordsRE.MatchString(text) {
			return "", fields[0]
		}
		return fields[0], ""
	}
	return "", ""
}

func continueRecord(rec *Record, line string) {
	title, author := splitCells(line)
	if title != "" {
		switch {
		case rec.Title == "":
			rec.Title = title
		case strings.HasSuffix(rec.Title, "-"), strings.HasSuffix(rec.Title, "/"):
			rec.Title += title
		default:
			rec.Title += " " + title
		}
	}
	if author != "" {
		if rec.Author == "" {
			rec.Author = author
		} else {
			rec.Author += " " + author
		}
	}
}

// splitColumns splits on runs of two or more spaces, dropping the empty
// cells left by leading indentation and trailing column padding.
func splitColumns(s string) []string {
	var fields []string
	for _, f := range columnGapRE.Split(s, -1) {
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Titles returns the non-empty titles of records, in listing order.
func Titles(records []Record) []string {
	titles := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Title != "" {
			titles = append(titles, rec.Title)
		}
	}
	return titles
}
