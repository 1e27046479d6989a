// Package extract turns a noisy e-book base filename into a title and an
// optional author, using the parsed catalog to disambiguate the ordering of
// hyphen-separated fields. Heuristics run in priority order: a " by "
// separator wins outright, then a " - " split cross-checked against the
// catalog, then the whole string as the title.
package extract

import (
	"regexp"
	"strings"

	"github.com/calibre-utils/bookdrop/internal/catalog"
	"github.com/calibre-utils/bookdrop/internal/match"
)

// NoID marks an extraction that did not land on a catalog record.
const NoID = -1

// Status classifies an extraction attempt.
type Status int

const (
	// Resolved means a title was extracted. It does not imply a catalog
	// hit; callers check whether ID is a known id or NoID.
	Resolved Status = iota
	// TitleEmpty means the input was empty once noise was stripped.
	TitleEmpty
	// Unresolved means cleanup consumed the whole candidate title.
	Unresolved
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case TitleEmpty:
		return "title-empty"
	case Unresolved:
		return "unresolved"
	}
	return "unknown"
}

// Extraction is the extractor's best guess for one filename.
type Extraction struct {
	ID     int
	Title  string
	Author string
	Status Status
}

// Options tune the extractor. Zero values select the defaults.
type Options struct {
	// Markers are branding strings deleted from titles, each optionally
	// followed by a .org suffix and optionally parenthesized.
	Markers []string
	// MaxHyphenSplits bounds how many nested " - " splits the fallback
	// re-attempts on the left-hand side of an unmatched split.
	MaxHyphenSplits int
}

// DefaultMarker is the branding tag most commonly found in the wild.
const DefaultMarker = "z-lib"

const defaultMaxHyphenSplits = 4

// separator between a title and an author in release-style filenames
const hyphenSep = " - "

var trailingParenRE = regexp.MustCompile(`\(.*\) *$`)

// Extractor applies the extraction heuristics against one catalog snapshot.
type Extractor struct {
	records   []catalog.Record
	markerREs []*regexp.Regexp
	maxSplits int
}

// New builds an Extractor over records, which it treats as read-only.
func New(records []catalog.Record, opts Options) *Extractor {
	markers := opts.Markers
	if len(markers) == 0 {
		markers = []string{DefaultMarker}
	}
	maxSplits := opts.MaxHyphenSplits
	if maxSplits <= 0 {
		maxSplits = defaultMaxHyphenSplits
	}
	e := &Extractor{records: records, maxSplits: maxSplits}
	for _, m := range markers {
		e.markerREs = append(e.markerREs, regexp.MustCompile(`\(?`+regexp.QuoteMeta(m)+`(\.org)?\)?`))
	}
	return e
}

// Extract parses base, a filename without its extension, into a title and
// an optional author. A " by " separator takes precedence over a " - "
// split; with no separator the whole stripped string is the title and the
// author is whatever bracket recovery produced. Titles and authors keep
// their original casing and punctuation; normalization happens only inside
// the matcher.
func (e *Extractor) Extract(base string) Extraction {
	working, recovered := e.StripNoise(base)
	if working == "" {
		return Extraction{ID: NoID, Status: TitleEmpty}
	}

	if i := strings.LastIndex(working, " by "); i >= 0 {
		return Extraction{
			ID:     NoID,
			Title:  strings.TrimSpace(working[:i]),
			Author: strings.TrimSpace(working[i+len(" by "):]),
			Status: Resolved,
		}
	}

	info := e.splitOnHyphen(working, 0)
	if info.ID != NoID {
		// Direct catalog hit: keep the record's fields verbatim.
		return info
	}

	title := strings.TrimSpace(trailingParenRE.ReplaceAllString(info.Title, ""))
	author := info.Author
	if author == "" {
		author = recovered
	}
	if title == "" {
		return Extraction{ID: NoID, Author: author, Status: Unresolved}
	}
	return Extraction{ID: NoID, Title: title, Author: author, Status: Resolved}
}

// splitOnHyphen splits working at its first " - " and decides which side is
// the title. The right-hand side is the title unless it looks like a known
// author and not like a known title. Both orderings are then cross-checked
// against the catalog for a direct hit. When no hit is found and the string
// holds more than one separator, the split re-attempts on everything left
// of the last one, at most maxSplits levels deep; only a direct hit from
// the re-attempt replaces the plain split answer.
func (e *Extractor) splitOnHyphen(working string, depth int) Extraction {
	before, after, found := strings.Cut(working, hyphenSep)
	if !found {
		return Extraction{ID: NoID, Title: working, Status: Resolved}
	}
	before = strings.TrimSpace(before)
	after = strings.TrimLeft(strings.TrimSpace(after), "- ")

	titleAfter := e.isTitle(after) || !e.isName(after)
	candTitle, candAuthor := after, before
	if !titleAfter {
		candTitle, candAuthor = before, after
	}

	if candTitle != "" {
		for _, rec := range e.records {
			if rec.Title == "" || !match.SubsetMatch(candTitle, rec.Title) {
				continue
			}
			if candAuthor != "" && rec.Author != "" && match.SubsetMatch(candAuthor, rec.Author) ||
				rec.Author != "" && match.SubsetMatch(rec.Author, candTitle) {
				return Extraction{ID: rec.ID, Title: rec.Title, Author: rec.Author, Status: Resolved}
			}
		}
		for _, rec := range e.records {
			if rec.Author == "" || !match.SubsetMatch(candTitle, rec.Author) {
				continue
			}
			if candAuthor != "" && rec.Title != "" && match.SubsetMatch(candAuthor, rec.Title) {
				return Extraction{ID: rec.ID, Title: rec.Title, Author: rec.Author, Status: Resolved}
			}
		}
	}

	if j := strings.LastIndex(working, hyphenSep); depth+1 < e.maxSplits && j > strings.Index(working, hyphenSep) {
		if hit := e.splitOnHyphen(working[:j], depth+1); hit.ID != NoID {
			return hit
		}
	}

	title := candTitle
	if title == "" {
		title = working
	}
	return Extraction{ID: NoID, Title: title, Author: candAuthor, Status: Resolved}
}

// isTitle reports whether s fuzzy-matches any catalog title. An empty probe
// never matches.
func (e *Extractor) isTitle(s string) bool {
	if s == "" {
		return false
	}
	for _, rec := range e.records {
		if rec.Title != "" && match.SubsetMatch(s, rec.Title) {
			return true
		}
	}
	return false
}

// isName reports whether s fuzzy-matches any catalog author. An empty probe
// never matches.
func (e *Extractor) isName(s string) bool {
	if s == "" {
		return false
	}
	for _, rec := range e.records {
		if rec.Author != "" && match.SubsetMatch(s, rec.Author) {
			return true
		}
	}
	return false
}
