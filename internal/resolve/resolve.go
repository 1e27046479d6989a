// Package resolve decides what an extracted (title, author) guess means
// relative to the catalog: an existing entry, a brand-new title, or nothing
// usable.
package resolve

import (
	"regexp"
	"strings"

	"github.com/calibre-utils/bookdrop/internal/catalog"
	"github.com/calibre-utils/bookdrop/internal/extract"
	"github.com/calibre-utils/bookdrop/internal/match"
)

// Kind classifies a resolution outcome.
type Kind int

const (
	// ExistingEntry is a confident match to a catalog record.
	ExistingEntry Kind = iota
	// NewTitle means no record matched; the id is not yet assigned.
	NewTitle
	// Unresolvable means the extracted title was empty or unusable.
	Unresolvable
)

func (k Kind) String() string {
	switch k {
	case ExistingEntry:
		return "existing-entry"
	case NewTitle:
		return "new-title"
	case Unresolvable:
		return "unresolvable"
	}
	return "unknown"
}

// Outcome is the resolver's verdict. For ExistingEntry the fields are the
// matched record's; for NewTitle they are the extraction's own values,
// kept verbatim.
type Outcome struct {
	Kind   Kind
	ID     int
	Title  string
	Author string
}

// titlePunctRE is the punctuation ignored inside titles when matching.
var titlePunctRE = regexp.MustCompile(`[:_-]+`)

// Resolve scans records in listing order and returns the first one whose
// title agrees with the extraction: either the extracted title is a literal
// substring of the record title (both with colons, underscores, and hyphens
// removed), or their word sets contain one another. A non-empty extracted
// author must also agree, by being a word subset of the record's author, or
// of the record's title (authors folded into a wrapped title column), or by
// the record's author being a subset of the extracted title. An empty
// extracted author leaves title agreement to stand alone. Empty fields and
// empty word sets never count as agreement.
func Resolve(ext extract.Extraction, records []catalog.Record) Outcome {
	if ext.Status != extract.Resolved || ext.Title == "" {
		return Outcome{Kind: Unresolvable}
	}

	extTitle := titlePunctRE.ReplaceAllString(ext.Title, "")
	extTitleSet := match.TokenSet(extTitle, " ")
	extAuthorSet := match.TokenSet(ext.Author, match.AuthorSeps)

	for _, rec := range records {
		recTitle := titlePunctRE.ReplaceAllString(rec.Title, "")
		if recTitle == "" {
			continue
		}
		recTitleSet := match.TokenSet(recTitle, " ")
		if !titlesAgree(extTitle, extTitleSet, recTitle, recTitleSet) {
			continue
		}
		if ext.Author != "" && !authorsAgree(extAuthorSet, extTitleSet, recTitleSet, rec.Author) {
			continue
		}
		return Outcome{Kind: ExistingEntry, ID: rec.ID, Title: rec.Title, Author: rec.Author}
	}
	return Outcome{Kind: NewTitle, Title: ext.Title, Author: ext.Author}
}

func titlesAgree(extTitle string, extTitleSet match.Set, recTitle string, recTitleSet match.Set) bool {
	if extTitle != "" && strings.Contains(match.Fold(recTitle), match.Fold(extTitle)) {
		return true
	}
	return len(extTitleSet) > 0 && len(recTitleSet) > 0 && match.Contains(extTitleSet, recTitleSet)
}

func authorsAgree(extAuthorSet, extTitleSet, recTitleSet match.Set, recAuthor string) bool {
	recAuthorSet := match.TokenSet(recAuthor, match.AuthorSeps)
	if len(extAuthorSet) > 0 {
		if len(recAuthorSet) > 0 && extAuthorSet.SubsetOf(recAuthorSet) {
			return true
		}
		if len(recTitleSet) > 0 && extAuthorSet.SubsetOf(recTitleSet) {
			return true
		}
	}
	return len(recAuthorSet) > 0 && len(extTitleSet) > 0 && recAuthorSet.SubsetOf(extTitleSet)
}
