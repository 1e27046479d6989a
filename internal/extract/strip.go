package extract

import (
	"regexp"
	"strings"

	"github.com/calibre-utils/bookdrop/internal/match"
)

// bracketRE locates series-style annotations: alphanumerics, spaces, and
// hyphens wrapped in parentheses or square brackets, e.g. "(Book 3)".
var bracketRE = regexp.MustCompile(`[\[(][a-zA-Z0-9 -]+[\])]`)

// StripNoise removes series annotations, branding markers, and trailing
// stray punctuation from a raw title string. Before a bracket group is
// deleted, its contents are tried as a lookup key against catalog author
// fields; a match recovers that record's author, which covers names
// supplied only as a parenthetical, like "Dune (Frank Herbert)". The last
// bracket group in the string decides the recovery.
func (e *Extractor) StripNoise(s string) (cleaned, recoveredAuthor string) {
	if s == "" {
		return "", ""
	}
	if groups := bracketRE.FindAllString(s, -1); len(groups) > 0 {
		content := strings.Trim(groups[len(groups)-1], "()[]")
		if strings.TrimSpace(content) != "" {
			for _, rec := range e.records {
				if rec.Author != "" && match.SubsetMatch(content, rec.Author) {
					recoveredAuthor = rec.Author
					break
				}
			}
		}
		s = bracketRE.ReplaceAllString(s, "")
	}
	for _, re := range e.markerREs {
		s = re.ReplaceAllString(s, "")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "(.")
	return strings.TrimSpace(s), recoveredAuthor
}
