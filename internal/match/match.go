// Package match implements the word-set comparison primitive used by the
// extraction heuristics and the catalog resolver. Two strings "fuzzy match"
// when the token set of one contains the token set of the other, which
// tolerates reordering ("Last, First" vs "First Last"), punctuation noise,
// and truncated filename fragments.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// WordSeps is the general separator class: tokens are split on colons,
// underscores, periods, spaces, and commas. Call sites that need a different
// class (the resolver's author fields) pass their own.
const WordSeps = ":_. ,"

// AuthorSeps splits author fields, where periods follow initials and commas
// are part of the "Last, First" convention handled by set comparison.
const AuthorSeps = " ."

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold normalizes s for comparison: lower-cased with diacritics removed.
// Normalization happens only at comparison time; stored titles and authors
// keep their original form.
func Fold(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Set is a set of folded tokens.
type Set map[string]struct{}

// TokenSet splits s on any rune in seps and folds the resulting non-empty
// tokens into a Set. An empty or separator-only string yields an empty set.
func TokenSet(s, seps string) Set {
	fields := strings.FieldsFunc(Fold(s), func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
	set := make(Set, len(fields))
	for _, tok := range fields {
		set[tok] = struct{}{}
	}
	return set
}

// SubsetOf reports whether every token in s is present in t. The empty set
// is a subset of anything; callers guard against vacuous matches where an
// empty input must not count as agreement.
func (s Set) SubsetOf(t Set) bool {
	if len(s) > len(t) {
		return false
	}
	for tok := range s {
		if _, ok := t[tok]; !ok {
			return false
		}
	}
	return true
}

// Contains reports containment in either direction.
func Contains(a, b Set) bool {
	return a.SubsetOf(b) || b.SubsetOf(a)
}

// SubsetMatch reports whether the word set of one string contains the word
// set of the other, using the general separator class. It is symmetric.
func SubsetMatch(a, b string) bool {
	return Contains(TokenSet(a, WordSeps), TokenSet(b, WordSeps))
}
