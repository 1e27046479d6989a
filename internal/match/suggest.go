package match

import (
	"sort"

	"github.com/hbollon/go-edlib"
)

// DefaultMinScore is the similarity floor below which a candidate is not
// worth suggesting.
const DefaultMinScore = 0.75

// Suggestion is a candidate string ranked by similarity to a query.
type Suggestion struct {
	Value string
	Score float32
}

// Suggest ranks candidates by Jaro-Winkler similarity to query and returns
// at most limit suggestions scoring at or above minScore. Ties are broken
// alphabetically so output is stable across runs.
func Suggest(query string, candidates []string, limit int, minScore float32) []Suggestion {
	if limit <= 0 || query == "" {
		return nil
	}
	folded := Fold(query)
	var ranked []Suggestion
	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		score := edlib.JaroWinklerSimilarity(folded, Fold(cand))
		if score < minScore {
			continue
		}
		ranked = append(ranked, Suggestion{Value: cand, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Value < ranked[j].Value
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
