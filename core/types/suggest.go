package types

import (
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxSuggestDistance bounds how far a typo may be from a known key.
const maxSuggestDistance = 2

// Suggest returns the known name closest to target, or "" if none is close.
// Candidates either contain target's letters in order (case-insensitive) or are
// within a small edit distance of it.
func Suggest(target string, known []string) string {
	best := ""
	bestDistance := -1

	consider := func(candidate string, distance int) {
		if bestDistance == -1 || distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}

	for _, rank := range fuzzy.RankFindFold(target, known) {
		consider(rank.Target, rank.Distance)
	}
	for _, candidate := range known {
		if d := fuzzy.LevenshteinDistance(target, candidate); d <= maxSuggestDistance {
			consider(candidate, d)
		}
	}

	return best
}
