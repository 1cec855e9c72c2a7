package match

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Scorer computes string similarity on a 0-100 scale. Two backends exist so
// the matching contract stays identical whether or not an edit-distance
// implementation is wired in; callers pick one at construction time.
type Scorer interface {
	// Ratio compares two strings as-is.
	Ratio(a, b string) float64
	// TokenSortRatio compares two strings after sorting their
	// whitespace-delimited tokens, making it order-insensitive
	// ("John Smith" vs "Smith John").
	TokenSortRatio(a, b string) float64
}

// NewScorer returns the scorer for the named backend. Unknown names fall
// back to the Jaccard scorer.
func NewScorer(backend string) Scorer {
	if strings.EqualFold(backend, "levenshtein") {
		return LevenshteinScorer{}
	}
	return JaccardScorer{}
}

// LevenshteinScorer scores by normalized edit distance.
type LevenshteinScorer struct{}

func (LevenshteinScorer) Ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	max := len([]rune(a))
	if n := len([]rune(b)); n > max {
		max = n
	}
	if max == 0 {
		return 0
	}
	return 100 * (1 - float64(dist)/float64(max))
}

func (s LevenshteinScorer) TokenSortRatio(a, b string) float64 {
	return s.Ratio(sortTokens(a), sortTokens(b))
}

// JaccardScorer scores by character-set overlap. Order-insensitive by
// construction and only a coarse filter; adequate for city/street-name
// disambiguation, not for anything security-critical.
type JaccardScorer struct{}

func (JaccardScorer) Ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	return 100 * charJaccard(a, b)
}

func (s JaccardScorer) TokenSortRatio(a, b string) float64 {
	return s.Ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func charJaccard(a, b string) float64 {
	setA := make(map[rune]struct{}, len(a))
	for _, r := range a {
		setA[r] = struct{}{}
	}
	setB := make(map[rune]struct{}, len(b))
	for _, r := range b {
		setB[r] = struct{}{}
	}
	inter := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]`)

// stripNonAlnum uppercases and removes everything outside A-Z0-9.
func stripNonAlnum(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToUpper(s), "")
}
