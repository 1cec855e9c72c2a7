package match

import (
	"strings"

	"docportal/constants"
)

// ParsedName is the first/middle/last breakdown of a personal name. Last is
// always set when any token existed; a single-token name fills both first
// and last.
type ParsedName struct {
	First  string `json:"first,omitempty"`
	Middle string `json:"middle,omitempty"`
	Last   string `json:"last,omitempty"`
}

// NameScores carries the component-level detail behind a fuzzy_components
// match.
type NameScores struct {
	FirstNameScore  float64 `json:"first_name_score"`
	LastNameScore   float64 `json:"last_name_score"`
	MiddleNameMatch bool    `json:"middle_name_match"`
}

// Result is the outcome of a field-level match. Score is always retained so
// callers can apply their own threshold policy; Match is never a raw boolean
// without it.
type Result struct {
	Match      bool                  `json:"match"`
	Score      float64               `json:"score"`
	Method     constants.MatchMethod `json:"method"`
	Details    string                `json:"details,omitempty"`
	Name       *NameScores           `json:"name_scores,omitempty"`
	Components map[string]bool       `json:"component_matches,omitempty"`
}

// ParseName splits a personal name into components. A comma means
// "Last, First Middle" and the remainder is reordered before the usual
// layout rules apply.
func ParseName(name string) ParsedName {
	name = strings.TrimSpace(name)

	if strings.Contains(name, ",") {
		parts := strings.SplitN(name, ",", 2)
		last := strings.TrimSpace(parts[0])
		rest := strings.Fields(parts[1])
		p := ParsedName{Last: last}
		if len(rest) > 0 {
			p.First = rest[0]
		}
		if len(rest) > 1 {
			p.Middle = strings.Join(rest[1:], " ")
		}
		return p
	}

	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ParsedName{}
	case 1:
		return ParsedName{First: parts[0], Last: parts[0]}
	case 2:
		return ParsedName{First: parts[0], Last: parts[1]}
	default:
		return ParsedName{
			First:  parts[0],
			Middle: strings.Join(parts[1:len(parts)-1], " "),
			Last:   parts[len(parts)-1],
		}
	}
}

// NameMatcher scores personal names tolerant of initials, reordering and
// transliteration noise.
type NameMatcher struct {
	scorer Scorer
}

func NewNameMatcher(scorer Scorer) *NameMatcher {
	return &NameMatcher{scorer: scorer}
}

// componentCutoff is the per-component score both first and last names must
// exceed before the component strategy applies.
const componentCutoff = 90

// MatchNames compares two personal names. Strict mode raises the acceptance
// thresholds to trade false positives for false negatives.
func (m *NameMatcher) MatchNames(idName, contractName string, strict bool) Result {
	if strings.TrimSpace(idName) == "" || strings.TrimSpace(contractName) == "" {
		return Result{
			Method:  constants.MatchMissingData,
			Details: "one or both names are missing",
		}
	}

	idNorm := normalizeName(idName)
	contractNorm := normalizeName(contractName)

	if idNorm == contractNorm {
		return Result{Match: true, Score: 100, Method: constants.MatchExact, Details: "exact match"}
	}

	idParts := ParseName(idNorm)
	contractParts := ParseName(contractNorm)

	// Strategy 1: first + last independently (ignore middle).
	firstScore := m.compare(idParts.First, contractParts.First)
	lastScore := m.compare(idParts.Last, contractParts.Last)

	if firstScore > componentCutoff && lastScore > componentCutoff {
		middleOK := MiddleNamesCompatible(idParts.Middle, contractParts.Middle)

		score := (firstScore + lastScore) / 2
		if middleOK {
			score = min(score+5, 100)
		}

		threshold := 85.0
		if strict {
			threshold = 95
		}
		return Result{
			Match:  score >= threshold,
			Score:  score,
			Method: constants.MatchFuzzyComponents,
			Name: &NameScores{
				FirstNameScore:  firstScore,
				LastNameScore:   lastScore,
				MiddleNameMatch: middleOK,
			},
		}
	}

	// Strategy 2: full-string token-order-insensitive fallback.
	fuzzyScore := m.scorer.TokenSortRatio(idNorm, contractNorm)

	threshold := 80.0
	if strict {
		threshold = 90
	}
	return Result{
		Match:   fuzzyScore >= threshold,
		Score:   fuzzyScore,
		Method:  constants.MatchFuzzyFull,
		Details: "full string fuzzy match",
	}
}

// MiddleNamesCompatible reports whether two middle names are consistent.
// Absence on either side is never a disqualifier; a single-letter initial
// matches a full name starting with it. Two different full middle names are
// a genuine mismatch signal ("Michael" vs "Mike").
func MiddleNamesCompatible(m1, m2 string) bool {
	if m1 == "" || m2 == "" {
		return true
	}

	m1 = strings.TrimSpace(strings.ReplaceAll(m1, ".", ""))
	m2 = strings.TrimSpace(strings.ReplaceAll(m2, ".", ""))

	if m1 == m2 {
		return true
	}
	if len(m1) == 1 && strings.HasPrefix(m2, m1) {
		return true
	}
	if len(m2) == 1 && strings.HasPrefix(m1, m2) {
		return true
	}
	return false
}

func (m *NameMatcher) compare(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0
	}
	if s1 == s2 {
		return 100
	}
	return m.scorer.Ratio(s1, s2)
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToUpper(strings.TrimSpace(name))), " ")
}
