package match

import (
	"fmt"
	"strings"
	"time"

	"docportal/constants"
	"docportal/internal/extract"
)

// ContractParty is one signatory on a contract, as parsed from the
// document text. Empty fields were not present in the contract.
type ContractParty struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	DOB     string `json:"dob"`
}

// dobFormats is tried in order. The US numeric forms come first so an
// ambiguous "03/04/1990" resolves month-first.
var dobFormats = []string{
	"01/02/2006",
	"01-02-2006",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

func parseDOB(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dobFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// fieldWeights drives the overall identity score. Address similarity
// contributes to the score but never gates the overall decision.
var fieldWeights = map[string]float64{
	"name":    0.4,
	"address": 0.4,
	"dob":     0.2,
}

const (
	overallThreshold   = 70.0
	verifiedThreshold  = 85.0
	reviewThreshold    = 60.0
	addressMatchCutoff = 70.0
)

// IdentityResult is the full report of matching one extracted ID against
// one contract party.
type IdentityResult struct {
	Fields         map[string]Result        `json:"field_results"`
	OverallScore   float64                  `json:"overall_score"`
	OverallMatch   bool                     `json:"overall_match"`
	Recommendation constants.Recommendation `json:"recommendation"`
	Notes          []string                 `json:"notes,omitempty"`
}

// IdentityMatcher compares extracted ID data against contract parties
// field by field and rolls the component results into one decision.
type IdentityMatcher struct {
	addrs  *AddressNormalizer
	names  *NameMatcher
	strict bool
}

// NewIdentityMatcher builds a matcher using the given fuzzy scorer for
// name comparison. strict raises the name acceptance thresholds.
func NewIdentityMatcher(scorer Scorer, strict bool) *IdentityMatcher {
	return &IdentityMatcher{
		addrs:  NewAddressNormalizer(),
		names:  NewNameMatcher(scorer),
		strict: strict,
	}
}

// MatchAddresses normalizes and compares two free-text addresses. Either
// side being blank yields a non-match with method missing_data.
func (m *IdentityMatcher) MatchAddresses(idAddr, contractAddr string) Result {
	if strings.TrimSpace(idAddr) == "" || strings.TrimSpace(contractAddr) == "" {
		return Result{
			Match:   false,
			Score:   0,
			Method:  constants.MatchMissingData,
			Details: "one or both addresses missing",
		}
	}
	score, components := m.addrs.CompareAddresses(idAddr, contractAddr)
	return Result{
		Match:      score >= addressMatchCutoff,
		Score:      score,
		Method:     constants.MatchNormalized,
		Details:    fmt.Sprintf("address similarity %.0f", score),
		Components: components,
	}
}

// MatchDOB parses both dates against the supported formats and requires
// exact calendar equality. Unparseable input is reported as a
// parsing_error rather than a silent non-match.
func (m *IdentityMatcher) MatchDOB(idDOB, contractDOB string) Result {
	if strings.TrimSpace(idDOB) == "" || strings.TrimSpace(contractDOB) == "" {
		return Result{
			Match:   false,
			Score:   0,
			Method:  constants.MatchMissingData,
			Details: "one or both dates of birth missing",
		}
	}
	a, okA := parseDOB(idDOB)
	b, okB := parseDOB(contractDOB)
	if !okA || !okB {
		bad := idDOB
		if okA {
			bad = contractDOB
		}
		return Result{
			Match:   false,
			Score:   0,
			Method:  constants.MatchParsingError,
			Details: fmt.Sprintf("unrecognized date format: %q", bad),
		}
	}
	if a.Equal(b) {
		return Result{
			Match:   true,
			Score:   100,
			Method:  constants.MatchExactDate,
			Details: "dates of birth match",
		}
	}
	return Result{
		Match:   false,
		Score:   0,
		Method:  constants.MatchExactDate,
		Details: fmt.Sprintf("dates of birth differ: %s vs %s", a.Format("2006-01-02"), b.Format("2006-01-02")),
	}
}

// AddressString flattens a structured extracted address into the
// free-text form the normalizer parses.
func AddressString(a *extract.Address) string {
	if a == nil {
		return ""
	}
	var parts []string
	if a.Street != nil && strings.TrimSpace(*a.Street) != "" {
		parts = append(parts, strings.TrimSpace(*a.Street))
	}
	if a.City != nil && strings.TrimSpace(*a.City) != "" {
		parts = append(parts, strings.TrimSpace(*a.City))
	}
	tail := ""
	if a.State != nil && strings.TrimSpace(*a.State) != "" {
		tail = strings.TrimSpace(*a.State)
	}
	if a.Zip != nil && strings.TrimSpace(*a.Zip) != "" {
		if tail != "" {
			tail += " " + strings.TrimSpace(*a.Zip)
		} else {
			tail = strings.TrimSpace(*a.Zip)
		}
	}
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

func idFullName(id *extract.IDData) string {
	if id == nil {
		return ""
	}
	if id.FullName != nil && strings.TrimSpace(*id.FullName) != "" {
		return strings.TrimSpace(*id.FullName)
	}
	var parts []string
	for _, p := range []*string{id.FirstName, id.MiddleName, id.LastName} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, " ")
}

// MatchIDToContract compares the requested fields of an extracted ID
// against one contract party. fields selects which of "name",
// "address", "dob" participate; nil means all three. Weights are
// renormalized over the requested set. Name is a hard gate, and DOB is
// a hard gate when requested; address similarity only feeds the score.
func (m *IdentityMatcher) MatchIDToContract(id *extract.IDData, party ContractParty, fields []string) IdentityResult {
	if len(fields) == 0 {
		fields = []string{"name", "address", "dob"}
	}
	requested := make(map[string]bool, len(fields))
	for _, f := range fields {
		requested[strings.ToLower(strings.TrimSpace(f))] = true
	}

	res := IdentityResult{Fields: make(map[string]Result, 3)}

	var totalWeight, weighted float64
	if requested["name"] {
		r := m.names.MatchNames(idFullName(id), party.Name, m.strict)
		res.Fields["name"] = r
		weighted += r.Score * fieldWeights["name"]
		totalWeight += fieldWeights["name"]
	}
	if requested["address"] {
		idAddr := ""
		if id != nil {
			idAddr = AddressString(id.Address)
		}
		r := m.MatchAddresses(idAddr, party.Address)
		res.Fields["address"] = r
		weighted += r.Score * fieldWeights["address"]
		totalWeight += fieldWeights["address"]
	}
	if requested["dob"] {
		idDOB := ""
		if id != nil && id.DOB != nil {
			idDOB = *id.DOB
		}
		r := m.MatchDOB(idDOB, party.DOB)
		res.Fields["dob"] = r
		weighted += r.Score * fieldWeights["dob"]
		totalWeight += fieldWeights["dob"]
	}

	if totalWeight > 0 {
		res.OverallScore = weighted / totalWeight
	}

	nameOK := true
	if r, ok := res.Fields["name"]; ok {
		nameOK = r.Match
		if !r.Match {
			res.Notes = append(res.Notes, "name mismatch")
		}
	}
	dobOK := true
	if r, ok := res.Fields["dob"]; ok {
		dobOK = r.Match
		if !r.Match {
			res.Notes = append(res.Notes, "date of birth mismatch")
		}
	}
	if r, ok := res.Fields["address"]; ok && !r.Match {
		res.Notes = append(res.Notes, "address similarity below threshold")
	}

	res.OverallMatch = nameOK && dobOK && res.OverallScore >= overallThreshold

	allMatched := true
	for _, r := range res.Fields {
		if !r.Match {
			allMatched = false
			break
		}
	}
	switch {
	case res.OverallMatch && allMatched && res.OverallScore >= verifiedThreshold:
		res.Recommendation = constants.RecommendationVerified
	case res.OverallScore >= reviewThreshold:
		res.Recommendation = constants.RecommendationReview
	default:
		res.Recommendation = constants.RecommendationRejected
	}
	return res
}
