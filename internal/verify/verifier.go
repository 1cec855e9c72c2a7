// Package verify checks claimed contract metadata against extracted
// document text: party names, addresses, and expected clause changes.
package verify

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"docportal/internal/match"
)

// Check outcomes.
const (
	ResultPass    = "pass"
	ResultWarn    = "warn"
	ResultFail    = "fail"
	ResultMissing = "missing"
)

// Entity thresholds: fuzzy below warnFloor fails, at or above passFloor
// passes. Clause checks run looser since legal text reflows freely.
const (
	entityPassFloor = 90.0
	entityWarnFloor = 70.0
	clausePassFloor = 85.0
	clauseWarnFloor = 60.0
)

var nonAlnumSpace = regexp.MustCompile(`[^a-z0-9 ]`)

func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(nonAlnumSpace.ReplaceAllString(s, ""))
}

// CheckResult is the outcome of one verification check.
type CheckResult struct {
	Result  string  `json:"result"`
	Score   float64 `json:"score"`
	Method  string  `json:"method"`
	Excerpt string  `json:"excerpt,omitempty"`
}

// Party is one claimed signatory.
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// ExpectedChange is a clause the caller expects to find in the document.
// ExpectedText wins when both fields are set.
type ExpectedChange struct {
	Clause       string `json:"clause,omitempty"`
	ExpectedText string `json:"expected_text,omitempty"`
}

// Claims is the metadata a caller asserts about a contract.
type Claims struct {
	PartyA          *Party           `json:"party_a,omitempty"`
	PartyB          *Party           `json:"party_b,omitempty"`
	ExpectedChanges []ExpectedChange `json:"expected_changes,omitempty"`
}

// Check is one entry in a verification report.
type Check struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Value string `json:"value"`
	CheckResult
}

// Report is the outcome of a quick verification pass.
type Report struct {
	Checks  []Check `json:"checks"`
	Summary Summary `json:"summary"`
}

type Summary struct {
	AverageScore float64 `json:"average_score"`
}

// Verifier runs deterministic and fuzzy checks of claims against
// document text.
type Verifier struct {
	scorer match.Scorer
	logger *slog.Logger
}

func NewVerifier(scorer match.Scorer, logger *slog.Logger) *Verifier {
	return &Verifier{scorer: scorer, logger: logger}
}

// VerifyEntity checks one claimed entity (a name or an address) against
// the document text. Exact substring beats normalized substring beats
// fuzzy similarity.
func (v *Verifier) VerifyEntity(claimed, documentText string) CheckResult {
	if normalizeText(claimed) == "" {
		return CheckResult{Result: ResultMissing, Score: 0, Method: "none"}
	}

	if strings.Contains(documentText, claimed) {
		return CheckResult{Result: ResultPass, Score: 100, Method: "exact", Excerpt: claimed}
	}
	if strings.Contains(normalizeText(documentText), normalizeText(claimed)) {
		return CheckResult{Result: ResultPass, Score: 95, Method: "normalized_exact"}
	}

	score := v.scorer.TokenSortRatio(normalizeText(claimed), normalizeText(documentText))
	switch {
	case score >= entityPassFloor:
		return CheckResult{Result: ResultPass, Score: score, Method: "fuzzy"}
	case score >= entityWarnFloor:
		return CheckResult{Result: ResultWarn, Score: score, Method: "fuzzy"}
	default:
		return CheckResult{Result: ResultFail, Score: score, Method: "fuzzy"}
	}
}

// VerifyClause checks whether an expected clause appears in the
// document, exactly or approximately.
func (v *Verifier) VerifyClause(expectedText, documentText string) CheckResult {
	if strings.Contains(documentText, expectedText) {
		return CheckResult{Result: ResultPass, Score: 100, Method: "exact", Excerpt: expectedText}
	}

	score := v.scorer.TokenSortRatio(normalizeText(expectedText), normalizeText(documentText))
	switch {
	case score >= clausePassFloor:
		return CheckResult{Result: ResultPass, Score: score, Method: "fuzzy"}
	case score >= clauseWarnFloor:
		return CheckResult{Result: ResultWarn, Score: score, Method: "fuzzy"}
	default:
		return CheckResult{Result: ResultFail, Score: score, Method: "fuzzy"}
	}
}

// QuickVerify runs the standard claim checks: both parties' names and
// addresses plus every expected clause change, then averages the scores.
func (v *Verifier) QuickVerify(claims Claims, documentText string) Report {
	var report Report

	addParty := func(key string, party *Party) {
		if party == nil {
			return
		}
		if party.Name != "" {
			res := v.VerifyEntity(party.Name, documentText)
			report.Checks = append(report.Checks, Check{
				ID: key + "_name", Type: "party_name", Value: party.Name, CheckResult: res,
			})
		}
		if party.Address != "" {
			res := v.VerifyEntity(party.Address, documentText)
			report.Checks = append(report.Checks, Check{
				ID: key + "_address", Type: "address", Value: party.Address, CheckResult: res,
			})
		}
	}
	addParty("party_a", claims.PartyA)
	addParty("party_b", claims.PartyB)

	for i, change := range claims.ExpectedChanges {
		expected := change.ExpectedText
		if expected == "" {
			expected = change.Clause
		}
		if expected == "" {
			continue
		}
		res := v.VerifyClause(expected, documentText)
		report.Checks = append(report.Checks, Check{
			ID: fmt.Sprintf("clause_%d", i), Type: "clause_change", Value: expected, CheckResult: res,
		})
	}

	var total float64
	for _, c := range report.Checks {
		total += c.Score
	}
	if n := len(report.Checks); n > 0 {
		report.Summary.AverageScore = total / float64(n)
	}
	return report
}

// Job statuses for deferred verification.
const (
	JobQueued    = "queued"
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobNotFound  = "not_found"
)

// Job is a stored verification result.
type Job struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Result *Report `json:"result,omitempty"`
}

// JobStore holds verification jobs in memory. Good enough for a single
// process; swap in a queue-backed worker for anything bigger.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]Job)}
}

// Enqueue runs a verification pass and records the result under a fresh
// job ID.
func (s *JobStore) Enqueue(v *Verifier, claims Claims, documentText string) string {
	id := uuid.NewString()

	s.mu.Lock()
	s.jobs[id] = Job{ID: id, Status: JobQueued}
	s.mu.Unlock()

	report := v.QuickVerify(claims, documentText)

	s.mu.Lock()
	s.jobs[id] = Job{ID: id, Status: JobCompleted, Result: &report}
	s.mu.Unlock()
	return id
}

// Get returns the job for id, or a not_found placeholder.
func (s *JobStore) Get(id string) Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if job, ok := s.jobs[id]; ok {
		return job
	}
	return Job{ID: id, Status: JobNotFound}
}
