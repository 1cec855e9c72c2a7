package verify

import "strings"

// Requirement is one jurisdiction-mandated clause.
type Requirement struct {
	ID          string
	Description string
	MustContain []string
}

// texasLeaseRequirements is a simplified reading of the Texas Property
// Code for residential leases. A document passes a requirement when any
// of its phrases appears.
var texasLeaseRequirements = []Requirement{
	{
		ID:          "tx_prop_92_056",
		Description: "Landlord's duty to repair or remedy",
		MustContain: []string{"repair or remedy"},
	},
	{
		ID:          "tx_right_of_entry",
		Description: "Right of entry conditions",
		MustContain: []string{"notice"},
	},
	{
		ID:          "tx_security_deposit",
		Description: "Security deposit return timeline (30 days)",
		MustContain: []string{"30 days", "thirty days"},
	},
}

// ComplianceCheck is one requirement's verdict.
type ComplianceCheck struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// ComplianceReport scores a document against a jurisdiction's ruleset.
type ComplianceReport struct {
	Jurisdiction    string            `json:"jurisdiction"`
	DocumentType    string            `json:"document_type"`
	ComplianceScore float64           `json:"compliance_score"`
	Checks          []ComplianceCheck `json:"checks"`
}

// ComplianceChecker validates documents against jurisdiction-specific
// clause requirements.
type ComplianceChecker struct{}

func NewComplianceChecker() *ComplianceChecker {
	return &ComplianceChecker{}
}

// CheckTexasLease checks a lease document for the mandatory Texas
// clauses and returns a per-requirement report with an overall score.
func (c *ComplianceChecker) CheckTexasLease(text string) ComplianceReport {
	lower := strings.ToLower(text)

	report := ComplianceReport{
		Jurisdiction: "Texas, USA",
		DocumentType: "Residential Lease",
	}

	passed := 0
	for _, req := range texasLeaseRequirements {
		status := ResultFail
		for _, phrase := range req.MustContain {
			if strings.Contains(lower, phrase) {
				status = ResultPass
				passed++
				break
			}
		}
		report.Checks = append(report.Checks, ComplianceCheck{
			ID:          req.ID,
			Description: req.Description,
			Status:      status,
		})
	}
	report.ComplianceScore = float64(passed) / float64(len(texasLeaseRequirements)) * 100
	return report
}
