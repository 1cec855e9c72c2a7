package constants

import "strings"

// DocType classifies a scanned document page.
type DocType string

const (
	DocTypeInvoice     DocType = "invoice"
	DocTypeShiftReport DocType = "shift_report"
	DocTypeLottery     DocType = "lottery_report"
	DocTypeReceipt     DocType = "receipt"
	DocTypeOther       DocType = "other"
)

// ShiftReportKeywords mark a page as a till/shift/audit report during
// regex classification.
var ShiftReportKeywords = []string{"TILL", "SHIFT", "PUMP", "REGISTER", "SAFE LOANS"}

// LotteryKeywords mark a page as a lottery report.
var LotteryKeywords = []string{"MEGA", "LOTO", "SCRATCH", "JACKPOT"}

// IsShiftLike reports whether a free-form doc_type string names a
// shift/audit/report style document.
func IsShiftLike(docType string) bool {
	s := strings.ToLower(docType)
	return strings.Contains(s, "shift") || strings.Contains(s, "audit") || strings.Contains(s, "report")
}
