package extract

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"docportal/constants"
)

// Ordered pattern lists; the first hit wins. Total-amount labels go from
// most to least specific so "TOTAL SALES" on a shift report beats the
// generic "TOTAL".
var (
	invTotalRes = []*regexp.Regexp{
		regexp.MustCompile(`TOTAL\s*SALES\s*[:.]?\s*[$]?\s*([0-9,]+[.,][0-9]{2})`),
		regexp.MustCompile(`INVOICE\s*TOTAL\s*[:.]?\s*[$]?\s*([0-9,]+[.,][0-9]{2})`),
		regexp.MustCompile(`AMOUNT\s*DUE\s*[:.]?\s*[$]?\s*([0-9,]+[.,][0-9]{2})`),
		regexp.MustCompile(`TOTAL\s*(AMOUNT|DUE)?\s*[:.]?\s*[$]?\s*([0-9,]+[.,][0-9]{2})`),
		regexp.MustCompile(`BALANCE\s*DUE\s*[:.]?\s*[$]?\s*([0-9,]+[.,][0-9]{2})`),
		regexp.MustCompile(`GRAND\s*TOTAL\s*[:.]?\s*[$]?\s*([0-9,]+[.,][0-9]{2})`),
	}
	invDateRes = []*regexp.Regexp{
		regexp.MustCompile(`(INVOICE|BILL|DUE)\s*DATE\s*[:.]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		regexp.MustCompile(`DATE\s*[:.]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),
	}
	invNumberRes = []*regexp.Regexp{
		regexp.MustCompile(`(INVOICE|BILL)\s*(NO|NUMBER|#)?\s*[:.]?\s*([A-Za-z0-9-]+)`),
		regexp.MustCompile(`INV\s*[:.]?\s*([A-Za-z0-9-]+)`),
	}
)

// InvoiceExtractor pulls header fields out of OCR text from invoices and
// register reports. Line items are out of reach for the regex tier; the
// vision tier fills those in.
type InvoiceExtractor struct {
	logger *slog.Logger
}

func NewInvoiceExtractor(logger *slog.Logger) *InvoiceExtractor {
	return &InvoiceExtractor{logger: logger}
}

// classify buckets a page by keyword before field extraction. Shift-report
// keywords take precedence over lottery keywords.
func classify(upper string) string {
	for _, kw := range constants.ShiftReportKeywords {
		if strings.Contains(upper, kw) {
			return string(constants.DocTypeShiftReport)
		}
	}
	for _, kw := range constants.LotteryKeywords {
		if strings.Contains(upper, kw) {
			return string(constants.DocTypeLottery)
		}
	}
	return string(constants.DocTypeInvoice)
}

// parseAmount normalizes an OCR money string. European commas become
// dots, and when OCR noise yields several dots only the last survives as
// the decimal separator.
func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", ".")
	if n := strings.Count(s, "."); n > 1 {
		s = strings.Replace(s, ".", "", n-1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// ExtractFromText runs the regex tier over one page of OCR text.
// Confidence counts the three labeled header fields at 33 points each,
// with a floor of 60 whenever the total amount was found.
func (e *InvoiceExtractor) ExtractFromText(filename, text string) InvoiceRecord {
	upper := strings.ToUpper(text)

	data := InvoiceData{DocType: Ptr(classify(upper))}
	found := 0

	for _, re := range invTotalRes {
		m := re.FindStringSubmatch(upper)
		if m == nil {
			continue
		}
		if amount, ok := parseAmount(m[len(m)-1]); ok {
			data.Financials = &Financials{TotalAmount: Ptr(amount)}
			found++
		}
		break
	}

	for _, re := range invDateRes {
		if m := re.FindStringSubmatch(upper); m != nil {
			data.InvoiceDetails = &InvoiceDetails{Date: Ptr(m[len(m)-1])}
			found++
			break
		}
	}

	for _, re := range invNumberRes {
		m := re.FindStringSubmatch(upper)
		if m == nil {
			continue
		}
		val := m[len(m)-1]
		// A "number" with no digits is almost always a mislabeled word.
		if !hasDigit(val) {
			continue
		}
		if data.InvoiceDetails == nil {
			data.InvoiceDetails = &InvoiceDetails{}
		}
		data.InvoiceDetails.Number = Ptr(val)
		found++
		break
	}

	// First non-blank line is the best vendor guess the regex tier has.
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			data.Vendor = &Vendor{Name: Ptr(line)}
			break
		}
	}

	confidence := found * 33
	if confidence > 100 {
		confidence = 100
	}
	if data.Financials != nil && data.Financials.TotalAmount != nil && confidence < 60 {
		confidence = 60
	}

	e.logger.Debug("regex invoice extraction complete",
		slog.String("filename", filename),
		slog.String("doc_type", *data.DocType),
		slog.Int("fields_found", found),
		slog.Int("confidence", confidence))

	return InvoiceRecord{
		Filename:   filename,
		Data:       data,
		Confidence: confidence,
		Method:     constants.MethodRegexHeuristic,
	}
}
