package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal/constants"
)

const sampleInvoice = `ACME SUPPLY CO
Invoice No: INV-4452
Invoice Date: 03/15/2024
TOTAL DUE: $1,234.56`

func TestExtractInvoiceAllHeaderFields(t *testing.T) {
	e := NewInvoiceExtractor(discardLogger())

	rec := e.ExtractFromText("acme.pdf", sampleInvoice)

	assert.Equal(t, "acme.pdf", rec.Filename)
	assert.Equal(t, constants.MethodRegexHeuristic, rec.Method)
	assert.Equal(t, 99, rec.Confidence)

	require.NotNil(t, rec.Data.DocType)
	assert.Equal(t, "invoice", *rec.Data.DocType)

	total, ok := rec.Data.TotalAmount()
	require.True(t, ok)
	assert.Equal(t, 1234.56, total)

	assert.Equal(t, "INV-4452", rec.Data.InvoiceNumber())
	assert.Equal(t, "03/15/2024", rec.Data.InvoiceDate())
	assert.Equal(t, "ACME SUPPLY CO", rec.Data.VendorName())
}

func TestExtractInvoiceClassifiesShiftReport(t *testing.T) {
	e := NewInvoiceExtractor(discardLogger())

	rec := e.ExtractFromText("audit.pdf", "REGISTER 2 CLOSING\nTOTAL SALES: 4,821.03")

	require.NotNil(t, rec.Data.DocType)
	assert.Equal(t, "shift_report", *rec.Data.DocType)

	total, ok := rec.Data.TotalAmount()
	require.True(t, ok)
	assert.Equal(t, 4821.03, total)
}

func TestExtractInvoiceClassifiesLottery(t *testing.T) {
	e := NewInvoiceExtractor(discardLogger())

	rec := e.ExtractFromText("lotto.pdf", "SCRATCH TICKET SETTLEMENT WEEK 12")
	require.NotNil(t, rec.Data.DocType)
	assert.Equal(t, "lottery_report", *rec.Data.DocType)
}

func TestExtractInvoiceConfidenceFloorWithTotal(t *testing.T) {
	e := NewInvoiceExtractor(discardLogger())

	// Only the total is present: one field is 33 points, but a found
	// total floors confidence at 60.
	rec := e.ExtractFromText("x.pdf", "GRAND TOTAL $88.00")
	total, ok := rec.Data.TotalAmount()
	require.True(t, ok)
	assert.Equal(t, 88.0, total)
	assert.Equal(t, 60, rec.Confidence)
}

func TestExtractInvoiceEmptyText(t *testing.T) {
	e := NewInvoiceExtractor(discardLogger())

	rec := e.ExtractFromText("blank.pdf", "")
	assert.Equal(t, 0, rec.Confidence)
	assert.Nil(t, rec.Data.Vendor)
	assert.Nil(t, rec.Data.Financials)
}

func TestExtractInvoiceRejectsDigitlessNumber(t *testing.T) {
	e := NewInvoiceExtractor(discardLogger())

	rec := e.ExtractFromText("x.pdf", "INVOICE ENCLOSED")
	assert.Equal(t, "", rec.Data.InvoiceNumber())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1234.56", 1234.56, true},
		{"1,234.56", 1234.56, true},
		{"792,04", 792.04, true},
		{"", 0, false},
		{"N/A", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseAmount(tt.in)
		assert.Equal(t, tt.ok, ok, "parseAmount(%q)", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "parseAmount(%q)", tt.in)
		}
	}
}
