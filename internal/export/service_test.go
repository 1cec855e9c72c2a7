package export

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"docportal/constants"
	"docportal/internal/extract"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRecord() extract.InvoiceRecord {
	return extract.InvoiceRecord{
		Filename:   "inv-001.pdf",
		Confidence: 95,
		Method:     constants.MethodGeminiVision,
		Data: extract.InvoiceData{
			DocType: extract.Ptr("invoice"),
			Vendor:  &extract.Vendor{Name: extract.Ptr("Acme Supply Co")},
			InvoiceDetails: &extract.InvoiceDetails{
				Number: extract.Ptr("INV-4452"),
				Date:   extract.Ptr("03/15/2024"),
			},
			Financials: &extract.Financials{
				TotalAmount: extract.Ptr(1234.56),
				Subtotal:    extract.Ptr(1150.00),
				Tax:         extract.Ptr(84.56),
			},
			LineItems: []extract.LineItem{
				{
					Description: extract.Ptr("Paper towels"),
					Quantity:    extract.Ptr(12.0),
					UnitPrice:   extract.Ptr(2.50),
					TotalPrice:  extract.Ptr(30.0),
				},
			},
		},
	}
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestExportInvoicesXLSX(t *testing.T) {
	svc := NewService(discardLogger())

	data, err := svc.ExportInvoicesXLSX([]extract.InvoiceRecord{sampleRecord()})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f := openWorkbook(t, data)

	header, err := f.GetCellValue("Invoices", "A1")
	require.NoError(t, err)
	assert.Equal(t, "File", header)

	file, _ := f.GetCellValue("Invoices", "A2")
	assert.Equal(t, "inv-001.pdf", file)
	vendor, _ := f.GetCellValue("Invoices", "C2")
	assert.Equal(t, "Acme Supply Co", vendor)
	number, _ := f.GetCellValue("Invoices", "D2")
	assert.Equal(t, "INV-4452", number)
	total, _ := f.GetCellValue("Invoices", "F2")
	assert.Equal(t, "1234.56", total)
	pages, _ := f.GetCellValue("Invoices", "K2")
	assert.Equal(t, "1", pages)

	desc, _ := f.GetCellValue("Line Items", "D2")
	assert.Equal(t, "Paper towels", desc)
	qty, _ := f.GetCellValue("Line Items", "E2")
	assert.Equal(t, "12", qty)
}

func TestExportMergedRecordPageCount(t *testing.T) {
	rec := sampleRecord()
	rec.IsMerged = true
	rec.MergedPageCount = 3
	rec.OriginalFilenames = []string{"p1.pdf", "p2.pdf", "p3.pdf"}

	svc := NewService(discardLogger())
	data, err := svc.ExportInvoicesXLSX([]extract.InvoiceRecord{rec})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	pages, _ := f.GetCellValue("Invoices", "K2")
	assert.Equal(t, "3", pages)
}

func TestExportEmptyRecords(t *testing.T) {
	svc := NewService(discardLogger())
	data, err := svc.ExportInvoicesXLSX(nil)
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{"Invoices"}, f.GetSheetList())
	header, _ := f.GetCellValue("Invoices", "A1")
	assert.Equal(t, "File", header)
}

func TestExportMultipleRecordsRowOrder(t *testing.T) {
	first := sampleRecord()
	second := sampleRecord()
	second.Filename = "inv-002.pdf"
	second.Data.InvoiceDetails.Number = extract.Ptr("INV-4453")

	svc := NewService(discardLogger())
	data, err := svc.ExportInvoicesXLSX([]extract.InvoiceRecord{first, second})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	a2, _ := f.GetCellValue("Invoices", "A2")
	a3, _ := f.GetCellValue("Invoices", "A3")
	assert.Equal(t, "inv-001.pdf", a2)
	assert.Equal(t, "inv-002.pdf", a3)
}
