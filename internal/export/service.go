package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"docportal/internal/extract"
)

// Service produces XLSX workbooks from extracted invoice records.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportInvoicesXLSX returns a workbook (as bytes) with one summary row per
// invoice record and a second sheet listing every line item. Records are
// written in the order given so merged output stays stable across runs.
func (s *Service) ExportInvoicesXLSX(records []extract.InvoiceRecord) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Invoices"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// excelize seeds a default sheet we never use.
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"File",
		"Document Type",
		"Vendor",
		"Invoice Number",
		"Invoice Date",
		"Total",
		"Subtotal",
		"Tax",
		"Confidence",
		"Method",
		"Merged Pages",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	itemRow := 2
	row := 2
	for _, r := range records {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.Filename)
		write(2, strOr(r.Data.DocType, "invoice"))
		write(3, r.Data.VendorName())
		write(4, r.Data.InvoiceNumber())
		write(5, r.Data.InvoiceDate())
		if fin := r.Data.Financials; fin != nil {
			writeAmount(f, sheet, 6, row, fin.TotalAmount)
			writeAmount(f, sheet, 7, row, fin.Subtotal)
			writeAmount(f, sheet, 8, row, fin.Tax)
		}
		write(9, r.Confidence)
		write(10, string(r.Method))
		if r.IsMerged {
			write(11, r.MergedPageCount)
		} else {
			write(11, 1)
		}
		row++

		itemRow = s.writeLineItems(f, r, itemRow)
	}

	_ = f.SetColWidth(sheet, "A", "A", 32) // file
	_ = f.SetColWidth(sheet, "B", "B", 14) // doc type
	_ = f.SetColWidth(sheet, "C", "C", 28) // vendor
	_ = f.SetColWidth(sheet, "D", "E", 16) // number, date
	_ = f.SetColWidth(sheet, "F", "H", 12) // amounts
	_ = f.SetColWidth(sheet, "J", "J", 20) // method

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"invoices", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

const itemSheet = "Line Items"

var itemHeaders = []string{
	"File",
	"Invoice Number",
	"Item Number",
	"Description",
	"Quantity",
	"UOM",
	"Unit Price",
	"Total",
	"Category",
}

// writeLineItems appends the record's items to the shared items sheet and
// returns the next free row. The sheet is created lazily so workbooks with
// no line items stay single-sheet.
func (s *Service) writeLineItems(f *excelize.File, r extract.InvoiceRecord, row int) int {
	if len(r.Data.LineItems) == 0 {
		return row
	}
	if index, _ := f.GetSheetIndex(itemSheet); index == -1 {
		if _, err := f.NewSheet(itemSheet); err != nil {
			return row
		}
		for i, h := range itemHeaders {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			_ = f.SetCellValue(itemSheet, cell, h)
		}
		_ = f.SetColWidth(itemSheet, "A", "A", 32)
		_ = f.SetColWidth(itemSheet, "D", "D", 48)
	}

	for _, item := range r.Data.LineItems {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(itemSheet, cell, v)
		}
		write(1, r.Filename)
		write(2, r.Data.InvoiceNumber())
		if item.ItemNumber != nil {
			write(3, *item.ItemNumber)
		}
		write(4, truncate(strOr(item.Description, ""), 140))
		if item.Quantity != nil {
			write(5, *item.Quantity)
		}
		write(6, strOr(item.UnitOfMeasure, ""))
		writeAmount(f, itemSheet, 7, row, item.UnitPrice)
		writeAmount(f, itemSheet, 8, row, item.TotalPrice)
		write(9, strOr(item.Category, ""))
		row++
	}
	return row
}

func writeAmount(f *excelize.File, sheet string, col, row int, v *float64) {
	if v == nil {
		return
	}
	cell, _ := excelize.CoordinatesToCellName(col, row)
	_ = f.SetCellValue(sheet, cell, *v)
}

func strOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
