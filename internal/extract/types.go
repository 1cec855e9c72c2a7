// Package extract holds the typed extraction records passed between pipeline
// stages and the heuristic (regex-tier) extractors that produce them.
package extract

import (
	"strings"

	"docportal/constants"
)

func trimmed(s string) string { return strings.TrimSpace(s) }

// Ptr returns a pointer to v. Convenience for building records in tests
// and extractors.
func Ptr[T any](v T) *T { return &v }

// Address is the structured postal address on an ID document. Nil leaves
// mean the field was not found, which is distinct from an empty string.
type Address struct {
	Street *string `json:"street"`
	City   *string `json:"city"`
	State  *string `json:"state"`
	Zip    *string `json:"zip"`
}

// IDData is the structured payload extracted from an identity document.
type IDData struct {
	IDType         *string  `json:"id_type"`
	FullName       *string  `json:"full_name"`
	FirstName      *string  `json:"first_name"`
	MiddleName     *string  `json:"middle_name"`
	LastName       *string  `json:"last_name"`
	Address        *Address `json:"address"`
	DOB            *string  `json:"dob"`
	ExpirationDate *string  `json:"expiration_date"`
	LicenseNumber  *string  `json:"license_number"`
	Sex            *string  `json:"sex"`
	Height         *string  `json:"height"`
	Weight         *string  `json:"weight"`
	EyeColor       *string  `json:"eye_color"`
	HairColor      *string  `json:"hair_color"`
	IssuingState   *string  `json:"issuing_state"`
	IssueDate      *string  `json:"issue_date"`
}

// Validation is the derived consistency report appended to an ID record.
// Computed once per record; downstream consumers never mutate it.
type Validation struct {
	Valid     bool     `json:"valid"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
	Age       *int     `json:"age"`
	IsExpired bool     `json:"is_expired"`
}

// IDRecord is the {data, confidence, method, validation} envelope produced
// by an ID extraction stage.
type IDRecord struct {
	Data       IDData           `json:"data"`
	Confidence int              `json:"confidence"`
	Method     constants.Method `json:"method"`
	Validation *Validation      `json:"validation,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Vendor identifies the issuing business on an invoice page.
type Vendor struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Website  *string `json:"website"`
	VendorID *string `json:"vendor_id"`
}

// InvoiceDetails carries the header fields of an invoice.
type InvoiceDetails struct {
	Number   *string `json:"number"`
	Date     *string `json:"date"`
	DueDate  *string `json:"due_date"`
	PONumber *string `json:"po_number"`
	Terms    *string `json:"terms"`
}

// Financials carries the money totals of an invoice page.
type Financials struct {
	TotalAmount *float64 `json:"total_amount"`
	Subtotal    *float64 `json:"subtotal"`
	Tax         *float64 `json:"tax"`
	TaxRate     *float64 `json:"tax_rate"`
	Shipping    *float64 `json:"shipping"`
	Credits     *float64 `json:"credits"`
	BalanceDue  *float64 `json:"balance_due"`
	Currency    *string  `json:"currency"`
}

// LineItem is a single product row on an invoice.
type LineItem struct {
	ItemNumber    *float64 `json:"item_number"`
	Description   *string  `json:"description"`
	Brand         *string  `json:"brand"`
	UPC           *string  `json:"upc"`
	SKU           *string  `json:"sku"`
	ProductCode   *string  `json:"product_code"`
	Quantity      *float64 `json:"quantity"`
	UnitOfMeasure *string  `json:"unit_of_measure"`
	PackSize      *string  `json:"pack_size"`
	UnitPrice     *float64 `json:"unit_price"`
	TotalPrice    *float64 `json:"total_price"`
	Category      *string  `json:"category"`
}

// ShiftReportDetails carries the register totals on a shift/audit report.
type ShiftReportDetails struct {
	TotalSales      *float64 `json:"total_sales"`
	FuelSales       *float64 `json:"fuel_sales"`
	MerchSales      *float64 `json:"merch_sales"`
	CashDrop        *float64 `json:"cash_drop"`
	CreditCardSales *float64 `json:"credit_card_sales"`
	CashSales       *float64 `json:"cash_sales"`
}

// HasData reports whether any register total is present.
func (s *ShiftReportDetails) HasData() bool {
	if s == nil {
		return false
	}
	return s.TotalSales != nil || s.FuelSales != nil || s.MerchSales != nil ||
		s.CashDrop != nil || s.CreditCardSales != nil || s.CashSales != nil
}

// InvoiceData is the structured payload extracted from one invoice or
// shift-report page.
type InvoiceData struct {
	DocType            *string             `json:"doc_type"`
	Vendor             *Vendor             `json:"vendor"`
	InvoiceDetails     *InvoiceDetails     `json:"invoice_details"`
	Financials         *Financials         `json:"financials"`
	LineItems          []LineItem          `json:"line_items"`
	ShiftReportDetails *ShiftReportDetails `json:"shift_report_details"`
}

// InvoiceNumber returns the trimmed invoice number, or "" when absent.
func (d *InvoiceData) InvoiceNumber() string {
	if d == nil || d.InvoiceDetails == nil || d.InvoiceDetails.Number == nil {
		return ""
	}
	return trimmed(*d.InvoiceDetails.Number)
}

// TotalAmount returns the page's total amount when present.
func (d *InvoiceData) TotalAmount() (float64, bool) {
	if d == nil || d.Financials == nil || d.Financials.TotalAmount == nil {
		return 0, false
	}
	return *d.Financials.TotalAmount, true
}

// VendorName returns the vendor name, or "" when absent.
func (d *InvoiceData) VendorName() string {
	if d == nil || d.Vendor == nil || d.Vendor.Name == nil {
		return ""
	}
	return *d.Vendor.Name
}

// InvoiceDate returns the invoice date, or "" when absent.
func (d *InvoiceData) InvoiceDate() string {
	if d == nil || d.InvoiceDetails == nil || d.InvoiceDetails.Date == nil {
		return ""
	}
	return *d.InvoiceDetails.Date
}

// IsEmpty reports whether the page carries no extracted data at all.
func (d *InvoiceData) IsEmpty() bool {
	if d == nil {
		return true
	}
	return d.DocType == nil && d.Vendor == nil && d.InvoiceDetails == nil &&
		d.Financials == nil && len(d.LineItems) == 0 && d.ShiftReportDetails == nil
}

// InvoiceRecord is the per-page extraction envelope fed to the merger. A
// merged composite aggregates its children by filename for audit.
type InvoiceRecord struct {
	Filename          string           `json:"filename"`
	Data              InvoiceData      `json:"data"`
	Confidence        int              `json:"confidence"`
	Method            constants.Method `json:"method"`
	Error             string           `json:"error,omitempty"`
	IsMerged          bool             `json:"is_merged,omitempty"`
	MergedPageCount   int              `json:"merged_page_count,omitempty"`
	OriginalFilenames []string         `json:"original_filenames,omitempty"`
}
