package merge

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal/internal/extract"
)

func newTestMerger() *Merger {
	return NewMerger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func invoicePage(filename, number string, total *float64, items ...string) extract.InvoiceRecord {
	data := extract.InvoiceData{
		DocType: extract.Ptr("invoice"),
	}
	if number != "" {
		data.InvoiceDetails = &extract.InvoiceDetails{Number: extract.Ptr(number)}
	}
	if total != nil {
		data.Financials = &extract.Financials{TotalAmount: total}
	}
	for _, desc := range items {
		data.LineItems = append(data.LineItems, extract.LineItem{Description: extract.Ptr(desc)})
	}
	return extract.InvoiceRecord{Filename: filename, Data: data, Confidence: 90}
}

func shiftPage(filename, date, vendor string, totalSales *float64) extract.InvoiceRecord {
	data := extract.InvoiceData{
		DocType: extract.Ptr("shift_report"),
	}
	if date != "" {
		data.InvoiceDetails = &extract.InvoiceDetails{Date: extract.Ptr(date)}
	}
	if vendor != "" {
		data.Vendor = &extract.Vendor{Name: extract.Ptr(vendor)}
	}
	if totalSales != nil {
		data.ShiftReportDetails = &extract.ShiftReportDetails{TotalSales: totalSales}
	}
	return extract.InvoiceRecord{Filename: filename, Data: data, Confidence: 85}
}

func TestMergeByInvoiceNumber(t *testing.T) {
	m := newTestMerger()

	out := m.MergeResults([]extract.InvoiceRecord{
		invoicePage("p1.pdf", "INV-100", extract.Ptr(500.0), "widgets"),
		invoicePage("p2.pdf", "INV-100", nil, "gadgets", "bolts"),
		invoicePage("other.pdf", "INV-999", extract.Ptr(42.0)),
	})

	require.Len(t, out, 2)

	doc := out[0]
	assert.True(t, doc.IsMerged)
	assert.Equal(t, 2, doc.MergedPageCount)
	assert.Equal(t, []string{"p1.pdf", "p2.pdf"}, doc.OriginalFilenames)
	assert.Equal(t, "p1.pdf", doc.Filename)

	// Line items concatenate in page order.
	require.Len(t, doc.Data.LineItems, 3)
	assert.Equal(t, "widgets", *doc.Data.LineItems[0].Description)
	assert.Equal(t, "gadgets", *doc.Data.LineItems[1].Description)
	assert.Equal(t, "bolts", *doc.Data.LineItems[2].Description)

	// Single-page group passes through untouched.
	assert.False(t, out[1].IsMerged)
	assert.Equal(t, "other.pdf", out[1].Filename)
}

func TestMergeOrphanByTotalAmount(t *testing.T) {
	m := newTestMerger()

	out := m.MergeResults([]extract.InvoiceRecord{
		invoicePage("p1.pdf", "INV-100", extract.Ptr(500.0)),
		invoicePage("cont.pdf", "", extract.Ptr(500.0), "carryover line"),
	})

	require.Len(t, out, 1)
	assert.True(t, out[0].IsMerged)
	assert.Equal(t, []string{"p1.pdf", "cont.pdf"}, out[0].OriginalFilenames)
	require.Len(t, out[0].Data.LineItems, 1)
}

func TestMergeOrphanWithDifferentTotalStaysSeparate(t *testing.T) {
	m := newTestMerger()

	out := m.MergeResults([]extract.InvoiceRecord{
		invoicePage("p1.pdf", "INV-100", extract.Ptr(500.0)),
		invoicePage("unrelated.pdf", "", extract.Ptr(77.0)),
	})

	require.Len(t, out, 2)
	assert.False(t, out[0].IsMerged)
	assert.False(t, out[1].IsMerged)
}

func TestMergeShiftReportsByDateAndVendor(t *testing.T) {
	m := newTestMerger()

	pageA := shiftPage("shift1.pdf", "03/15/2024", "Main St Fuel", extract.Ptr(4000.0))
	pageB := shiftPage("shift2.pdf", "03/15/2024", "Main St Fuel", nil)
	pageB.Data.ShiftReportDetails = &extract.ShiftReportDetails{FuelSales: extract.Ptr(2500.0)}
	other := shiftPage("other.pdf", "03/16/2024", "Main St Fuel", extract.Ptr(100.0))

	out := m.MergeResults([]extract.InvoiceRecord{pageA, pageB, other})

	require.Len(t, out, 2)

	doc := out[0]
	assert.True(t, doc.IsMerged)
	assert.Equal(t, 2, doc.MergedPageCount)

	// Shift leaves fill first-wins across pages.
	require.NotNil(t, doc.Data.ShiftReportDetails)
	assert.Equal(t, 4000.0, *doc.Data.ShiftReportDetails.TotalSales)
	assert.Equal(t, 2500.0, *doc.Data.ShiftReportDetails.FuelSales)
}

func TestMergeHeaderlessPagesAbsorbedIntoSingleShiftGroup(t *testing.T) {
	m := newTestMerger()

	headerless := extract.InvoiceRecord{
		Filename: "tail.pdf",
		Data: extract.InvoiceData{
			ShiftReportDetails: &extract.ShiftReportDetails{CashDrop: extract.Ptr(300.0)},
		},
	}

	out := m.MergeResults([]extract.InvoiceRecord{
		shiftPage("head1.pdf", "03/15/2024", "Main St Fuel", extract.Ptr(4000.0)),
		shiftPage("head2.pdf", "03/15/2024", "Main St Fuel", nil),
		headerless,
	})

	require.Len(t, out, 1)
	doc := out[0]
	assert.True(t, doc.IsMerged)
	assert.Equal(t, 3, doc.MergedPageCount)
	assert.Contains(t, doc.OriginalFilenames, "tail.pdf")
	assert.Equal(t, 300.0, *doc.Data.ShiftReportDetails.CashDrop)
}

func TestMergeSynthesizesGroupFromHeaderlessShiftPages(t *testing.T) {
	m := newTestMerger()

	page := func(name string, cash float64) extract.InvoiceRecord {
		return extract.InvoiceRecord{
			Filename: name,
			Data: extract.InvoiceData{
				ShiftReportDetails: &extract.ShiftReportDetails{CashDrop: extract.Ptr(cash)},
			},
		}
	}

	out := m.MergeResults([]extract.InvoiceRecord{page("a.pdf", 100), page("b.pdf", 0)})

	require.Len(t, out, 1)
	assert.True(t, out[0].IsMerged)
	assert.Equal(t, 2, out[0].MergedPageCount)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, out[0].OriginalFilenames)
}

func TestMergeSingleHeaderlessShiftPageStaysOrphan(t *testing.T) {
	m := newTestMerger()

	out := m.MergeResults([]extract.InvoiceRecord{
		{
			Filename: "only.pdf",
			Data: extract.InvoiceData{
				ShiftReportDetails: &extract.ShiftReportDetails{CashDrop: extract.Ptr(100.0)},
			},
		},
	})

	require.Len(t, out, 1)
	assert.False(t, out[0].IsMerged)
}

func TestMergeDropsEmptyPages(t *testing.T) {
	m := newTestMerger()

	out := m.MergeResults([]extract.InvoiceRecord{
		{Filename: "blank.pdf"},
		invoicePage("p1.pdf", "INV-1", nil),
	})

	require.Len(t, out, 1)
	assert.Equal(t, "p1.pdf", out[0].Filename)
}

func TestMergeFillsVendorHoles(t *testing.T) {
	m := newTestMerger()

	p1 := invoicePage("p1.pdf", "INV-1", nil)
	p1.Data.Vendor = &extract.Vendor{Name: extract.Ptr("Acme")}
	p2 := invoicePage("p2.pdf", "INV-1", nil)
	p2.Data.Vendor = &extract.Vendor{Name: extract.Ptr("ACME CORP"), Phone: extract.Ptr("555-0100")}

	out := m.MergeResults([]extract.InvoiceRecord{p1, p2})

	require.Len(t, out, 1)
	v := out[0].Data.Vendor
	require.NotNil(t, v)
	assert.Equal(t, "Acme", *v.Name, "first page wins scalar conflicts")
	require.NotNil(t, v.Phone)
	assert.Equal(t, "555-0100", *v.Phone)
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	m := newTestMerger()

	p1 := invoicePage("p1.pdf", "INV-1", nil, "a")
	p2 := invoicePage("p2.pdf", "INV-1", nil, "b")
	in := []extract.InvoiceRecord{p1, p2}

	_ = m.MergeResults(in)

	assert.Len(t, in[0].Data.LineItems, 1, "input records must stay untouched")
	assert.False(t, in[0].IsMerged)
	assert.Nil(t, in[0].Data.Vendor)
}

func TestMergeDeterministicOrder(t *testing.T) {
	m := newTestMerger()

	input := []extract.InvoiceRecord{
		invoicePage("z.pdf", "INV-9", nil),
		invoicePage("a.pdf", "INV-1", nil),
		invoicePage("m.pdf", "INV-5", nil),
		invoicePage("z2.pdf", "INV-9", nil),
	}

	first := m.MergeResults(input)
	for i := 0; i < 10; i++ {
		again := m.MergeResults(input)
		require.Equal(t, first, again)
	}

	// Groups surface in first-appearance order, not key order.
	assert.Equal(t, "z.pdf", first[0].Filename)
	assert.Equal(t, "a.pdf", first[1].Filename)
	assert.Equal(t, "m.pdf", first[2].Filename)
}

func TestMergeStandardizesLineItemUnits(t *testing.T) {
	m := newTestMerger()

	p1 := invoicePage("p1.pdf", "INV-77", nil)
	p1.Data.LineItems = []extract.LineItem{
		{Description: extract.Ptr("Cola Soda 24pk"), UnitOfMeasure: extract.Ptr("cases")},
		{Description: extract.Ptr("Apples per lb")},
	}
	p2 := invoicePage("p2.pdf", "INV-77", nil)
	p2.Data.LineItems = []extract.LineItem{
		{Description: extract.Ptr("Motor oil"), UnitOfMeasure: extract.Ptr("bottles")},
	}

	out := m.MergeResults([]extract.InvoiceRecord{p1, p2})
	require.Len(t, out, 1)
	items := out[0].Data.LineItems
	require.Len(t, items, 3)

	assert.Equal(t, "CS", *items[0].UnitOfMeasure)
	require.NotNil(t, items[0].PackSize)
	assert.Equal(t, "24-PACK", *items[0].PackSize)

	// Unit pulled from the description when the page had none.
	require.NotNil(t, items[1].UnitOfMeasure)
	assert.Equal(t, "LB", *items[1].UnitOfMeasure)

	assert.Equal(t, "BOTTLE", *items[2].UnitOfMeasure)

	// Pass-through singletons get the same treatment without touching
	// the caller's record.
	single := invoicePage("s.pdf", "INV-1", nil)
	single.Data.LineItems = []extract.LineItem{{UnitOfMeasure: extract.Ptr("dozen")}}
	out = m.MergeResults([]extract.InvoiceRecord{single})
	require.Len(t, out, 1)
	assert.Equal(t, "DZ", *out[0].Data.LineItems[0].UnitOfMeasure)
	assert.Equal(t, "dozen", *single.Data.LineItems[0].UnitOfMeasure)
}
