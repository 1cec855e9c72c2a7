// Package merge reassembles multi-page documents from per-page extraction
// records. Scanners emit one record per page; this package stitches the
// pages of one invoice or shift report back into a single record.
package merge

import (
	"log/slog"
	"strconv"

	"docportal/constants"
	"docportal/internal/extract"
	"docportal/internal/uom"
)

// Merger groups per-page records by progressively weaker signals:
//
//  1. exact invoice number
//  2. exact total amount against an existing group
//  3. (date, vendor) for shift-style pages
//  4. headerless shift pages absorbed into the surviving shift group
//
// Group discovery is insertion-ordered, so the output order is a pure
// function of the input order.
type Merger struct {
	logger *slog.Logger
	units  *uom.Standardizer
}

func NewMerger(logger *slog.Logger) *Merger {
	return &Merger{logger: logger, units: uom.NewStandardizer(logger)}
}

// groups is a map with stable iteration order.
type groups struct {
	index map[string]int
	list  [][]extract.InvoiceRecord
}

func newGroups() *groups {
	return &groups{index: map[string]int{}}
}

func (g *groups) add(key string, rec extract.InvoiceRecord) {
	i, ok := g.index[key]
	if !ok {
		i = len(g.list)
		g.index[key] = i
		g.list = append(g.list, nil)
	}
	g.list[i] = append(g.list[i], rec)
}

func (g *groups) len() int { return len(g.list) }

func isShiftLike(d *extract.InvoiceData) bool {
	docType := ""
	if d != nil && d.DocType != nil {
		docType = *d.DocType
	}
	if constants.IsShiftLike(docType) {
		return true
	}
	return d != nil && d.ShiftReportDetails.HasData()
}

func hasShiftData(d *extract.InvoiceData) bool {
	return d != nil && d.ShiftReportDetails.HasData()
}

// MergeResults merges split pages into composite records. Pages with no
// extracted data at all are dropped. Single-page groups pass through
// unchanged; the relative order of groups follows first appearance in
// the input.
func (m *Merger) MergeResults(results []extract.InvoiceRecord) []extract.InvoiceRecord {
	byNumber := newGroups()
	var orphans []extract.InvoiceRecord

	// Pass 1: strong signal, the printed invoice number.
	for _, res := range results {
		if res.Data.IsEmpty() {
			continue
		}
		if num := res.Data.InvoiceNumber(); num != "" {
			byNumber.add(num, res)
		} else {
			orphans = append(orphans, res)
		}
	}

	// Pass 2: attach orphans whose total equals a group master's total.
	byTotal := newGroups()
	for _, orphan := range orphans {
		total, hasTotal := orphan.Data.TotalAmount()

		attached := false
		if hasTotal {
			for i, grp := range byNumber.list {
				masterTotal, ok := grp[0].Data.TotalAmount()
				if ok && masterTotal == total {
					byNumber.list[i] = append(grp, orphan)
					attached = true
					break
				}
			}
		}
		if attached {
			continue
		}
		key := "unknown"
		if hasTotal {
			key = strconv.FormatFloat(total, 'f', -1, 64)
		}
		byTotal.add(key, orphan)
	}

	// Pass 3: shift-style pages group on (date, vendor).
	byShift := newGroups()
	var finalOrphans []extract.InvoiceRecord
	for _, grp := range byTotal.list {
		for _, item := range grp {
			if !isShiftLike(&item.Data) {
				finalOrphans = append(finalOrphans, item)
				continue
			}
			vendor := item.Data.VendorName()
			date := item.Data.InvoiceDate()
			if vendor != "" && date != "" {
				byShift.add(date+"\x00"+vendor, item)
			} else {
				finalOrphans = append(finalOrphans, item)
			}
		}
	}

	// Pass 4: headerless shift pages. With exactly one shift group the
	// group absorbs every remaining page that carries register totals.
	// With none, two or more such pages form a synthetic group of their
	// own rather than surfacing as unrelated singletons.
	switch byShift.len() {
	case 1:
		var remaining []extract.InvoiceRecord
		for _, item := range finalOrphans {
			if hasShiftData(&item.Data) {
				byShift.list[0] = append(byShift.list[0], item)
			} else {
				remaining = append(remaining, item)
			}
		}
		finalOrphans = remaining
	case 0:
		var shiftPages, remaining []extract.InvoiceRecord
		for _, item := range finalOrphans {
			if hasShiftData(&item.Data) {
				shiftPages = append(shiftPages, item)
			} else {
				remaining = append(remaining, item)
			}
		}
		if len(shiftPages) > 1 {
			byShift.add("Unknown Date\x00Shift Report", shiftPages[0])
			byShift.list[0] = append(byShift.list[0], shiftPages[1:]...)
			finalOrphans = remaining
		}
	}

	var merged []extract.InvoiceRecord
	for _, grp := range byNumber.list {
		merged = append(merged, m.collapse(grp))
	}
	for _, grp := range byShift.list {
		merged = append(merged, m.collapse(grp))
	}
	merged = append(merged, finalOrphans...)

	for i := range merged {
		m.normalizeUnits(&merged[i])
	}

	m.logger.Info("merge complete",
		slog.Int("input_pages", len(results)),
		slog.Int("output_documents", len(merged)))
	return merged
}

func (m *Merger) collapse(group []extract.InvoiceRecord) extract.InvoiceRecord {
	if len(group) == 1 {
		return group[0]
	}
	return m.mergeGroup(group)
}

// mergeGroup combines the pages of one group into a master record. The
// first page wins every scalar conflict; later pages only fill holes.
// Line items concatenate in page order.
func (m *Merger) mergeGroup(group []extract.InvoiceRecord) extract.InvoiceRecord {
	master := group[0]
	master.Data = group[0].Data.Clone()

	var allItems []extract.LineItem
	for _, item := range group {
		for _, li := range item.Data.LineItems {
			allItems = append(allItems, li.Clone())
		}
		fillVendor(&master.Data, item.Data.Vendor)
		fillShiftDetails(&master.Data, item.Data.ShiftReportDetails)
	}
	master.Data.LineItems = allItems

	master.IsMerged = true
	master.MergedPageCount = len(group)
	filenames := make([]string, 0, len(group))
	for _, item := range group {
		filenames = append(filenames, item.Filename)
	}
	master.OriginalFilenames = filenames
	return master
}

// normalizeUnits standardizes every line item's unit code and derives a
// pack size from the description when the page left it blank. Input
// pages stay untouched: pass-through records are cloned before editing.
func (m *Merger) normalizeUnits(rec *extract.InvoiceRecord) {
	if len(rec.Data.LineItems) == 0 {
		return
	}
	if !rec.IsMerged {
		rec.Data = rec.Data.Clone()
	}
	for i := range rec.Data.LineItems {
		li := &rec.Data.LineItems[i]
		if li.UnitOfMeasure != nil {
			code := m.units.Standardize(*li.UnitOfMeasure)
			li.UnitOfMeasure = &code
		} else if li.Description != nil {
			if code := m.units.ExtractFromDescription(*li.Description); code != "" {
				li.UnitOfMeasure = &code
			}
		}
		if li.PackSize == nil && li.Description != nil {
			if ps := m.units.ParsePackSize(*li.Description); ps != "" {
				li.PackSize = &ps
			}
		}
	}
}

func fillVendor(dst *extract.InvoiceData, src *extract.Vendor) {
	if src == nil {
		return
	}
	if dst.Vendor == nil {
		dst.Vendor = &extract.Vendor{}
	}
	v := dst.Vendor
	if v.Name == nil && src.Name != nil {
		v.Name = extract.Ptr(*src.Name)
	}
	if v.Phone == nil && src.Phone != nil {
		v.Phone = extract.Ptr(*src.Phone)
	}
	if v.Address == nil && src.Address != nil {
		v.Address = extract.Ptr(*src.Address)
	}
	if v.Website == nil && src.Website != nil {
		v.Website = extract.Ptr(*src.Website)
	}
	if v.VendorID == nil && src.VendorID != nil {
		v.VendorID = extract.Ptr(*src.VendorID)
	}
}

func fillShiftDetails(dst *extract.InvoiceData, src *extract.ShiftReportDetails) {
	if src == nil {
		return
	}
	if dst.ShiftReportDetails == nil {
		dst.ShiftReportDetails = &extract.ShiftReportDetails{}
	}
	d := dst.ShiftReportDetails
	if d.TotalSales == nil && src.TotalSales != nil {
		d.TotalSales = extract.Ptr(*src.TotalSales)
	}
	if d.FuelSales == nil && src.FuelSales != nil {
		d.FuelSales = extract.Ptr(*src.FuelSales)
	}
	if d.MerchSales == nil && src.MerchSales != nil {
		d.MerchSales = extract.Ptr(*src.MerchSales)
	}
	if d.CashDrop == nil && src.CashDrop != nil {
		d.CashDrop = extract.Ptr(*src.CashDrop)
	}
	if d.CreditCardSales == nil && src.CreditCardSales != nil {
		d.CreditCardSales = extract.Ptr(*src.CreditCardSales)
	}
	if d.CashSales == nil && src.CashSales != nil {
		d.CashSales = extract.Ptr(*src.CashSales)
	}
}
