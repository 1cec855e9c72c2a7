package extract

// Deep-copy helpers. The merger mutates its working copy while filling
// nulls across pages, so the source records must never be aliased.

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneF64(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a deep copy of the address.
func (a *Address) Clone() *Address {
	if a == nil {
		return nil
	}
	return &Address{
		Street: cloneStr(a.Street),
		City:   cloneStr(a.City),
		State:  cloneStr(a.State),
		Zip:    cloneStr(a.Zip),
	}
}

// Clone returns a deep copy of the vendor block.
func (v *Vendor) Clone() *Vendor {
	if v == nil {
		return nil
	}
	return &Vendor{
		Name:     cloneStr(v.Name),
		Phone:    cloneStr(v.Phone),
		Address:  cloneStr(v.Address),
		Website:  cloneStr(v.Website),
		VendorID: cloneStr(v.VendorID),
	}
}

// Clone returns a deep copy of the invoice header block.
func (d *InvoiceDetails) Clone() *InvoiceDetails {
	if d == nil {
		return nil
	}
	return &InvoiceDetails{
		Number:   cloneStr(d.Number),
		Date:     cloneStr(d.Date),
		DueDate:  cloneStr(d.DueDate),
		PONumber: cloneStr(d.PONumber),
		Terms:    cloneStr(d.Terms),
	}
}

// Clone returns a deep copy of the financials block.
func (f *Financials) Clone() *Financials {
	if f == nil {
		return nil
	}
	return &Financials{
		TotalAmount: cloneF64(f.TotalAmount),
		Subtotal:    cloneF64(f.Subtotal),
		Tax:         cloneF64(f.Tax),
		TaxRate:     cloneF64(f.TaxRate),
		Shipping:    cloneF64(f.Shipping),
		Credits:     cloneF64(f.Credits),
		BalanceDue:  cloneF64(f.BalanceDue),
		Currency:    cloneStr(f.Currency),
	}
}

// Clone returns a deep copy of a line item.
func (li LineItem) Clone() LineItem {
	return LineItem{
		ItemNumber:    cloneF64(li.ItemNumber),
		Description:   cloneStr(li.Description),
		Brand:         cloneStr(li.Brand),
		UPC:           cloneStr(li.UPC),
		SKU:           cloneStr(li.SKU),
		ProductCode:   cloneStr(li.ProductCode),
		Quantity:      cloneF64(li.Quantity),
		UnitOfMeasure: cloneStr(li.UnitOfMeasure),
		PackSize:      cloneStr(li.PackSize),
		UnitPrice:     cloneF64(li.UnitPrice),
		TotalPrice:    cloneF64(li.TotalPrice),
		Category:      cloneStr(li.Category),
	}
}

// Clone returns a deep copy of the shift report block.
func (s *ShiftReportDetails) Clone() *ShiftReportDetails {
	if s == nil {
		return nil
	}
	return &ShiftReportDetails{
		TotalSales:      cloneF64(s.TotalSales),
		FuelSales:       cloneF64(s.FuelSales),
		MerchSales:      cloneF64(s.MerchSales),
		CashDrop:        cloneF64(s.CashDrop),
		CreditCardSales: cloneF64(s.CreditCardSales),
		CashSales:       cloneF64(s.CashSales),
	}
}

// Clone returns a deep copy of the page payload.
func (d *InvoiceData) Clone() InvoiceData {
	if d == nil {
		return InvoiceData{}
	}
	out := InvoiceData{
		DocType:            cloneStr(d.DocType),
		Vendor:             d.Vendor.Clone(),
		InvoiceDetails:     d.InvoiceDetails.Clone(),
		Financials:         d.Financials.Clone(),
		ShiftReportDetails: d.ShiftReportDetails.Clone(),
	}
	if d.LineItems != nil {
		out.LineItems = make([]LineItem, 0, len(d.LineItems))
		for _, li := range d.LineItems {
			out.LineItems = append(out.LineItems, li.Clone())
		}
	}
	return out
}

// Clone returns a deep copy of the ID payload.
func (d *IDData) Clone() IDData {
	if d == nil {
		return IDData{}
	}
	return IDData{
		IDType:         cloneStr(d.IDType),
		FullName:       cloneStr(d.FullName),
		FirstName:      cloneStr(d.FirstName),
		MiddleName:     cloneStr(d.MiddleName),
		LastName:       cloneStr(d.LastName),
		Address:        d.Address.Clone(),
		DOB:            cloneStr(d.DOB),
		ExpirationDate: cloneStr(d.ExpirationDate),
		LicenseNumber:  cloneStr(d.LicenseNumber),
		Sex:            cloneStr(d.Sex),
		Height:         cloneStr(d.Height),
		Weight:         cloneStr(d.Weight),
		EyeColor:       cloneStr(d.EyeColor),
		HairColor:      cloneStr(d.HairColor),
		IssuingState:   cloneStr(d.IssuingState),
		IssueDate:      cloneStr(d.IssueDate),
	}
}
