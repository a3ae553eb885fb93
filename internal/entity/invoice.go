package entity

// Item is one line of an invoice.
type Item struct {
	ID       string  `json:"item_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

// Invoice is an assembled invoice record. ContentHash is the dedup key and
// is only meant for stores; use Public before handing a record to clients.
type Invoice struct {
	ID          string  `json:"invoice_id"`
	InvoiceNo   string  `json:"invoice_no"`
	Vendor      string  `json:"vendor"`
	Date        string  `json:"date"`
	TotalAmount float64 `json:"total_amount"`
	Items       []Item  `json:"items"`
	ContentHash string  `json:"_hash"`
}

// PublicInvoice is an invoice without its content hash.
type PublicInvoice struct {
	ID          string  `json:"invoice_id"`
	InvoiceNo   string  `json:"invoice_no"`
	Vendor      string  `json:"vendor"`
	Date        string  `json:"date"`
	TotalAmount float64 `json:"total_amount"`
	Items       []Item  `json:"items"`
}

func (inv Invoice) Public() PublicInvoice {
	items := inv.Items
	if items == nil {
		items = []Item{}
	}
	return PublicInvoice{
		ID:          inv.ID,
		InvoiceNo:   inv.InvoiceNo,
		Vendor:      inv.Vendor,
		Date:        inv.Date,
		TotalAmount: inv.TotalAmount,
		Items:       items,
	}
}

// PublicInvoices maps a slice of invoices through Public.
func PublicInvoices(in []Invoice) []PublicInvoice {
	out := make([]PublicInvoice, 0, len(in))
	for _, inv := range in {
		out = append(out, inv.Public())
	}
	return out
}
