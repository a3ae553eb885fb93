package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoices-tracker/internal/entity"
)

const (
	SheetInvoices = "Invoices"
	SheetItems    = "Items"
	SheetSummary  = "Summary"
)

// Lister is the read side of an invoice store.
type Lister interface {
	List(ctx context.Context) ([]entity.Invoice, error)
}

// Service produces XLSX bytes for stored invoices.
type Service struct {
	store  Lister
	logger *slog.Logger
}

func NewService(store Lister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// CategoryTotal is one row of the summary sheet.
type CategoryTotal struct {
	Category string
	Items    int
	Total    decimal.Decimal
}

// Summarize sums item prices per category, largest total first. Ties keep
// alphabetical order.
func Summarize(invs []entity.Invoice) []CategoryTotal {
	byCat := map[string]*CategoryTotal{}
	for _, inv := range invs {
		for _, it := range inv.Items {
			ct, ok := byCat[it.Category]
			if !ok {
				ct = &CategoryTotal{Category: it.Category}
				byCat[it.Category] = ct
			}
			ct.Items++
			ct.Total = ct.Total.Add(decimal.NewFromFloat(it.Price))
		}
	}
	out := make([]CategoryTotal, 0, len(byCat))
	for _, ct := range byCat {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// ExportInvoicesXLSX returns a workbook with an Invoices sheet, an Items sheet
// and a per-category Summary sheet.
func (s *Service) ExportInvoicesXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	invs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default sheet becomes Invoices
	if err := f.SetSheetName("Sheet1", SheetInvoices); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetItems, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	if err := writeRow(f, SheetInvoices, 1, "Invoice ID", "Invoice No", "Vendor", "Date", "Total", "Items"); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetItems, 1, "Invoice ID", "Invoice No", "Item ID", "Name", "Category", "Price"); err != nil {
		return nil, err
	}

	itemRow := 2
	grand := decimal.Zero
	for i, inv := range invs {
		total := decimal.NewFromFloat(inv.TotalAmount).Round(2)
		grand = grand.Add(total)
		if err := writeRow(f, SheetInvoices, i+2,
			inv.ID, inv.InvoiceNo, inv.Vendor, inv.Date, total.InexactFloat64(), len(inv.Items)); err != nil {
			return nil, err
		}
		for _, it := range inv.Items {
			if err := writeRow(f, SheetItems, itemRow,
				inv.ID, inv.InvoiceNo, it.ID, it.Name, it.Category, it.Price); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	summary := Summarize(invs)
	if err := writeRow(f, SheetSummary, 1, "Category", "Items", "Total"); err != nil {
		return nil, err
	}
	for i, ct := range summary {
		if err := writeRow(f, SheetSummary, i+2, ct.Category, ct.Items, ct.Total.Round(2).InexactFloat64()); err != nil {
			return nil, err
		}
	}
	if err := writeRow(f, SheetSummary, len(summary)+3, "Invoice totals", len(invs), grand.InexactFloat64()); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(SheetInvoices, "A", "A", 38)
	_ = f.SetColWidth(SheetInvoices, "B", "B", 14)
	_ = f.SetColWidth(SheetInvoices, "C", "C", 32)
	_ = f.SetColWidth(SheetInvoices, "D", "E", 14)
	_ = f.SetColWidth(SheetItems, "A", "A", 38)
	_ = f.SetColWidth(SheetItems, "C", "C", 38)
	_ = f.SetColWidth(SheetItems, "D", "D", 40)
	_ = f.SetColWidth(SheetItems, "E", "E", 18)
	_ = f.SetColWidth(SheetSummary, "A", "A", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"invoices", len(invs),
		"items", itemRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
