package export

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoices-tracker/internal/entity"
)

type listerFunc func(ctx context.Context) ([]entity.Invoice, error)

func (f listerFunc) List(ctx context.Context) ([]entity.Invoice, error) { return f(ctx) }

func fixtures() []entity.Invoice {
	return []entity.Invoice{
		{
			ID: "inv-1", InvoiceNo: "36258", Vendor: "SuperStore", Date: "Mar 06 2012", TotalAmount: 1234.56,
			Items: []entity.Item{
				{ID: "it-1", Name: "Laptop Stand", Price: 49.99, Category: "technology"},
				{ID: "it-2", Name: "Wool Scarf", Price: 0.1, Category: "fashion"},
			},
		},
		{
			ID: "inv-2", InvoiceNo: "Unknown", Vendor: "Unknown", Date: "Unknown",
			Items: []entity.Item{
				{ID: "it-3", Name: "Phone Case", Price: 0.2, Category: "fashion"},
			},
		},
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(fixtures())
	require.Len(t, got, 2)

	assert.Equal(t, "technology", got[0].Category)
	assert.Equal(t, 1, got[0].Items)
	assert.Equal(t, "49.99", got[0].Total.String())

	assert.Equal(t, "fashion", got[1].Category)
	assert.Equal(t, 2, got[1].Items)
	// decimal sums avoid 0.30000000000000004
	assert.Equal(t, "0.3", got[1].Total.String())
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(nil))
}

func TestExportInvoicesXLSX(t *testing.T) {
	svc := NewService(listerFunc(func(context.Context) ([]entity.Invoice, error) {
		return fixtures(), nil
	}), nil)

	data, err := svc.ExportInvoicesXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetInvoices, SheetItems, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetInvoices)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Invoice ID", "Invoice No", "Vendor", "Date", "Total", "Items"}, rows[0])
	assert.Equal(t, []string{"inv-1", "36258", "SuperStore", "Mar 06 2012", "1234.56", "2"}, rows[1])
	assert.Equal(t, "Unknown", rows[2][1])

	items, err := f.GetRows(SheetItems)
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, []string{"inv-1", "36258", "it-1", "Laptop Stand", "technology", "49.99"}, items[1])
	assert.Equal(t, "it-3", items[3][2])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"technology", "1", "49.99"}, summary[1])
	assert.Equal(t, []string{"fashion", "2", "0.3"}, summary[2])
	last := summary[len(summary)-1]
	assert.Equal(t, []string{"Invoice totals", "2", "1234.56"}, last)
}

func TestExportInvoicesXLSX_ListError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(listerFunc(func(context.Context) ([]entity.Invoice, error) {
		return nil, boom
	}), nil)

	_, err := svc.ExportInvoicesXLSX(context.Background())
	assert.ErrorIs(t, err, boom)
}
