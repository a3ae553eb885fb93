package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoices-tracker/internal/common"
	"github.com/joseph-ayodele/invoices-tracker/internal/entity"
)

func sampleInvoice(n int) entity.Invoice {
	return entity.Invoice{
		ID:          fmt.Sprintf("inv-%d", n),
		InvoiceNo:   fmt.Sprintf("%d", 1000+n),
		Vendor:      "SuperStore",
		Date:        "Mar 06 2012",
		TotalAmount: 1234.56,
		ContentHash: fmt.Sprintf("hash-%d", n),
		Items: []entity.Item{
			{ID: fmt.Sprintf("item-%d-a", n), Name: "Gaming Laptop", Price: 1000, Category: "technology"},
			{ID: fmt.Sprintf("item-%d-b", n), Name: "Red Shoes", Price: 34.56, Category: "fashion"},
		},
	}
}

// runStoreContract exercises the behavior every Store must share.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.HealthCheck(ctx, time.Second))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	ok, err := s.Exists(ctx, "hash-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Append(ctx, sampleInvoice(1)))
	noItems := sampleInvoice(2)
	noItems.Items = nil
	require.NoError(t, s.Append(ctx, noItems))

	ok, err = s.Exists(ctx, "hash-1")
	require.NoError(t, err)
	assert.True(t, ok)

	dup := sampleInvoice(3)
	dup.ContentHash = "hash-1"
	err = s.Append(ctx, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDuplicate)

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, sampleInvoice(1), list[0])
	assert.Equal(t, "inv-2", list[1].ID)
	assert.NotNil(t, list[1].Items)
	assert.Empty(t, list[1].Items)

	got, err := s.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, sampleInvoice(1), got)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
