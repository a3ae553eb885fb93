package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoices-tracker/constants"
	"github.com/joseph-ayodele/invoices-tracker/internal/common"
	"github.com/joseph-ayodele/invoices-tracker/internal/core/category"
	"github.com/joseph-ayodele/invoices-tracker/internal/core/extract"
	"github.com/joseph-ayodele/invoices-tracker/internal/core/invoice"
	"github.com/joseph-ayodele/invoices-tracker/internal/entity"
)

type fakeExtractor struct {
	text  string
	err   error
	calls int
	hash  string
}

func (f *fakeExtractor) Extract(ctx context.Context, _ string) (extract.TextExtractionResult, error) {
	f.calls++
	f.hash = common.ContentHashFromContext(ctx)
	if f.err != nil {
		return extract.TextExtractionResult{}, f.err
	}
	return extract.TextExtractionResult{Text: f.text, Method: "fake"}, nil
}

type memStore struct {
	mu        sync.Mutex
	invoices  []entity.Invoice
	existsErr error
	appendErr error
}

func (m *memStore) Exists(_ context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, inv := range m.invoices {
		if inv.ContentHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Append(_ context.Context, inv entity.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.invoices = append(m.invoices, inv)
	return nil
}

const tableText = "INVOICE\n# 7\nAcme\nWidget Pro 2 $10.00 $20.00\nTotal: $20.00\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestProcessor(ex extract.TextExtractor, st InvoiceStore) *Processor {
	return NewProcessor(nil, ex, invoice.NewAssembler(category.New(nil)), st)
}

func TestProcessFile_StoresInvoice(t *testing.T) {
	ex := &fakeExtractor{text: tableText}
	st := &memStore{}
	path := writeFile(t, "a.pdf", "pdf bytes")

	out, err := newTestProcessor(ex, st).ProcessFile(context.Background(), path)
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("pdf bytes"))
	wantHash := hex.EncodeToString(sum[:])

	assert.Equal(t, constants.StatusProcessed, out.Status)
	assert.Equal(t, wantHash, out.ContentHash)
	assert.Equal(t, wantHash, ex.hash)
	assert.Equal(t, "fake", out.Method)
	require.Len(t, st.invoices, 1)
	inv := st.invoices[0]
	assert.Equal(t, wantHash, inv.ContentHash)
	assert.Equal(t, "7", inv.InvoiceNo)
	assert.Equal(t, "Acme", inv.Vendor)
	assert.InDelta(t, 20.0, inv.TotalAmount, 1e-9)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Widget Pro", inv.Items[0].Name)
}

func TestProcessFile_DuplicateIsSkipped(t *testing.T) {
	ex := &fakeExtractor{text: tableText}
	st := &memStore{}
	p := newTestProcessor(ex, st)

	first := writeFile(t, "a.pdf", "same bytes")
	second := writeFile(t, "b.png", "same bytes")

	_, err := p.ProcessFile(context.Background(), first)
	require.NoError(t, err)
	out, err := p.ProcessFile(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(t, constants.StatusDuplicate, out.Status)
	assert.Len(t, st.invoices, 1)
	assert.Equal(t, 1, ex.calls, "duplicate must not be extracted again")
}

func TestProcessFile_AppendRaceCountsAsDuplicate(t *testing.T) {
	st := &memStore{appendErr: common.NewAppError("DUPLICATE", "h", common.ErrDuplicate)}
	out, err := newTestProcessor(&fakeExtractor{text: tableText}, st).
		ProcessFile(context.Background(), writeFile(t, "a.pdf", "x"))
	require.NoError(t, err)
	assert.Equal(t, constants.StatusDuplicate, out.Status)
}

func TestProcessFile_Failures(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		ex      *fakeExtractor
		st      *memStore
		wantErr error
	}{
		{
			name:    "unsupported extension",
			path:    func(t *testing.T) string { return writeFile(t, "notes.txt", "x") },
			ex:      &fakeExtractor{},
			st:      &memStore{},
			wantErr: common.ErrUnsupportedFormat,
		},
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "gone.pdf") },
			ex:      &fakeExtractor{},
			st:      &memStore{},
			wantErr: common.ErrReadFailure,
		},
		{
			name:    "extractor error becomes read failure",
			path:    func(t *testing.T) string { return writeFile(t, "a.jpg", "x") },
			ex:      &fakeExtractor{err: errors.New("tesseract: exit status 1")},
			st:      &memStore{},
			wantErr: common.ErrReadFailure,
		},
		{
			name:    "typed extractor error passes through",
			path:    func(t *testing.T) string { return writeFile(t, "a.jpg", "x") },
			ex:      &fakeExtractor{err: common.UnsupportedFormat("a.jpg", "jpg")},
			st:      &memStore{},
			wantErr: common.ErrUnsupportedFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newTestProcessor(tt.ex, tt.st).ProcessFile(context.Background(), tt.path(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, constants.StatusFailed, out.Status)
			assert.Empty(t, tt.st.invoices)
		})
	}
}

func TestProcessFile_StoreErrors(t *testing.T) {
	boom := errors.New("disk full")

	_, err := newTestProcessor(&fakeExtractor{text: tableText}, &memStore{existsErr: boom}).
		ProcessFile(context.Background(), writeFile(t, "a.pdf", "x"))
	assert.ErrorIs(t, err, boom)

	_, err = newTestProcessor(&fakeExtractor{text: tableText}, &memStore{appendErr: boom}).
		ProcessFile(context.Background(), writeFile(t, "a.pdf", "x"))
	assert.ErrorIs(t, err, boom)
}

func TestPreview_DoesNotStore(t *testing.T) {
	st := &memStore{}
	inv, err := newTestProcessor(&fakeExtractor{text: tableText}, st).
		Preview(context.Background(), writeFile(t, "a.pdf", "x"))
	require.NoError(t, err)
	assert.Equal(t, "7", inv.InvoiceNo)
	assert.Empty(t, st.invoices)
}

func TestHashFile(t *testing.T) {
	path := writeFile(t, "a.pdf", "abc")
	got, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)

	_, err = HashFile(t.TempDir())
	assert.ErrorIs(t, err, common.ErrReadFailure)
}
