package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONStore_Contract(t *testing.T) {
	s, err := NewJSONStore(filepath.Join(t.TempDir(), "output", "invoices_db.json"), nil)
	require.NoError(t, err)
	runStoreContract(t, s)
}

func TestJSONStore_FileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices_db.json")
	s, err := NewJSONStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), sampleInvoice(1)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc["invoices"], 1)
	assert.Equal(t, "hash-1", doc["invoices"][0]["_hash"])
	assert.Contains(t, string(data), "\n  \"invoices\": [\n")
}

func TestJSONStore_SharesFileAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices_db.json")
	writer, err := NewJSONStore(path, nil)
	require.NoError(t, err)
	reader, err := NewJSONStore(path, nil)
	require.NoError(t, err)

	require.NoError(t, writer.Append(context.Background(), sampleInvoice(1)))

	ok, err := reader.Exists(context.Background(), "hash-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJSONStore_ReadsLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices_db.json")
	legacy := `{
  "invoices": [
    {
      "invoice_id": "a",
      "invoice_no": "51109338",
      "vendor": "Andrews, Kirby and Valdez",
      "date": "04/13/2013",
      "total_amount": 61.05,
      "items": [],
      "_hash": "5d41402abc4b2a76b9719d911017c592"
    }
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s, err := NewJSONStore(path, nil)
	require.NoError(t, err)
	ok, err := s.Exists(context.Background(), "5d41402abc4b2a76b9719d911017c592")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJSONStore_RejectsInvalidDocument(t *testing.T) {
	tests := map[string]string{
		"not json":         "{",
		"missing invoices": `{"other": []}`,
		"negative total":   `{"invoices": [{"invoice_id": "a", "invoice_no": "1", "vendor": "v", "date": "d", "total_amount": -1, "items": [], "_hash": "h"}]}`,
		"missing hash":     `{"invoices": [{"invoice_id": "a", "invoice_no": "1", "vendor": "v", "date": "d", "total_amount": 1, "items": []}]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "invoices_db.json")
			require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
			_, err := NewJSONStore(path, nil)
			assert.Error(t, err)
		})
	}
}

func TestJSONStore_EmptyFileIsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices_db.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	s, err := NewJSONStore(path, nil)
	require.NoError(t, err)
	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
