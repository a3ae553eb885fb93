package repository

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/invoices-tracker/internal/entity"
)

//go:embed invoices.schema.json
var invoicesSchema []byte

// jsonDocument is the on-disk layout: {"invoices": [...]}.
type jsonDocument struct {
	Invoices []entity.Invoice `json:"invoices"`
}

// JSONStore keeps every invoice in one indented JSON file. The file is
// re-read on each call so other processes see appended invoices, and
// rewritten atomically on Append.
type JSONStore struct {
	path   string
	schema *jsonschema.Schema
	logger *slog.Logger
	mu     sync.Mutex
}

func NewJSONStore(path string, logger *slog.Logger) (*JSONStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return nil, errors.New("json store: path is required")
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("invoices.schema.json", bytes.NewReader(invoicesSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("invoices.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	s := &JSONStore{path: path, schema: schema, logger: logger}
	// fail fast on a corrupt file
	if _, err := s.load(); err != nil {
		return nil, err
	}
	logger.Info("json store opened", "path", path)
	return s, nil
}

func (s *JSONStore) Exists(_ context.Context, contentHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return false, err
	}
	for _, inv := range doc.Invoices {
		if inv.ContentHash == contentHash {
			return true, nil
		}
	}
	return false, nil
}

func (s *JSONStore) Append(_ context.Context, inv entity.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range doc.Invoices {
		if existing.ContentHash == inv.ContentHash {
			return duplicateError(inv.ContentHash)
		}
	}
	if inv.Items == nil {
		inv.Items = []entity.Item{}
	}
	doc.Invoices = append(doc.Invoices, inv)
	if err := s.save(doc); err != nil {
		return err
	}
	s.logger.Debug("json store appended", "invoice_id", inv.ID, "count", len(doc.Invoices))
	return nil
}

func (s *JSONStore) List(_ context.Context) ([]entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Invoices, nil
}

func (s *JSONStore) Get(_ context.Context, id string) (entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return entity.Invoice{}, err
	}
	for _, inv := range doc.Invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return entity.Invoice{}, notFoundError(id)
}

// HealthCheck re-reads and validates the store file.
func (s *JSONStore) HealthCheck(_ context.Context, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err
}

func (s *JSONStore) Close() error { return nil }

// load reads and validates the document; a missing file is an empty store.
func (s *JSONStore) load() (jsonDocument, error) {
	doc := jsonDocument{Invoices: []entity.Invoice{}}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read json store: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return doc, fmt.Errorf("parse json store %s: %w", s.path, err)
	}
	if err := s.schema.Validate(raw); err != nil {
		return doc, fmt.Errorf("json store %s does not match schema: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode json store %s: %w", s.path, err)
	}
	if doc.Invoices == nil {
		doc.Invoices = []entity.Invoice{}
	}
	return doc, nil
}

func (s *JSONStore) save(doc jsonDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json store: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".invoices-*.json")
	if err != nil {
		return fmt.Errorf("write json store: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write json store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write json store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write json store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace json store: %w", err)
	}
	return nil
}
