package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/invoices-tracker/internal/entity"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// SQLiteStore keeps invoices in a local SQLite database (pure Go driver).
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("sqlite store opened", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Exists(ctx context.Context, contentHash string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices WHERE content_hash = ?`, contentHash).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check hash: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) Append(ctx context.Context, inv entity.Invoice) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO invoices (invoice_id, content_hash, invoice_no, vendor, date, total_amount) VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ContentHash, inv.InvoiceNo, inv.Vendor, inv.Date, inv.TotalAmount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateError(inv.ContentHash)
		}
		s.logger.Error("failed to insert invoice", "invoice_id", inv.ID, "error", err)
		return fmt.Errorf("insert invoice: %w", err)
	}
	for i, it := range inv.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO invoice_items (item_id, invoice_id, position, name, price, category) VALUES (?, ?, ?, ?, ?, ?)`,
			it.ID, inv.ID, i, it.Name, it.Price, it.Category,
		)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]entity.Invoice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT invoice_id, content_hash, invoice_no, vendor, date, total_amount FROM invoices ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	invoices, err := scanInvoices(rows)
	if err != nil {
		return nil, err
	}
	items, err := s.itemsByInvoice(ctx)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		if its, ok := items[invoices[i].ID]; ok {
			invoices[i].Items = its
		}
	}
	return invoices, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (entity.Invoice, error) {
	var inv entity.Invoice
	err := s.db.QueryRowContext(ctx,
		`SELECT invoice_id, content_hash, invoice_no, vendor, date, total_amount FROM invoices WHERE invoice_id = ?`, id,
	).Scan(&inv.ID, &inv.ContentHash, &inv.InvoiceNo, &inv.Vendor, &inv.Date, &inv.TotalAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Invoice{}, notFoundError(id)
	}
	if err != nil {
		return entity.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, name, price, category FROM invoice_items WHERE invoice_id = ? ORDER BY position`, id)
	if err != nil {
		return entity.Invoice{}, fmt.Errorf("get items: %w", err)
	}
	defer func() { _ = rows.Close() }()
	inv.Items = []entity.Item{}
	for rows.Next() {
		var it entity.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Price, &it.Category); err != nil {
			return entity.Invoice{}, fmt.Errorf("scan item: %w", err)
		}
		inv.Items = append(inv.Items, it)
	}
	return inv, rows.Err()
}

func (s *SQLiteStore) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) itemsByInvoice(ctx context.Context) (map[string][]entity.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT invoice_id, item_id, name, price, category FROM invoice_items ORDER BY invoice_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string][]entity.Item{}
	for rows.Next() {
		var (
			invoiceID string
			it        entity.Item
		)
		if err := rows.Scan(&invoiceID, &it.ID, &it.Name, &it.Price, &it.Category); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out[invoiceID] = append(out[invoiceID], it)
	}
	return out, rows.Err()
}

func scanInvoices(rows *sql.Rows) ([]entity.Invoice, error) {
	defer func() { _ = rows.Close() }()
	invoices := []entity.Invoice{}
	for rows.Next() {
		inv := entity.Invoice{Items: []entity.Item{}}
		if err := rows.Scan(&inv.ID, &inv.ContentHash, &inv.InvoiceNo, &inv.Vendor, &inv.Date, &inv.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// isUniqueViolation matches the driver's constraint error text; both
// sqlite and postgres name the constraint kind in the message.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
