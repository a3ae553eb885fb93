package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/invoices-tracker/internal/entity"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS invoices (
    seq          BIGSERIAL PRIMARY KEY,
    invoice_id   TEXT NOT NULL UNIQUE,
    content_hash TEXT NOT NULL UNIQUE,
    invoice_no   TEXT NOT NULL,
    vendor       TEXT NOT NULL,
    date         TEXT NOT NULL,
    total_amount DOUBLE PRECISION NOT NULL CHECK (total_amount >= 0),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS invoice_items (
    item_id    TEXT PRIMARY KEY,
    invoice_id TEXT NOT NULL REFERENCES invoices (invoice_id) ON DELETE CASCADE,
    position   INTEGER NOT NULL,
    name       TEXT NOT NULL,
    price      DOUBLE PRECISION NOT NULL CHECK (price >= 0),
    category   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice ON invoice_items (invoice_id, position);
`

// PostgresStore keeps invoices in Postgres through a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates a pgx pool, pings it and applies the schema.
func OpenPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database dsn", "error", err)
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "invoices-tracker"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		logger.Error("failed to ping database", "error", err)
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("successfully connected to database")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Exists(ctx context.Context, contentHash string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE content_hash = $1)`, contentHash).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check hash: %w", err)
	}
	return ok, nil
}

func (s *PostgresStore) Append(ctx context.Context, inv entity.Invoice) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO invoices (invoice_id, content_hash, invoice_no, vendor, date, total_amount) VALUES ($1, $2, $3, $4, $5, $6)`,
			inv.ID, inv.ContentHash, inv.InvoiceNo, inv.Vendor, inv.Date, inv.TotalAmount,
		)
		if err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for i, it := range inv.Items {
			batch.Queue(
				`INSERT INTO invoice_items (item_id, invoice_id, position, name, price, category) VALUES ($1, $2, $3, $4, $5, $6)`,
				it.ID, inv.ID, i, it.Name, it.Price, it.Category,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return duplicateError(inv.ContentHash)
		}
		s.logger.Error("failed to insert invoice", "invoice_id", inv.ID, "error", err)
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]entity.Invoice, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT invoice_id, content_hash, invoice_no, vendor, date, total_amount FROM invoices ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	invoices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Invoice, error) {
		inv := entity.Invoice{Items: []entity.Item{}}
		err := row.Scan(&inv.ID, &inv.ContentHash, &inv.InvoiceNo, &inv.Vendor, &inv.Date, &inv.TotalAmount)
		return inv, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan invoices: %w", err)
	}

	rows, err = s.pool.Query(ctx,
		`SELECT invoice_id, item_id, name, price, category FROM invoice_items ORDER BY invoice_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	items := map[string][]entity.Item{}
	for rows.Next() {
		var (
			invoiceID string
			it        entity.Item
		)
		if err := rows.Scan(&invoiceID, &it.ID, &it.Name, &it.Price, &it.Category); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items[invoiceID] = append(items[invoiceID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range invoices {
		if its, ok := items[invoices[i].ID]; ok {
			invoices[i].Items = its
		}
	}
	if invoices == nil {
		invoices = []entity.Invoice{}
	}
	return invoices, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (entity.Invoice, error) {
	var inv entity.Invoice
	err := s.pool.QueryRow(ctx,
		`SELECT invoice_id, content_hash, invoice_no, vendor, date, total_amount FROM invoices WHERE invoice_id = $1`, id,
	).Scan(&inv.ID, &inv.ContentHash, &inv.InvoiceNo, &inv.Vendor, &inv.Date, &inv.TotalAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.Invoice{}, notFoundError(id)
	}
	if err != nil {
		return entity.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT item_id, name, price, category FROM invoice_items WHERE invoice_id = $1 ORDER BY position`, id)
	if err != nil {
		return entity.Invoice{}, fmt.Errorf("get items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Item, error) {
		var it entity.Item
		err := row.Scan(&it.ID, &it.Name, &it.Price, &it.Category)
		return it, err
	})
	if err != nil {
		return entity.Invoice{}, fmt.Errorf("scan items: %w", err)
	}
	inv.Items = items
	if inv.Items == nil {
		inv.Items = []entity.Item{}
	}
	return inv, nil
}

// HealthCheck pings the pool.
func (s *PostgresStore) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	s.logger.Debug("pinging database")
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.logger.Info("closing database connections")
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
