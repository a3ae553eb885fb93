package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoices-tracker/internal/common"
	"github.com/joseph-ayodele/invoices-tracker/internal/entity"
)

// Store persists invoices and deduplicates them by content hash.
type Store interface {
	// Exists reports whether an invoice with this content hash is stored.
	Exists(ctx context.Context, contentHash string) (bool, error)
	// Append stores inv. It fails with common.ErrDuplicate when the hash is taken.
	Append(ctx context.Context, inv entity.Invoice) error
	// List returns all invoices in insertion order.
	List(ctx context.Context) ([]entity.Invoice, error)
	// Get returns one invoice by id or common.ErrNotFound.
	Get(ctx context.Context, id string) (entity.Invoice, error)
	// HealthCheck verifies the backing file or database is reachable.
	HealthCheck(ctx context.Context, timeout time.Duration) error
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case common.StoreJSON, "":
		return NewJSONStore(cfg.JSONPath, logger)
	case common.StoreSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath, logger)
	case common.StorePostgres:
		return OpenPostgres(ctx, Config{
			DSN:         cfg.DSN,
			MaxConns:    cfg.MaxConns,
			MinConns:    cfg.MinConns,
			DialTimeout: cfg.DialTimeout,
		}, logger)
	default:
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown store driver %q", cfg.Driver), common.ErrInvalidInput)
	}
}

func duplicateError(hash string) error {
	return common.NewAppError("DUPLICATE", "content hash "+hash, common.ErrDuplicate)
}

func notFoundError(id string) error {
	return common.NewAppError("NOT_FOUND", "invoice "+id, common.ErrNotFound)
}
