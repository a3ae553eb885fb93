package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/invoices-tracker/constants"
	"github.com/joseph-ayodele/invoices-tracker/internal/common"
	"github.com/joseph-ayodele/invoices-tracker/internal/core/extract"
	"github.com/joseph-ayodele/invoices-tracker/internal/core/invoice"
	"github.com/joseph-ayodele/invoices-tracker/internal/entity"
)

// InvoiceStore is the part of a repository the processor writes to.
type InvoiceStore interface {
	Exists(ctx context.Context, contentHash string) (bool, error)
	Append(ctx context.Context, inv entity.Invoice) error
}

// Outcome describes what happened to one file.
type Outcome struct {
	Path        string
	Status      constants.OutcomeStatus
	ContentHash string
	Invoice     entity.Invoice
	Method      string
	Duration    time.Duration
}

// Processor coordinates hashing, dedup, text extraction, assembly and storage.
type Processor struct {
	logger    *slog.Logger
	extractor extract.TextExtractor
	assembler *invoice.Assembler
	store     InvoiceStore
}

func NewProcessor(
	logger *slog.Logger,
	extractor extract.TextExtractor,
	assembler *invoice.Assembler,
	store InvoiceStore,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:    logger,
		extractor: extractor,
		assembler: assembler,
		store:     store,
	}
}

// ProcessFile ingests one file. A file whose content hash is already stored
// yields StatusDuplicate and no error. Errors wrap common.ErrReadFailure,
// common.ErrUnsupportedFormat or a store failure.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Outcome, error) {
	start := time.Now()
	out := Outcome{Path: path, Status: constants.StatusFailed}

	if err := checkFormat(path); err != nil {
		p.logger.Warn("processor.format.unsupported", "path", path)
		return out, err
	}

	hash, err := HashFile(path)
	if err != nil {
		p.logger.Error("processor.hash.failed", "path", path, "error", err)
		return out, err
	}
	out.ContentHash = hash

	seen, err := p.store.Exists(ctx, hash)
	if err != nil {
		return out, fmt.Errorf("check duplicate: %w", err)
	}
	if seen {
		out.Status = constants.StatusDuplicate
		out.Duration = time.Since(start)
		p.logger.Info("processor.invoice.duplicate", "path", path, "content_hash", hash)
		return out, nil
	}

	inv, method, err := p.assemble(ctx, path, hash)
	if err != nil {
		return out, err
	}
	out.Invoice, out.Method = inv, method

	if err := p.store.Append(ctx, inv); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			out.Status = constants.StatusDuplicate
			out.Duration = time.Since(start)
			p.logger.Info("processor.invoice.duplicate", "path", path, "content_hash", hash)
			return out, nil
		}
		p.logger.Error("processor.store.failed", "path", path, "error", err)
		return out, fmt.Errorf("store invoice: %w", err)
	}

	out.Status = constants.StatusProcessed
	out.Duration = time.Since(start)
	p.logger.Info("processor.invoice.stored",
		"path", path,
		"invoice_id", inv.ID,
		"invoice_no", inv.InvoiceNo,
		"vendor", inv.Vendor,
		"items", len(inv.Items),
		"total", inv.TotalAmount,
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}

// Preview extracts and assembles an invoice without touching the store.
func (p *Processor) Preview(ctx context.Context, path string) (entity.Invoice, error) {
	if err := checkFormat(path); err != nil {
		return entity.Invoice{}, err
	}
	hash, err := HashFile(path)
	if err != nil {
		return entity.Invoice{}, err
	}
	inv, _, err := p.assemble(ctx, path, hash)
	return inv, err
}

func (p *Processor) assemble(ctx context.Context, path, hash string) (entity.Invoice, string, error) {
	ctx = common.WithContentHash(common.WithSourcePath(ctx, path), hash)
	res, err := p.extractor.Extract(ctx, path)
	if err != nil {
		p.logger.Error("processor.extract.failed", "path", path, "content_hash", hash, "error", err)
		if errors.Is(err, common.ErrReadFailure) || errors.Is(err, common.ErrUnsupportedFormat) {
			return entity.Invoice{}, "", err
		}
		return entity.Invoice{}, "", common.ReadFailure(path, err)
	}
	p.logger.Debug("processor.extract.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
	)
	return p.assembler.Assemble(res.Text, hash), res.Method, nil
}

func checkFormat(path string) error {
	ext := filepath.Ext(path)
	if !constants.IsAllowedExt(ext) {
		return common.UnsupportedFormat(path, constants.NormalizeExt(ext))
	}
	return nil
}

// HashFile returns the hex sha256 of the file contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", common.ReadFailure(path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", common.ReadFailure(path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
