package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/invoices-tracker/constants"
	"github.com/joseph-ayodele/invoices-tracker/internal/core"
)

// FileProcessor turns one file into a stored invoice.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (core.Outcome, error)
}

// Service routes files from the incoming directory through a FileProcessor
// and files them under processed or failed.
type Service struct {
	processor FileProcessor
	layout    Layout
	logger    *slog.Logger
}

func NewService(processor FileProcessor, layout Layout, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{processor: processor, layout: layout, logger: logger}
}

// FileResult is the per-file record of a handled file.
type FileResult struct {
	Path        string
	Status      constants.OutcomeStatus
	InvoiceID   string
	ContentHash string
	MovedTo     string
	Err         error
}

// HandleFile processes one file and moves it: processed and duplicate files
// go to the processed directory, everything else to failed. It never panics
// and never returns an error; failures are reported in the result.
func (s *Service) HandleFile(ctx context.Context, path string) (res FileResult) {
	res = s.Process(ctx, path)
	if errors.Is(res.Err, os.ErrNotExist) {
		s.logger.Debug("ingest.file.gone", "path", path)
		return res
	}
	dir := s.layout.Processed
	if res.Status == constants.StatusFailed {
		dir = s.layout.Failed
	}
	moved, err := MoveTo(path, dir)
	if err != nil {
		s.logger.Error("ingest.move.failed", "path", path, "dir", dir, "error", err)
		if res.Err == nil {
			res.Err = err
		}
		return res
	}
	res.MovedTo = moved

	switch res.Status {
	case constants.StatusProcessed:
		s.logger.Info("ingest.file.processed", "path", path, "invoice_id", res.InvoiceID, "moved_to", moved)
	case constants.StatusDuplicate:
		s.logger.Info("ingest.file.duplicate", "path", path, "content_hash", res.ContentHash, "moved_to", moved)
	default:
		s.logger.Warn("ingest.file.failed", "path", path, "moved_to", moved, "error", res.Err)
	}
	return res
}

// Process runs one file through the processor without moving it. Panics
// are recovered and reported as failures.
func (s *Service) Process(ctx context.Context, path string) (res FileResult) {
	res = FileResult{Path: path, Status: constants.StatusFailed}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("ingest.file.panic", "path", path, "panic", r)
			res.Status = constants.StatusFailed
			res.Err = fmt.Errorf("panic while processing %s: %v", path, r)
		}
	}()

	if _, err := os.Stat(path); err != nil {
		res.Err = err
		return res
	}
	out, err := s.processor.ProcessFile(ctx, path)
	res.Status = out.Status
	res.ContentHash = out.ContentHash
	res.InvoiceID = out.Invoice.ID
	if err != nil {
		res.Status = constants.StatusFailed
		res.Err = err
	}
	return res
}

// Run handles every file already in the incoming directory, then handles new
// arrivals one at a time until ctx is done.
func (s *Service) Run(ctx context.Context, cfg WatchConfig) error {
	if err := s.layout.Ensure(); err != nil {
		return err
	}
	cfg.Roots = []string{s.layout.Incoming}
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}

	events, errs, err := StartWatcher(ctx, cfg)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	s.logger.Info("ingest.watch.started", "dir", s.layout.Incoming, "initial_scan", cfg.InitialScan)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ingest.watch.stopped")
			return nil
		case p, ok := <-events:
			if !ok {
				return nil
			}
			start := time.Now()
			res := s.HandleFile(ctx, p)
			s.logger.Debug("ingest.file.done", "path", p, "status", res.Status, "duration", time.Since(start))
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("ingest.watch.error", "error", err)
		}
	}
}
