package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/invoices-tracker/internal/common"
	"github.com/joseph-ayodele/invoices-tracker/internal/core"
	"github.com/joseph-ayodele/invoices-tracker/internal/core/category"
	"github.com/joseph-ayodele/invoices-tracker/internal/core/extract"
	"github.com/joseph-ayodele/invoices-tracker/internal/core/invoice"
	"github.com/joseph-ayodele/invoices-tracker/internal/core/ocr"
	"github.com/joseph-ayodele/invoices-tracker/internal/export"
	"github.com/joseph-ayodele/invoices-tracker/internal/ingest"
	"github.com/joseph-ayodele/invoices-tracker/internal/repository"
)

// app holds the wired components shared by subcommands.
type app struct {
	cfg         *common.Config
	logger      *slog.Logger
	store       repository.Store
	categorizer *category.Categorizer
	processor   *core.Processor
	ingest      *ingest.Service
	exporter    *export.Service
}

func newCategorizer(cfg *common.Config) (*category.Categorizer, error) {
	rules, err := category.LoadRules(cfg.Categories.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load category rules: %w", err)
	}
	return category.New(rules), nil
}

func newTextExtractor(cfg *common.Config, logger *slog.Logger) extract.TextExtractor {
	o := cfg.OCR
	engine := ocr.NewExtractor(ocr.Config{
		Engine:           o.Engine,
		Pdftotext:        o.Pdftotext,
		PDFTextMode:      o.PDFTextMode,
		Tesseract:        o.Tesseract,
		TesseractLang:    o.TesseractLang,
		TessdataDir:      o.TessdataDir,
		EnhanceImages:    o.EnhanceImages,
		ArtifactCacheDir: o.ArtifactCacheDir,
		AzureEndpoint:    o.AzureEndpoint,
		AzureKey:         o.AzureKey,
		Timeout:          o.Timeout,
	}, logger)
	return extract.NewOCRAdapter(engine, logger)
}

func layoutFrom(cfg *common.Config) ingest.Layout {
	return ingest.Layout{
		Incoming:  cfg.Dirs.Incoming,
		Processed: cfg.Dirs.Processed,
		Failed:    cfg.Dirs.Failed,
		Output:    cfg.Dirs.Output,
	}
}

func buildApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, logger := opts.cfg, opts.logger

	categorizer, err := newCategorizer(cfg)
	if err != nil {
		return nil, err
	}
	store, err := repository.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	proc := core.NewProcessor(logger, newTextExtractor(cfg, logger), invoice.NewAssembler(categorizer), store)
	return &app{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		categorizer: categorizer,
		processor:   proc,
		ingest:      ingest.NewService(proc, layoutFrom(cfg), logger),
		exporter:    export.NewService(store, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
}
