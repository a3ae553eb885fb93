package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/invoices-tracker/internal/core/ocr"
)

// ocrEngine is the slice of *ocr.Extractor the adapter needs.
type ocrEngine interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

type OCRAdapter struct {
	engine ocrEngine
	logger *slog.Logger
}

func NewOCRAdapter(e ocrEngine, l *slog.Logger) *OCRAdapter {
	if l == nil {
		l = slog.Default()
	}
	return &OCRAdapter{
		engine: e,
		logger: l,
	}
}

func (a *OCRAdapter) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	r, err := a.engine.Extract(ctx, path)
	if err != nil {
		return TextExtractionResult{}, err
	}
	for _, w := range r.Warnings {
		a.logger.Warn("extract.text.warning", "path", path, "method", r.Method, "warning", w)
	}
	return TextExtractionResult{
		Text:       r.Text,
		Pages:      r.Pages,
		SourceType: r.SourceType,
		Method:     r.Method,
		Language:   r.Language,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
		Confidence: r.Confidence,
	}, nil
}
