package extract

import (
	"context"
	"time"
)

// TextExtractor turns a source file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // "PDF" | "IMAGE"
	Method     string
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}
