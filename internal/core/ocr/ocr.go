package ocr

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/invoices-tracker/constants"
	"github.com/joseph-ayodele/invoices-tracker/internal/common"
)

// PDF text modes.
const (
	PDFModeAuto      = "auto"
	PDFModePdftotext = "pdftotext"
	PDFModeNative    = "native"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string

	PDFTextMode string // auto | pdftotext | native
	MaxPages    int    // 0 = no limit, native reader only

	// EnhanceImages runs grayscale/contrast/sharpen before tesseract.
	EnhanceImages    bool
	ArtifactCacheDir string

	// Engine selects the image recognizer: "tesseract" (default) or "azure".
	Engine        string
	AzureEndpoint string
	AzureKey      string

	Timeout time.Duration
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-text" | "pdf-native" | "image-ocr" | "image-azure"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// ImageRecognizer turns an image file into raw text.
type ImageRecognizer interface {
	Recognize(ctx context.Context, path string) (text string, warnings []string, err error)
	Method() string
}

type Extractor struct {
	cfg    Config
	runner Runner
	images ImageRecognizer
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.PDFTextMode == "" {
		cfg.PDFTextMode = PDFModeAuto
	}
	if cfg.ArtifactCacheDir == "" {
		cfg.ArtifactCacheDir = "./tmp"
	}
	e := &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
	if cfg.Engine == common.OCREngineAzure {
		e.images = NewAzureRecognizer(cfg.AzureEndpoint, cfg.AzureKey, logger)
	} else {
		e.images = &tesseractRecognizer{e: e}
	}
	return e
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)

	format := constants.MapExtToFormat(ext)
	if format == "" {
		e.logger.Error("ocr.extract.unsupported", "path", path, "ext", ext)
		return ExtractionResult{}, common.UnsupportedFormat(path, ext)
	}
	if st, err := os.Stat(path); err != nil {
		return ExtractionResult{SourceType: format}, common.ReadFailure(path, err)
	} else if st.IsDir() {
		return ExtractionResult{SourceType: format}, common.ReadFailure(path, errors.New("is a directory"))
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	var (
		res ExtractionResult
		err error
	)
	switch format {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, path)
	}
	res.Duration = time.Since(start)
	if err != nil {
		return res, common.ReadFailure(path, err)
	}
	res.Text = Normalize(res.Text)
	res.Confidence = heuristicConfidence(res.Text)
	e.logger.Debug("ocr.extract.done",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
