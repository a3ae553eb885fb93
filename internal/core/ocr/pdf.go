package ocr

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/invoices-tracker/constants"
)

func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF}

	if e.cfg.PDFTextMode != PDFModeNative {
		text, pages, warns, err := e.pdfToText(ctx, path)
		res.Warnings = append(res.Warnings, warns...)
		switch {
		case err == nil && strings.TrimSpace(text) != "":
			res.Text, res.Pages, res.Method = text, pages, "pdf-text"
			return res, nil
		case err == nil:
			res.Warnings = append(res.Warnings, "pdftotext returned no text")
		case e.cfg.PDFTextMode == PDFModeAuto && errors.Is(err, exec.ErrNotFound):
			e.logger.Warn("ocr.pdftotext.missing", "binary", e.cfg.Pdftotext)
		default:
			return res, fmt.Errorf("pdftotext: %w", err)
		}
		if e.cfg.PDFTextMode == PDFModePdftotext {
			res.Text, res.Pages, res.Method = text, pages, "pdf-text"
			return res, nil
		}
	}

	text, pages, err := e.nativePDFText(path)
	if err != nil {
		return res, fmt.Errorf("pdf reader: %w", err)
	}
	res.Text, res.Pages, res.Method = text, pages, "pdf-native"
	return res, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, e.logger, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		if len(errb) > 0 {
			warnings = []string{string(errb)}
		}
		return "", 0, warnings, err
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = strings.Count(text, "\f")
	if !strings.HasSuffix(text, "\f") {
		pages++
	}
	return text, pages, nil, nil
}

// nativePDFText reads the text layer row by row without external binaries.
func (e *Extractor) nativePDFText(path string) (string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("ocr.pdf.close_failed", "path", path, "error", cerr)
		}
	}()

	total := r.NumPage()
	if e.cfg.MaxPages > 0 && total > e.cfg.MaxPages {
		total = e.cfg.MaxPages
	}
	var b strings.Builder
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", i, err)
		}
		if i > 1 {
			b.WriteString("\f")
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteString("\n")
		}
	}
	return b.String(), total, nil
}
