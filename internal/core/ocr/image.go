package ocr

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/invoices-tracker/constants"
	"github.com/joseph-ayodele/invoices-tracker/internal/common"
)

func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.IMAGE, Pages: 1, Method: e.images.Method()}

	src := path
	if e.cfg.EnhanceImages {
		out, cleanup, err := enhanceImage(path, e.cfg.ArtifactCacheDir, common.ContentHashFromContext(ctx), e.logger)
		if err != nil {
			// fall back to the original image
			e.logger.Warn("ocr.enhance.failed", "path", path, "error", err)
			res.Warnings = append(res.Warnings, "enhance: "+err.Error())
		} else {
			if cleanup != nil {
				defer cleanup()
			}
			src = out
		}
	}

	txt, warns, err := e.images.Recognize(ctx, src)
	res.Warnings = append(res.Warnings, warns...)
	if err != nil {
		return res, err
	}
	res.Text = txt
	res.Language = e.cfg.TesseractLang
	return res, nil
}

type tesseractRecognizer struct {
	e *Extractor
}

func (t *tesseractRecognizer) Method() string { return "image-ocr" }

func (t *tesseractRecognizer) Recognize(ctx context.Context, path string) (string, []string, error) {
	cfg := t.e.cfg
	args := []string{path, "stdout", "-l", cfg.TesseractLang}
	if cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := t.e.runner.Run(ctx, cfg.Tesseract, t.e.logger, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}
