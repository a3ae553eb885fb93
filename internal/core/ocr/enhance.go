package ocr

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// enhanceImage writes a grayscale, contrast-boosted copy of the image for OCR.
// If cacheDir and hashHex are non-empty the copy is persisted (and reused) at
//
//	{cacheDir}/{hashHex}.png
//
// Returns (outPath, cleanup, err). cleanup is nil when the cache was used.
func enhanceImage(in, cacheDir, hashHex string, logger *slog.Logger) (string, func(), error) {
	var (
		out     string
		cleanup func()
	)
	if cacheDir != "" && hashHex != "" {
		out = filepath.Join(cacheDir, hashHex+".png")
		if st, err := os.Stat(out); err == nil && !st.IsDir() {
			logger.Debug("ocr.enhance.cached", "cache", out)
			return out, nil, nil
		}
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return "", nil, err
		}
	} else {
		tmpDir, err := os.MkdirTemp("", "it-enhance-*")
		if err != nil {
			return "", nil, err
		}
		cleanup = func() { _ = os.RemoveAll(tmpDir) }
		out = filepath.Join(tmpDir, "page.png")
	}

	src, err := imaging.Open(in, imaging.AutoOrientation(true))
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return "", nil, fmt.Errorf("open image: %w", err)
	}
	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)

	if err := imaging.Save(img, out); err != nil {
		if cleanup != nil {
			cleanup()
		}
		return "", nil, fmt.Errorf("save enhanced image: %w", err)
	}
	logger.Debug("ocr.enhance.done", "src", in, "out", out)
	return out, cleanup, nil
}
