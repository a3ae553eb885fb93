package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// stderrLogLimit caps how much of a failing tool's stderr reaches the log.
const stderrLogLimit = 8 << 10

// Runner executes an external tool (pdftotext, tesseract). Tests swap in a stub.
type Runner interface {
	Run(ctx context.Context, name string, logger *slog.Logger, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, logger *slog.Logger, args ...string) ([]byte, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("ocr.exec.start", "cmd", name, "args", strings.Join(args, " "))
	start := time.Now()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			exitCode = ee.ExitCode()
		}
		logger.Error("ocr.exec.failed",
			"cmd", name,
			"exit_code", exitCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
			"stderr", clip(stderr.String(), stderrLogLimit),
		)
		return stdout.Bytes(), stderr.Bytes(), err
	}
	logger.Debug("ocr.exec.ok",
		"cmd", name,
		"duration_ms", time.Since(start).Milliseconds(),
		"stdout_bytes", stdout.Len(),
	)
	return stdout.Bytes(), stderr.Bytes(), nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
