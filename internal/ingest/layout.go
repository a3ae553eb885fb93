package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Layout is the set of directories the watcher works across.
type Layout struct {
	Incoming  string
	Processed string
	Failed    string
	Output    string
}

// Ensure creates every directory of the layout.
func (l Layout) Ensure() error {
	for _, d := range []string{l.Incoming, l.Processed, l.Failed, l.Output} {
		if strings.TrimSpace(d) == "" {
			continue
		}
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}

// IsHidden reports whether the base name of path starts with a dot.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// MoveTo moves src into dir, keeping its base name. An existing file of the
// same name is never overwritten; a numeric suffix is added instead.
func MoveTo(src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := freeName(dir, filepath.Base(src))
	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	} else if !errors.Is(err, syscall.EXDEV) {
		return "", err
	}
	// cross-device: copy then remove
	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	if err := os.Remove(src); err != nil {
		return dst, err
	}
	return dst, nil
}

func freeName(dir, base string) string {
	dst := filepath.Join(dir, base)
	if _, err := os.Lstat(dst); errors.Is(err, os.ErrNotExist) {
		return dst
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		dst = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		if _, err := os.Lstat(dst); errors.Is(err, os.ErrNotExist) {
			return dst
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
