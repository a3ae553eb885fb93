package ocr

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoices-tracker/constants"
	"github.com/joseph-ayodele/invoices-tracker/internal/common"
)

type call struct {
	name string
	args []string
}

type stubRunner struct {
	stdout []byte
	stderr []byte
	err    error
	calls  []call
}

func (s *stubRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, call{name: name, args: args})
	return s.stdout, s.stderr, s.err
}

func newTestExtractor(t *testing.T, cfg Config, r Runner) *Extractor {
	t.Helper()
	e := NewExtractor(cfg, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	e.runner = r
	return e
}

func touch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("stub"), 0o644))
	return path
}

func TestExtract_PDFUsesPdftotext(t *testing.T) {
	r := &stubRunner{stdout: []byte("INVOICE\r\n# 42\t\tAcme  Corp   \n\f")}
	e := newTestExtractor(t, Config{}, r)
	path := touch(t, "a.pdf")

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, r.calls, 1)
	assert.Equal(t, "pdftotext", r.calls[0].name)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix", path, "-"}, r.calls[0].args)
	assert.Equal(t, constants.PDF, res.SourceType)
	assert.Equal(t, "pdf-text", res.Method)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "INVOICE\n# 42 Acme Corp\n\f", res.Text)
}

func TestExtract_PdftotextFailureIsReadFailure(t *testing.T) {
	r := &stubRunner{stderr: []byte("Syntax Error"), err: errors.New("exit status 1")}
	e := newTestExtractor(t, Config{PDFTextMode: PDFModePdftotext}, r)

	_, err := e.Extract(context.Background(), touch(t, "broken.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrReadFailure)
}

func TestExtract_MissingPdftotextFallsBackToNativeReader(t *testing.T) {
	r := &stubRunner{err: exec.ErrNotFound}
	e := newTestExtractor(t, Config{}, r)

	// not a real PDF, so the native reader fails too; the error must come from it
	_, err := e.Extract(context.Background(), touch(t, "a.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrReadFailure)
	assert.Contains(t, err.Error(), "pdf reader")
}

func TestExtract_ImageUsesTesseract(t *testing.T) {
	r := &stubRunner{stdout: []byte("Seller:\nBecker Ltd\n-----\nITEMS\n")}
	e := newTestExtractor(t, Config{TesseractLang: "deu", TessdataDir: "/td"}, r)
	path := touch(t, "scan.PNG")

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, r.calls, 1)
	assert.Equal(t, "tesseract", r.calls[0].name)
	assert.Equal(t, []string{path, "stdout", "-l", "deu", "--tessdata-dir", "/td"}, r.calls[0].args)
	assert.Equal(t, constants.IMAGE, res.SourceType)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, "Seller:\nBecker Ltd\n\nITEMS", res.Text)
}

func TestExtract_UnsupportedExtension(t *testing.T) {
	r := &stubRunner{}
	e := newTestExtractor(t, Config{}, r)

	_, err := e.Extract(context.Background(), touch(t, "notes.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
	assert.Empty(t, r.calls)
}

func TestExtract_MissingFile(t *testing.T) {
	e := newTestExtractor(t, Config{}, &stubRunner{})

	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrReadFailure)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "crlf and tabs", in: "a\r\nb\tc\rd", want: "a\nb c\nd"},
		{name: "keeps blank lines", in: "INVOICE\n\n\nAcme", want: "INVOICE\n\n\nAcme"},
		{name: "trailing spaces", in: "Total:   $1.00   \nx", want: "Total: $1.00\nx"},
		{name: "leading zeros untouched", in: "Mar 06 2012", want: "Mar 06 2012"},
		{name: "nfc", in: "Cafe\u0301", want: "Caf\u00e9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestHeuristicConfidence(t *testing.T) {
	assert.Zero(t, heuristicConfidence("   "))
	low := heuristicConfidence("hello")
	high := heuristicConfidence("INVOICE # 1\nDate: Mar 06 2012\nTotal: $1,234.56")
	assert.Greater(t, high, low)
	assert.LessOrEqual(t, high, float32(1.0))
}
