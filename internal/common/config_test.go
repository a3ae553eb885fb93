package common

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"INCOMING_DIR", "OUTPUT_DIR", "DB_PATH", "STORE_DRIVER", "WATCH_DEBOUNCE", "WATCH_PATTERNS", "OCR_ENGINE", "PDF_TEXT_MODE", "WATCH_INITIAL_SCAN", "PROCESSED_DIR", "FAILED_DIR", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, filepath.Join("invoices", "incoming"), cfg.Dirs.Incoming)
	assert.Equal(t, filepath.Join("invoices", "processed"), cfg.Dirs.Processed)
	assert.Equal(t, filepath.Join("invoices", "failed"), cfg.Dirs.Failed)
	assert.Equal(t, StoreJSON, cfg.Store.Driver)
	assert.Equal(t, filepath.Join("output", "invoices_db.json"), cfg.Store.JSONPath)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.True(t, cfg.Watch.InitialScan)
	assert.Nil(t, cfg.Watch.Patterns)
	assert.Equal(t, OCREngineTesseract, cfg.OCR.Engine)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "out")
	t.Setenv("DB_PATH", "")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("WATCH_DEBOUNCE", "250ms")
	t.Setenv("WATCH_PATTERNS", "*.pdf, ,*.png")
	t.Setenv("WATCH_INITIAL_SCAN", "false")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg := LoadConfig()
	assert.Equal(t, filepath.Join("out", "invoices_db.json"), cfg.Store.JSONPath)
	assert.Equal(t, filepath.Join("out", "invoices.db"), cfg.Store.SQLitePath)
	assert.Equal(t, StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, []string{"*.pdf", "*.png"}, cfg.Watch.Patterns)
	assert.False(t, cfg.Watch.InitialScan)
	assert.Equal(t, int32(5), cfg.Store.MaxConns)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Dirs:  DirsConfig{Incoming: "in", Processed: "done", Failed: "failed", Output: "out"},
			Store: StoreConfig{Driver: StoreJSON, JSONPath: "out/db.json"},
			OCR:   OCRConfig{Engine: OCREngineTesseract, PDFTextMode: "auto"},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "missing incoming", mutate: func(c *Config) { c.Dirs.Incoming = "" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mongo" }},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Driver = StorePostgres }},
		{name: "azure without key", mutate: func(c *Config) { c.OCR.Engine = OCREngineAzure; c.OCR.AzureEndpoint = "https://x" }},
		{name: "bad pdf mode", mutate: func(c *Config) { c.OCR.PDFTextMode = "ocr" }},
	}
	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			var appErr *AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "CONFIG_ERROR", appErr.Code)
		})
	}
}
