package common

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreJSON     = "json"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// OCR engines for image files.
const (
	OCREngineTesseract = "tesseract"
	OCREngineAzure     = "azure"
)

// Config holds all application configuration
type Config struct {
	Dirs       DirsConfig
	Store      StoreConfig
	OCR        OCRConfig
	Watch      WatchConfig
	Server     ServerConfig
	Categories CategoriesConfig
	Log        LogConfig
}

// DirsConfig holds the watched directory layout
type DirsConfig struct {
	Incoming  string
	Processed string
	Failed    string
	Output    string
}

// StoreConfig holds invoice store configuration
type StoreConfig struct {
	Driver      string
	JSONPath    string
	SQLitePath  string
	DSN         string
	MaxConns    int32
	MinConns    int32
	DialTimeout time.Duration
}

// OCRConfig holds text extraction configuration
type OCRConfig struct {
	Engine           string
	Tesseract        string
	TesseractLang    string
	TessdataDir      string
	Pdftotext        string
	PDFTextMode      string
	EnhanceImages    bool
	ArtifactCacheDir string
	AzureEndpoint    string
	AzureKey         string
	Timeout          time.Duration
}

// WatchConfig holds watcher configuration
type WatchConfig struct {
	Debounce    time.Duration
	Patterns    []string
	InitialScan bool
}

// ServerConfig holds server-related configuration; empty addresses disable a server
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
}

// LogConfig holds logging defaults; the --log-format flag overrides Format
type LogConfig struct {
	Format string
}

// CategoriesConfig points at an optional rules file overriding the built-in table
type CategoriesConfig struct {
	RulesPath string
}

// LoadConfig loads configuration from environment variables, after reading
// an optional .env file from the working directory.
func LoadConfig() *Config {
	// optional; real env vars still apply
	_ = godotenv.Load()

	output := getEnv("OUTPUT_DIR", "output")
	return &Config{
		Dirs: DirsConfig{
			Incoming:  getEnv("INCOMING_DIR", filepath.Join("invoices", "incoming")),
			Processed: getEnv("PROCESSED_DIR", filepath.Join("invoices", "processed")),
			Failed:    getEnv("FAILED_DIR", filepath.Join("invoices", "failed")),
			Output:    output,
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(getEnv("STORE_DRIVER", StoreJSON)),
			JSONPath:    getEnv("DB_PATH", filepath.Join(output, "invoices_db.json")),
			SQLitePath:  getEnv("SQLITE_PATH", filepath.Join(output, "invoices.db")),
			DSN:         getEnv("DB_URL", ""),
			MaxConns:    getEnvAsInt32("DB_MAX_CONNS", 5),
			MinConns:    getEnvAsInt32("DB_MIN_CONNS", 1),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		OCR: OCRConfig{
			Engine:           strings.ToLower(getEnv("OCR_ENGINE", OCREngineTesseract)),
			Tesseract:        getEnv("TESSERACT", "tesseract"),
			TesseractLang:    getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:      getEnv("TESSDATA_PREFIX", ""),
			Pdftotext:        getEnv("PDFTOTEXT", "pdftotext"),
			PDFTextMode:      strings.ToLower(getEnv("PDF_TEXT_MODE", "auto")),
			EnhanceImages:    getEnvAsBool("IMAGE_ENHANCE", false),
			ArtifactCacheDir: getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
			AzureEndpoint:    getEnv("AZURE_VISION_ENDPOINT", ""),
			AzureKey:         getEnv("AZURE_VISION_KEY", ""),
			Timeout:          getEnvAsDuration("OCR_TIMEOUT", 2*time.Minute),
		},
		Watch: WatchConfig{
			Debounce:    getEnvAsDuration("WATCH_DEBOUNCE", time.Second),
			Patterns:    getEnvAsList("WATCH_PATTERNS", nil),
			InitialScan: getEnvAsBool("WATCH_INITIAL_SCAN", true),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ""),
			GRPCAddr: getEnv("GRPC_ADDR", ""),
		},
		Categories: CategoriesConfig{
			RulesPath: getEnv("CATEGORY_RULES", ""),
		},
		Log: LogConfig{
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Dirs.Incoming == "" || c.Dirs.Processed == "" || c.Dirs.Failed == "" {
		return NewAppError("CONFIG_ERROR", "INCOMING_DIR, PROCESSED_DIR and FAILED_DIR are required", ErrInvalidInput)
	}
	switch c.Store.Driver {
	case StoreJSON:
		if c.Store.JSONPath == "" {
			return NewAppError("CONFIG_ERROR", "DB_PATH is required for the json store", ErrInvalidInput)
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return NewAppError("CONFIG_ERROR", "SQLITE_PATH is required for the sqlite store", ErrInvalidInput)
		}
	case StorePostgres:
		if c.Store.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for the postgres store", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "STORE_DRIVER must be one of json|sqlite|postgres", ErrInvalidInput)
	}
	switch c.OCR.Engine {
	case OCREngineTesseract:
	case OCREngineAzure:
		if c.OCR.AzureEndpoint == "" || c.OCR.AzureKey == "" {
			return NewAppError("CONFIG_ERROR", "AZURE_VISION_ENDPOINT and AZURE_VISION_KEY are required for the azure engine", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "OCR_ENGINE must be one of tesseract|azure", ErrInvalidInput)
	}
	switch c.OCR.PDFTextMode {
	case "auto", "pdftotext", "native":
	default:
		return NewAppError("CONFIG_ERROR", "PDF_TEXT_MODE must be one of auto|pdftotext|native", ErrInvalidInput)
	}
	return nil
}
