package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoices-tracker/internal/common"
	"github.com/joseph-ayodele/invoices-tracker/internal/entity"
)

// Exporter renders stored invoices as an XLSX workbook.
type Exporter interface {
	ExportInvoicesXLSX(ctx context.Context) ([]byte, error)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type httpHandlers struct {
	reader   InvoiceReader
	exporter Exporter
	labels   []string
	logger   *slog.Logger
}

// NewHTTPHandler builds the read-only REST API. exporter may be nil, in which
// case /export.xlsx is not routed.
func NewHTTPHandler(reader InvoiceReader, exporter Exporter, labels []string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	h := &httpHandlers{reader: reader, exporter: exporter, labels: labels, logger: logger}
	r.GET("/healthz", h.health)
	r.GET("/invoices", h.listInvoices)
	r.GET("/invoices/:id", h.getInvoice)
	r.GET("/categories", h.categories)
	if exporter != nil {
		r.GET("/export.xlsx", h.export)
	}
	return r
}

// healthChecker is implemented by stores that can verify their backend.
type healthChecker interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

func (h *httpHandlers) health(c *gin.Context) {
	if hc, ok := h.reader.(healthChecker); ok {
		if err := hc.HealthCheck(c.Request.Context(), 2*time.Second); err != nil {
			h.logger.Warn("store health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandlers) listInvoices(c *gin.Context) {
	invs, err := h.reader.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list invoices", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list invoices failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": entity.PublicInvoices(invs)})
}

func (h *httpHandlers) getInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := common.ValidateInvoiceID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inv, err := h.reader.Get(c.Request.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to get invoice", "invoice_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get invoice failed"})
		return
	}
	c.JSON(http.StatusOK, inv.Public())
}

func (h *httpHandlers) categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.labels})
}

func (h *httpHandlers) export(c *gin.Context) {
	data, err := h.exporter.ExportInvoicesXLSX(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to export invoices", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := uuid.NewString()
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), reqID))
		c.Header("X-Request-ID", reqID)
		c.Next()
		logger.Info("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"request_id", reqID,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

// ServeHTTP runs handler on addr until ctx is done.
func ServeHTTP(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("http.listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		logger.Info("http.stopped")
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
