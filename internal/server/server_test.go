package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/joseph-ayodele/invoices-tracker/internal/common"
	"github.com/joseph-ayodele/invoices-tracker/internal/entity"
)

const knownID = "4b0f4f43-7c52-4bd5-9d2b-1b0d8b0b7c11"

type memReader struct {
	invs []entity.Invoice
	err  error
}

func (m *memReader) List(context.Context) ([]entity.Invoice, error) {
	return m.invs, m.err
}

func (m *memReader) Get(_ context.Context, id string) (entity.Invoice, error) {
	if m.err != nil {
		return entity.Invoice{}, m.err
	}
	for _, inv := range m.invs {
		if inv.ID == id {
			return inv, nil
		}
	}
	return entity.Invoice{}, common.ErrNotFound
}

func newReader() *memReader {
	return &memReader{invs: []entity.Invoice{{
		ID:          knownID,
		InvoiceNo:   "36258",
		Vendor:      "SuperStore",
		Date:        "Mar 06 2012",
		TotalAmount: 1234.56,
		Items:       []entity.Item{{ID: "it-1", Name: "Laptop Stand", Price: 49.99, Category: "technology"}},
		ContentHash: "deadbeef",
	}}}
}

type stubExporter struct{}

func (stubExporter) ExportInvoicesXLSX(context.Context) ([]byte, error) { return []byte("PK"), nil }

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHTTP_ListInvoicesHidesHash(t *testing.T) {
	h := NewHTTPHandler(newReader(), nil, nil, nil)
	rec := doGet(t, h, "/invoices")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "_hash")
	assert.NotContains(t, rec.Body.String(), "deadbeef")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body struct {
		Invoices []entity.PublicInvoice `json:"invoices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Invoices, 1)
	assert.Equal(t, "SuperStore", body.Invoices[0].Vendor)
	assert.Equal(t, 1234.56, body.Invoices[0].TotalAmount)
}

func TestHTTP_ListEmptyIsArray(t *testing.T) {
	h := NewHTTPHandler(&memReader{}, nil, nil, nil)
	rec := doGet(t, h, "/invoices")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"invoices":[]}`, rec.Body.String())
}

func TestHTTP_GetInvoice(t *testing.T) {
	h := NewHTTPHandler(newReader(), nil, nil, nil)

	tests := []struct {
		name string
		path string
		code int
	}{
		{name: "found", path: "/invoices/" + knownID, code: http.StatusOK},
		{name: "missing", path: "/invoices/00000000-0000-0000-0000-000000000001", code: http.StatusNotFound},
		{name: "not a uuid", path: "/invoices/abc", code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(t, h, tt.path)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestHTTP_StoreError(t *testing.T) {
	h := NewHTTPHandler(&memReader{err: errors.New("disk gone")}, nil, nil, nil)
	assert.Equal(t, http.StatusInternalServerError, doGet(t, h, "/invoices").Code)
	assert.Equal(t, http.StatusInternalServerError, doGet(t, h, "/invoices/"+knownID).Code)
}

func TestHTTP_CategoriesHealthExport(t *testing.T) {
	h := NewHTTPHandler(newReader(), stubExporter{}, []string{"technology", "uncategorized"}, nil)

	rec := doGet(t, h, "/categories")
	assert.JSONEq(t, `{"categories":["technology","uncategorized"]}`, rec.Body.String())

	rec = doGet(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doGet(t, h, "/export.xlsx")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "PK", rec.Body.String())

	noExport := NewHTTPHandler(newReader(), nil, nil, nil)
	assert.Equal(t, http.StatusNotFound, doGet(t, noExport, "/export.xlsx").Code)
}

type unhealthyReader struct{ memReader }

func (unhealthyReader) HealthCheck(context.Context, time.Duration) error {
	return errors.New("db down")
}

func TestHTTP_HealthReflectsStore(t *testing.T) {
	h := NewHTTPHandler(&unhealthyReader{}, nil, nil, nil)
	rec := doGet(t, h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func dialBuf(t *testing.T, reader InvoiceReader) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s, _ := NewGRPCServer(reader, nil)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGRPC_ListAndGet(t *testing.T) {
	conn := dialBuf(t, newReader())
	client := NewInvoiceClient(conn)
	ctx := context.Background()

	list, err := client.ListInvoices(ctx)
	require.NoError(t, err)
	invs := list.GetFields()["invoices"].GetListValue().GetValues()
	require.Len(t, invs, 1)
	first := invs[0].GetStructValue().GetFields()
	assert.Equal(t, "36258", first["invoice_no"].GetStringValue())
	assert.Equal(t, 1234.56, first["total_amount"].GetNumberValue())
	assert.NotContains(t, first, "_hash")

	got, err := client.GetInvoice(ctx, knownID)
	require.NoError(t, err)
	assert.Equal(t, "SuperStore", got.GetFields()["vendor"].GetStringValue())
	assert.Len(t, got.GetFields()["items"].GetListValue().GetValues(), 1)
}

func TestGRPC_GetErrors(t *testing.T) {
	conn := dialBuf(t, newReader())
	client := NewInvoiceClient(conn)

	_, err := client.GetInvoice(context.Background(), "00000000-0000-0000-0000-000000000001")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.GetInvoice(context.Background(), "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_Health(t *testing.T) {
	conn := dialBuf(t, newReader())
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: invoiceServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
