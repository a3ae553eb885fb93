package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/invoices-tracker/internal/common"
	"github.com/joseph-ayodele/invoices-tracker/internal/entity"
)

// InvoiceReader is the read side of an invoice store.
type InvoiceReader interface {
	List(ctx context.Context) ([]entity.Invoice, error)
	Get(ctx context.Context, id string) (entity.Invoice, error)
}

const (
	invoiceServiceName = "invoices.v1.InvoiceService"
	methodListInvoices = "/" + invoiceServiceName + "/ListInvoices"
	methodGetInvoice   = "/" + invoiceServiceName + "/GetInvoice"
)

// InvoiceServiceServer is the gRPC surface over stored invoices. Messages are
// well-known types so no generated code is needed.
type InvoiceServiceServer interface {
	ListInvoices(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetInvoice(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

var InvoiceServiceDesc = grpc.ServiceDesc{
	ServiceName: invoiceServiceName,
	HandlerType: (*InvoiceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListInvoices", Handler: listInvoicesHandler},
		{MethodName: "GetInvoice", Handler: getInvoiceHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "invoices/v1/invoices.proto",
}

func RegisterInvoiceServiceServer(s grpc.ServiceRegistrar, srv InvoiceServiceServer) {
	s.RegisterService(&InvoiceServiceDesc, srv)
}

func listInvoicesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InvoiceServiceServer).ListInvoices(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListInvoices}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InvoiceServiceServer).ListInvoices(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getInvoiceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InvoiceServiceServer).GetInvoice(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetInvoice}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InvoiceServiceServer).GetInvoice(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// InvoiceClient calls InvoiceService over an existing connection.
type InvoiceClient struct {
	cc grpc.ClientConnInterface
}

func NewInvoiceClient(cc grpc.ClientConnInterface) *InvoiceClient {
	return &InvoiceClient{cc: cc}
}

func (c *InvoiceClient) ListInvoices(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodListInvoices, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InvoiceClient) GetInvoice(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetInvoice, wrapperspb.String(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// InvoiceService implements InvoiceServiceServer over an InvoiceReader.
type InvoiceService struct {
	reader InvoiceReader
	logger *slog.Logger
}

func NewInvoiceService(reader InvoiceReader, logger *slog.Logger) *InvoiceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceService{reader: reader, logger: logger}
}

func (s *InvoiceService) ListInvoices(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	invs, err := s.reader.List(ctx)
	if err != nil {
		s.logger.Error("failed to list invoices", "error", err)
		return nil, common.InternalErrorf("list invoices: %v", err)
	}
	out, err := toStruct(listResponse{Invoices: entity.PublicInvoices(invs)})
	if err != nil {
		s.logger.Error("failed to encode invoices", "error", err)
		return nil, common.InternalError("encode invoices")
	}
	s.logger.Debug("invoices listed", "count", len(invs))
	return out, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id := strings.TrimSpace(req.GetValue())
	v := common.NewValidator().Field("invoice_id", id, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Warn("invalid invoice id", "invoice_id", id)
		return nil, err
	}

	inv, err := s.reader.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error("failed to get invoice", "invoice_id", id, "error", err)
		}
		return nil, common.StatusFromError(err)
	}
	out, err := toStruct(inv.Public())
	if err != nil {
		return nil, common.InternalError("encode invoice")
	}
	return out, nil
}

type listResponse struct {
	Invoices []entity.PublicInvoice `json:"invoices"`
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return out, nil
}

// loggingInterceptor tags each call with a request id and logs its outcome.
func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqID := uuid.NewString()
		ctx = common.WithRequestID(ctx, reqID)
		resp, err := handler(ctx, req)
		logger.Info("grpc.request",
			"method", info.FullMethod,
			"request_id", reqID,
			"code", status.Code(err).String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

