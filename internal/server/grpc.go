package server

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewGRPCServer returns a server exposing InvoiceService and the standard
// health service, already marked SERVING, plus reflection for grpcurl.
func NewGRPCServer(reader InvoiceReader, logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))
	RegisterInvoiceServiceServer(s, NewInvoiceService(reader, logger))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(invoiceServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(s)
	return s, hs
}

// ServeGRPC listens on addr until ctx is done, then stops gracefully.
func ServeGRPC(ctx context.Context, addr string, s *grpc.Server, hs *health.Server, logger *slog.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logger.Info("grpc.listening", "addr", lis.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(lis) }()

	select {
	case <-ctx.Done():
		hs.Shutdown()
		s.GracefulStop()
		<-errCh
		logger.Info("grpc.stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}
