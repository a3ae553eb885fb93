package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoices-tracker/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var httpAddr, grpcAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored invoices over HTTP and gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("http") {
				opts.cfg.Server.HTTPAddr = httpAddr
			}
			if cmd.Flags().Changed("grpc") {
				opts.cfg.Server.GRPCAddr = grpcAddr
			}
			if opts.cfg.Server.HTTPAddr == "" && opts.cfg.Server.GRPCAddr == "" {
				opts.cfg.Server.HTTPAddr = ":8080"
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			g, gctx := errgroup.WithContext(ctx)
			a.startServers(gctx, g)
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "HTTP listen address (overrides HTTP_ADDR)")
	cmd.Flags().StringVar(&grpcAddr, "grpc", "", "gRPC listen address (overrides GRPC_ADDR)")
	return cmd
}

// startServers adds the configured HTTP and gRPC servers to g.
func (a *app) startServers(ctx context.Context, g *errgroup.Group) {
	if addr := a.cfg.Server.HTTPAddr; addr != "" {
		h := server.NewHTTPHandler(a.store, a.exporter, a.categorizer.Labels(), a.logger)
		g.Go(func() error {
			if err := server.ServeHTTP(ctx, addr, h, a.logger); err != nil {
				return fmt.Errorf("http: %w", err)
			}
			return nil
		})
	}
	if addr := a.cfg.Server.GRPCAddr; addr != "" {
		s, hs := server.NewGRPCServer(a.store, a.logger)
		g.Go(func() error {
			if err := server.ServeGRPC(ctx, addr, s, hs, a.logger); err != nil {
				return fmt.Errorf("grpc: %w", err)
			}
			return nil
		})
	}
}
