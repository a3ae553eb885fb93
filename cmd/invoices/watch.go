package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoices-tracker/internal/ingest"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var noScan bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process files already in the incoming directory, then watch it for new ones",
		Long: "Creates the directory layout, processes existing files, then handles new files one at a time. " +
			"Processed and duplicate files move to the processed directory, failures to the failed directory. " +
			"HTTP_ADDR and GRPC_ADDR, when set, also start the read API.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			layout := layoutFrom(opts.cfg)
			if err := layout.Ensure(); err != nil {
				return err
			}

			a, err := buildApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			w := opts.cfg.Watch
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return a.ingest.Run(gctx, ingest.WatchConfig{
					Patterns:    w.Patterns,
					InitialScan: w.InitialScan && !noScan,
					Debounce:    w.Debounce,
					Logger:      a.logger,
				})
			})
			a.startServers(gctx, g)
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&noScan, "no-scan", false, "skip files already present in the incoming directory")
	return cmd
}
