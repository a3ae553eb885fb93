package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCheckCommand(opts *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the configured store and category rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			w := cmd.OutOrStdout()
			if err := a.store.HealthCheck(ctx, timeout); err != nil {
				fmt.Fprintf(w, "store (%s): FAIL (%v)\n", opts.cfg.Store.Driver, err)
				return err
			}
			fmt.Fprintf(w, "store (%s): OK\n", opts.cfg.Store.Driver)

			invs, err := a.store.List(ctx)
			if err != nil {
				return fmt.Errorf("list invoices: %w", err)
			}
			fmt.Fprintf(w, "invoices: %d\n", len(invs))

			labels := a.categorizer.Labels()
			fmt.Fprintf(w, "categories: %d\n", len(labels))
			for i, l := range labels {
				fmt.Fprintf(w, "- [%d] %s\n", i+1, l)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "health check timeout")
	return cmd
}
