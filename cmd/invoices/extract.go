package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoices-tracker/internal/core"
	"github.com/joseph-ayodele/invoices-tracker/internal/core/invoice"
)

func newExtractCommand(opts *rootOptions) *cobra.Command {
	var textOnly bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the invoice assembled from a file without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			extractor := newTextExtractor(opts.cfg, opts.logger)

			if textOnly {
				start := time.Now()
				res, err := extractor.Extract(ctx, args[0])
				if err != nil {
					opts.logger.Error("text extraction failed", "path", args[0], "error", err)
					return err
				}
				opts.logger.Info("text extraction ok",
					"method", res.Method,
					"pages", res.Pages,
					"bytes", len(res.Text),
					"confidence", res.Confidence,
					"duration_ms", time.Since(start).Milliseconds(),
				)
				_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
				return err
			}

			categorizer, err := newCategorizer(opts.cfg)
			if err != nil {
				return err
			}
			proc := core.NewProcessor(opts.logger, extractor, invoice.NewAssembler(categorizer), nil)
			inv, err := proc.Preview(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(inv.Public())
		},
	}

	cmd.Flags().BoolVar(&textOnly, "text", false, "print the normalized raw text instead of the assembled invoice")
	return cmd
}
