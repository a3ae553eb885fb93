package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoices-tracker/constants"
	"github.com/joseph-ayodele/invoices-tracker/internal/ingest"
)

func newProcessCommand(opts *rootOptions) *cobra.Command {
	var move bool

	cmd := &cobra.Command{
		Use:   "process <file-or-dir>...",
		Short: "Process files once and store the resulting invoices",
		Long: "Processes each file, or each supported file under a directory, and stores new invoices. " +
			"Files stay in place unless --move is given.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := layoutFrom(opts.cfg).Ensure(); err != nil {
				return err
			}
			a, err := buildApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			var results []ingest.FileResult
			for _, p := range args {
				st, err := os.Stat(p)
				if err != nil {
					results = append(results, ingest.FileResult{Path: p, Status: constants.StatusFailed, Err: err})
					continue
				}
				if st.IsDir() {
					rs, stats, err := a.ingest.ProcessDirectory(ctx, p, nil, true, move)
					results = append(results, rs...)
					a.logger.Info("process.directory.done",
						"root", p,
						"matched", stats.Matched,
						"succeeded", stats.Succeeded,
						"deduplicated", stats.Deduplicated,
						"failed", stats.Failed,
					)
					if err != nil {
						return err
					}
					continue
				}
				if move {
					results = append(results, a.ingest.HandleFile(ctx, p))
				} else {
					results = append(results, a.ingest.Process(ctx, p))
				}
			}

			return report(cmd, results)
		},
	}

	cmd.Flags().BoolVar(&move, "move", false, "move files to the processed or failed directory afterwards")
	return cmd
}

func report(cmd *cobra.Command, results []ingest.FileResult) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	failed := 0
	for _, r := range results {
		detail := r.InvoiceID
		if r.Err != nil {
			failed++
			detail = r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Status, r.Path, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(results))
	}
	return nil
}
