package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoices-tracker/internal/common"
)

type rootOptions struct {
	Verbose    bool
	LogFormat  string // "text" | "json"
	Categories string

	cfg    *common.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "invoices",
		Short:         "Invoice watcher and extractor",
		Long:          "Watches an incoming directory for invoice PDFs and images, extracts invoice fields and categorized line items, and stores them deduplicated by content hash.",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is read here, so LOG_FORMAT can only be resolved afterwards
			opts.cfg = common.LoadConfig()
			if opts.LogFormat == "" {
				opts.LogFormat = opts.cfg.Log.Format
			}
			if opts.LogFormat != "text" && opts.LogFormat != "json" {
				return fmt.Errorf("invalid log format %q: must be text or json", opts.LogFormat)
			}
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.Verbose, opts.LogFormat)
			slog.SetDefault(opts.logger)

			if opts.Categories != "" {
				opts.cfg.Categories.RulesPath = opts.Categories
			}
			if err := opts.cfg.Validate(); err != nil {
				opts.logger.Error("invalid configuration", "error", err)
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format: text or json (default LOG_FORMAT, then text)")
	cmd.PersistentFlags().StringVar(&opts.Categories, "categories", "", "category rules file (overrides CATEGORY_RULES)")

	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newProcessCommand(opts))
	cmd.AddCommand(newExtractCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newCategorizeCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))

	return cmd
}

// newLogger writes to w; text output drops the timestamp to keep terminal
// lines short.
func newLogger(w io.Writer, verbose bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))
}
