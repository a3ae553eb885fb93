package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCategorizeCommand(opts *rootOptions) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "categorize [item name]...",
		Short: "Show the category assigned to each item name",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCategorizer(opts.cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if list {
				fmt.Fprintln(w, strings.Join(c.Labels(), "\n"))
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("at least one item name is required")
			}
			for _, name := range args {
				fmt.Fprintf(w, "%s\t%s\n", name, c.Categorize(name))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "print the category labels in match order")
	return cmd
}
