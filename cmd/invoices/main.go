// Command invoices watches a directory for invoice files, extracts their
// fields and line items, and stores them with content-hash dedup.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
