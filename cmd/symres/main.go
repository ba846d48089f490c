// Package main provides the CLI entrypoint for symres.
//
// symres resolves symbol names against loadable modules:
//   - by strong name (a Go import path) or by file path
//   - in the normal mode (module code runs) or inspection-only mode
//   - filtered by a symbol-kind predicate
//
// Names resolve one-off from flags, or in batches from a YAML manifest.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

func main() {
	opts := &options{}
	if _, err := flags.Parse(opts); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}

		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "symres:", err)
		os.Exit(1)
	}
}
