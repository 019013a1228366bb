// Package main provides the entry point for the docdesk CLI.
package main

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/docdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
