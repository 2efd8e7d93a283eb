// Package main provides the entry point for the techo CLI.
package main

import (
	"os"

	"github.com/mkoseki/techo/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
