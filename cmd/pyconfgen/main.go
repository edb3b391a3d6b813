// Package main provides the CLI for the pyconfgen header generator.
package main

import (
	"os"

	"github.com/leapstack-labs/pyconfgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
