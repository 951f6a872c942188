// Package main is the dremiometa entry point.
package main

import (
	"os"

	"github.com/metalake-labs/dremiometa/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
