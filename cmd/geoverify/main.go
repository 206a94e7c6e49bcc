// Package main is the entry point for the geoverify CLI.
package main

import (
	"os"

	"github.com/geostack-labs/geoverify/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
