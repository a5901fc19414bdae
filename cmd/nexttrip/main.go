// Package main is the entry point for the nexttrip command-line tool.
package main

import (
	"fmt"
	"os"

	"github.com/pkordes/nexttrip/backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
