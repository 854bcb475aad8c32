// Package main is the entry point for the sessionhooks command.
package main

import (
	"os"

	"github.com/harun/sessionhooks/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
