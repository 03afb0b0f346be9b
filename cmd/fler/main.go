// Package main is the entry point for the fler command.
package main

import (
	"os"

	"github.com/donaldgifford/fler-tools/cmd/fler/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
