package main

import (
	"os"

	"github.com/triadlabs/triad/cmd/triad/commands"
)

// main is the entry point for the Triad CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
