// Package main is the entry point for the outreach CLI.
package main

import (
	"os"

	"github.com/jmylchreest/outreach/cmd/outreach/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
