// Package main is the entry point for the cmdcorpus CLI.
package main

import (
	"os"

	"github.com/runger/cmdcorpus/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
