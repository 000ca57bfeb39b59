// Package main is the entry point for the aquascan CLI.
package main

import (
	"os"

	"github.com/aquascan/backend/cmd/aquascan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
