// Package main provides the entry point for the searchhub CLI.
package main

import (
	"os"

	"github.com/seiforesti/searchhub/cmd/searchhub/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
