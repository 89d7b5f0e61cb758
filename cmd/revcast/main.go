package main

import (
	"os"

	"github.com/wonny/revcast/cmd/revcast/commands"
)

// main is the entry point for the revcast CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/revcast [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
