package main

import (
	"os"

	"github.com/calloway-legal/caseflow/cmd/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
