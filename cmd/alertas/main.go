package main

import (
	"os"

	"github.com/alertas-dev/alertas/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
