package main

import (
	"os"

	"github.com/quote-feed/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
