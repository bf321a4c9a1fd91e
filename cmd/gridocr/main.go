package main

import (
	"os"

	"github.com/tsawler/gridocr/cmd/gridocr/commands"
	"github.com/tsawler/gridocr/cmd/gridocr/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		ui.Error(os.Stderr, "%v", err)
		os.Exit(1)
	}
}
