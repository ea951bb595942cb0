package main

import (
	"os"

	"github.com/ahertel/flowatlas/cmd/flowatlas/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
