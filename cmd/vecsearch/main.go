package main

import (
	"os"

	"github.com/deidaraiorek/vecsearch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
