package main

import (
	"os"

	"github.com/flint-rules/flint/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
