package main

import (
	"os"

	"github.com/makerclub/printq/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
