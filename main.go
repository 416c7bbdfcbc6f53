package main

import (
	"os"

	"dutree/internal/delivery/cli"
	"dutree/internal/infrastructure/config"
)

func main() {
	// Load configuration; flags parsed by the CLI override it
	cfg := config.Load()

	os.Exit(cli.Run(os.Args[1:], cfg, os.Stdin, os.Stdout, os.Stderr))
}
