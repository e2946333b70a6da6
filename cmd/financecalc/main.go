package main

import (
	"fmt"
	"os"

	"financecalc/internal/cli"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "1.0.0"

func main() {
	app := cli.NewApp(Version)
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
