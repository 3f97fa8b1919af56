package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/pkarpov/verity/internal/cli"
)

func main() {
	// Local development convenience; missing .env is fine
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
