package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	// API keys for remote embedders may live in a local .env file.
	_ = godotenv.Load()

	a := newApp()
	rootCmd := NewRootCmd(version, a)
	err := fang.Execute(ctx, rootCmd)
	_ = a.Close()
	if err != nil {
		os.Exit(1)
	}
}
