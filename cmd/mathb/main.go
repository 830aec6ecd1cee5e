// Package main is the entry point for the mathb CLI tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/1rns/obsidian-math-booster/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
