// Package main provides the entry point for the housekeep CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"

	"github.com/jamesainslie/housekeep/pkg/housekeep/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := fang.Execute(ctx, rootCmd)
	stop()
	_ = logging.Close()

	if err != nil {
		os.Exit(1)
	}
}
