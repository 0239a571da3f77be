package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/handiism/modfetch/internal/cli"
)

func main() {
	// Handle interrupts
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
