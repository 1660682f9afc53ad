// Command taskrank scores and ranks task batches through a scoring service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nibzard/taskrank/cmd"
)

func main() {
	// SIGINT and SIGTERM cancel in-flight requests and stop tail -f and the TUI
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Run(ctx, os.Args[1:])
	if err == nil {
		return
	}
	if ctx.Err() != nil {
		fmt.Fprintf(os.Stderr, "\nInterrupted\n")
		stop()
		os.Exit(130)
	}
	cmd.ReportError(os.Stderr, err)
	stop()
	os.Exit(1)
}
