package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	undo, _ := maxprocs.Set(maxprocs.Min(2))
	defer undo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout, os.Stderr).Execute(ctx); err != nil {
		stop()
		undo()
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
