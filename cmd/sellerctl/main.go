package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/jrsteele09/go-seller-client/gateway"
	"github.com/jrsteele09/go-seller-client/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", message(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()
	return cli.ExecuteContext(ctx)
}

// message prefers the text the backend or the gateway chose for the user.
func message(err error) string {
	if ce, ok := gateway.AsClassified(err); ok && ce.Message != "" {
		return ce.Message
	}
	return err.Error()
}
