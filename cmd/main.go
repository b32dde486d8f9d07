package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/trackrip/internal/shared"
	"github.com/joho/godotenv"
)

func main() {
	logger := shared.NewLogger(os.Stderr)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.root().Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			stop()
			os.Exit(1)
		}
		logger.Fatal("application error", "err", err)
	}
}
