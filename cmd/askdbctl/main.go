package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/askdb/askdb/internal/cli/askdbctl"
	"github.com/askdb/askdb/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "askdbctl: %v\n", err)
		os.Exit(2)
	}
	options, err := askdbctl.OptionsFromEnv(os.LookupEnv)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "askdbctl: %v\n", err)
		os.Exit(2)
	}
	options.Stdout = os.Stdout
	options.Stderr = os.Stderr

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := askdbctl.Run(ctx, os.Args[1:], options)
	stop()
	os.Exit(code)
}
