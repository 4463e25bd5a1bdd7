package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/oceanecho/oceanecho/cmd"
	"github.com/oceanecho/oceanecho/internal/buildinfo"
	"github.com/oceanecho/oceanecho/internal/conf"
)

// Set through -ldflags "-X main.version=... -X main.buildDate=...".
var (
	version   string
	buildDate string
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return 1
	}

	rootCmd, err := cmd.RootCommand(settings, buildinfo.New(version, buildDate))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up command line: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
