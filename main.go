package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"servicedesk/internal/cli"
	"servicedesk/internal/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("❌ Invalid configuration: ", err)
	}

	// Progress logs belong to the daemon; other commands print their
	// results on stdout and stay quiet unless DEBUG_MODE is on.
	if !cfg.DebugMode && !slices.Contains(os.Args[1:], "daemon") {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := &cli.App{Config: cfg, Out: os.Stdout, Err: os.Stderr}
	code := app.Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
