package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/llehouerou/vplay/internal/app"
	"github.com/llehouerou/vplay/internal/config"
	"github.com/llehouerou/vplay/internal/errmsg"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpConfigLoad, err))
		os.Exit(1)
	}

	// Command line beats config
	source := cfg.Source
	if len(os.Args) > 1 {
		source = os.Args[1]
	}
	if source == "" {
		fmt.Fprintln(os.Stderr, "usage: vplay <file>")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, source); err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpPlaybackPlay, err))
		stop()
		os.Exit(1)
	}
}
