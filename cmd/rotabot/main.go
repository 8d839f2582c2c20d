package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rotabot/internal/app"
)

func main() {
	var (
		cfgPath   string
		once      bool
		dryRun    bool
		forceWeek string
	)
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.BoolVar(&once, "once", false, "resolve and deliver a single reminder, then exit")
	flag.BoolVar(&dryRun, "dry-run", false, "log the reminder instead of sending it")
	flag.StringVar(&forceWeek, "week", "", "force a week (e.g. 2025-W33, or a bare number for this year)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(app.Options{
		ConfigPath: cfgPath,
		DryRun:     dryRun,
		ForceWeek:  forceWeek,
	})
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	if once || forceWeek != "" {
		if err := a.RunOnce(ctx); err != nil {
			fmt.Println("fatal:", err)
			os.Exit(1)
		}
		return
	}

	if err := a.Run(ctx); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}
