package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/objsync/internal/client/cli"
	"github.com/dmitrijs2005/objsync/internal/client/config"
	"github.com/dmitrijs2005/objsync/internal/logging"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(cfg, logging.New(os.Stderr, cfg.LogLevel))
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
