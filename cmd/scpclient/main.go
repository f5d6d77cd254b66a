package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iurnickita/scpclient/internal/app"
	"github.com/iurnickita/scpclient/internal/cli"
	"github.com/iurnickita/scpclient/internal/config"
	"github.com/iurnickita/scpclient/internal/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, args, err := config.GetConfig(os.Args[1:])
	if err != nil {
		return err
	}

	zaplog, err := logger.NewZapLog(cfg.Logger)
	if err != nil {
		return err
	}
	defer zaplog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, cli.Notices(os.Stderr), zaplog)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Start(ctx); err != nil {
		return err
	}

	return cli.New(application, os.Stdin, os.Stdout, zaplog).Run(ctx, args)
}
