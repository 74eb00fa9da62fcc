package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/utxolens/soprx/app/rebuild"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	defer cancel()

	app := rebuild.Initialize(ctx, os.Args[1:])

	if err := app.Run(ctx); err != nil {
		app.Logger.Fatal("Rebuild failed", zap.Error(err))
	}
	app.Logger.Info("Rebuild complete")
}
