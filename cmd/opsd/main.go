package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"SignalOps/internal/di"
	"SignalOps/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app, err := di.InitializeOpsApp(cfg)
	if err != nil {
		log.Fatalf("opsd initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Sink.Start(ctx); err != nil {
		log.Printf("signal sink start failed: %v", err)
		os.Exit(1)
	}
	if err := app.Server.Start(); err != nil {
		log.Printf("server start failed: %v", err)
		os.Exit(1)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.Server.Stop(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	app.Stream.Close()
	app.Sink.Stop()
	if app.ClickHouse != nil {
		_ = app.ClickHouse.Close()
	}
	_ = app.Redis.Close()
}
