package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"SignalOps/internal/di"
	"SignalOps/pkg/config"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	app, err := di.InitializeWorkerApp(cfg)
	if err != nil {
		log.Fatalf("worker initialization failed: %v", err)
	}
	defer app.Redis.Close()

	// Scrape endpoint; the worker has no other HTTP surface.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("metrics endpoint error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Worker.Start(ctx); err != nil {
		log.Printf("worker error: %v", err)
		os.Exit(1)
	}
}
