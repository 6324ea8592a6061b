package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"obhistory/config"
	"obhistory/internal/api"
	"obhistory/internal/collector"
	"obhistory/internal/history"
	"obhistory/logger"
	"obhistory/pkg/indodax"
	"obhistory/pkg/storage/postgres"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	// viper config
	cfg := config.Load(*configPath)

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres snapshot store
	postgresClient, err := postgres.Initialize(cfg.Postgres, cfg.Log.Environment, true)
	if err != nil {
		log.Fatal("failed to initialize postgres", zap.Error(err))
	}
	defer postgresClient.Close()

	svc := history.NewService(postgresClient, cfg.History, log)
	upstream := indodax.NewRESTClient(cfg.Indodax.BaseURL, cfg.Indodax.Timeout)

	if cfg.Collector.Enabled {
		col := collector.New(cfg.Collector, svc, upstream, log)
		go col.Run(ctx)
	}

	server := api.NewServer(cfg.Server, svc, upstream, postgresClient.IsHealthy, log)
	if err := server.Run(ctx); err != nil {
		log.Fatal("http server failed", zap.Error(err))
	}
}
