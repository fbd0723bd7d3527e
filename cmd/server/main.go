// Gungnir — a single-instrument exchange server.
//
//	main.go              — entry point: loads config, wires engine and gateway, waits for SIGINT/SIGTERM
//	engine/orderbook.go  — price-time-priority matching core (GTC, IOC, FOK, market)
//	engine/mutate.go     — cancel and modify of resting orders
//	net/server.go        — binary TCP order-entry gateway feeding the engine from one goroutine
//	config/config.go     — YAML + env configuration
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gungnir/internal/config"
	"gungnir/internal/engine"
	"gungnir/internal/net"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("GUNGNIR_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfgPath).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	// Setup the TCP server and the matching engine.
	eng := engine.New(nil)
	srv := net.New(cfg.Server.Address, cfg.Server.Port, eng)
	srv.SetWorkers(cfg.Server.Workers)
	srv.SetConnTimeout(cfg.Server.ConnTimeout)
	eng.SetReporter(srv)

	go srv.Run(ctx)
	// Block on running the server.
	<-ctx.Done()
}

func setupLogger(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
