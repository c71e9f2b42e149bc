package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"way_router/config"
	"way_router/pkg/api"
	"way_router/pkg/osm"
	"way_router/pkg/routing"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	osmPath := flag.String("osm", "", "Path to OSM XML extract (overrides config)")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	if *osmPath != "" {
		cfg.OSMPath = *osmPath
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}
	if cfg.OSMPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: server --osm <extract.osm> [--port 8080] [--config config.yaml]")
		os.Exit(1)
	}

	start := time.Now()

	f, err := os.Open(cfg.OSMPath)
	if err != nil {
		logger.Error("open extract", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("compiling network", slog.String("path", cfg.OSMPath))
	network, err := osm.Compile(context.Background(), f, osm.Options{
		LargestComponent: cfg.Routing.LargestComponent,
		Logger:           logger,
	})
	f.Close()
	if err != nil {
		logger.Error("compile", slog.Any("error", err))
		os.Exit(1)
	}

	engine, err := routing.NewEngine(network.Graph, network.Attrs, network.Geom,
		network.Lats, network.Lons, routing.EngineOptions{
			CellSize:         cfg.Routing.CellSizeMeters,
			MaxRing:          cfg.Routing.MaxRing,
			VmaxMetersPerSec: cfg.Routing.VmaxKmh / 3.6,
			Instructions: routing.InstructionOptions{
				TurnAngleDeg:     cfg.Routing.Instructions.TurnAngleDeg,
				MinAdvanceMeters: cfg.Routing.Instructions.MinAdvanceMeters,
				EmitSharpBends:   cfg.Routing.Instructions.EmitSharpBends,
			},
		})
	if err != nil {
		logger.Error("build engine", slog.Any("error", err))
		os.Exit(1)
	}

	var totalKm float64
	for i := 0; i < network.Graph.E(); i++ {
		totalKm += network.Attrs.Distance(i) / 1000
	}
	logger.Info("network ready",
		slog.Int("vertices", network.Graph.V()),
		slog.Int("edges", network.Graph.E()),
		slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)))

	stats := api.StatsResponse{
		NumVertices: network.Graph.V(),
		NumEdges:    network.Graph.E(),
		TotalKm:     totalKm,
	}

	serverCfg := api.ServerConfig{
		Addr:      fmt.Sprintf(":%d", cfg.HTTP.Port),
		StaticDir: cfg.HTTP.StaticDir,
	}
	handlers := api.NewHandlers(engine, stats)
	srv := api.NewServer(serverCfg, handlers, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := api.Serve(ctx, srv, serverCfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
