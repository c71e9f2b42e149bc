package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"way_router/pkg/graph"
	"way_router/pkg/osm"
)

func main() {
	input := flag.String("osm", "", "Path to OSM XML extract")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: inspect --osm <extract.osm>")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	f, err := os.Open(*input)
	if err != nil {
		logger.Error("open extract", slog.Any("error", err))
		os.Exit(1)
	}
	defer f.Close()

	network, err := osm.Compile(context.Background(), f, osm.Options{Logger: logger})
	if err != nil {
		logger.Error("compile", slog.Any("error", err))
		os.Exit(1)
	}

	var totalKm float64
	named := 0
	for i := 0; i < network.Graph.E(); i++ {
		totalKm += network.Attrs.Distance(i) / 1000
		if _, ok := network.Attrs.StreetName(i); ok {
			named++
		}
	}

	component := graph.LargestComponent(network.Graph)
	share := 0.0
	if network.Graph.V() > 0 {
		share = float64(len(component)) / float64(network.Graph.V()) * 100
	}

	fmt.Printf("vertices:            %d\n", network.Graph.V())
	fmt.Printf("edges:               %d\n", network.Graph.E())
	fmt.Printf("total length:        %.1f km\n", totalKm)
	fmt.Printf("named edges:         %d (%.1f%%)\n", named, pct(named, network.Graph.E()))
	fmt.Printf("largest component:   %d vertices (%.1f%%)\n", len(component), share)
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
