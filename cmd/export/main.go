package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"way_router/pkg/osm"
)

// export compiles an extract and dumps the routable network as a GeoJSON
// FeatureCollection, one LineString per directed edge, for map debugging.
func main() {
	input := flag.String("osm", "", "Path to OSM XML extract")
	output := flag.String("out", "network.geojson", "Output GeoJSON path")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: export --osm <extract.osm> [--out network.geojson]")
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

	fc := geojson.NewFeatureCollection()
	for i := 0; i < network.Graph.E(); i++ {
		xs, ys, err := network.Geom.Points(i)
		if err != nil {
			logger.Error("edge geometry", slog.Int("edge", i), slog.Any("error", err))
			os.Exit(1)
		}
		line := make(orb.LineString, len(xs))
		for j := range xs {
			line[j] = orb.Point{xs[j], ys[j]}
		}
		feature := geojson.NewFeature(line)
		feature.Properties["edge_id"] = i
		feature.Properties["distance_meters"] = network.Attrs.Distance(i)
		if name, ok := network.Attrs.StreetName(i); ok {
			feature.Properties["name"] = name
		}
		fc.Append(feature)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		logger.Error("marshal", slog.Any("error", err))
		os.Exit(1)
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		logger.Error("write output", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("exported",
		slog.String("path", *output),
		slog.Int("edges", network.Graph.E()))
}
