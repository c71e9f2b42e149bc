package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Config is the runtime configuration of the routing service. Every field
// has a sensible default; a YAML file and WAY_ROUTER_* environment
// variables override it.
type Config struct {
	// OSMPath points at the OSM XML extract compiled at startup.
	OSMPath string `json:"osmPath" yaml:"osmPath"`

	HTTP struct {
		Port      int    `json:"port" yaml:"port"`
		StaticDir string `json:"staticDir" yaml:"staticDir"`
	} `json:"http" yaml:"http"`

	Routing struct {
		// CellSizeMeters is the snapper grid cell size; ~1 km suits
		// regional extracts.
		CellSizeMeters float64 `json:"cellSizeMeters" yaml:"cellSizeMeters"`
		MaxRing        int     `json:"maxRing" yaml:"maxRing"`
		// VmaxKmh bounds traversal speed for the TIME A* heuristic.
		VmaxKmh float64 `json:"vmaxKmh" yaml:"vmaxKmh"`
		// LargestComponent drops unreachable islands at compile time.
		LargestComponent bool `json:"largestComponent" yaml:"largestComponent"`

		Instructions struct {
			TurnAngleDeg     float64 `json:"turnAngleDeg" yaml:"turnAngleDeg"`
			MinAdvanceMeters float64 `json:"minAdvanceMeters" yaml:"minAdvanceMeters"`
			EmitSharpBends   bool    `json:"emitSharpBends" yaml:"emitSharpBends"`
		} `json:"instructions" yaml:"instructions"`
	} `json:"routing" yaml:"routing"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.HTTP.Port = 8080
	cfg.Routing.CellSizeMeters = 1000
	cfg.Routing.MaxRing = 32
	cfg.Routing.VmaxKmh = 110
	cfg.Routing.Instructions.TurnAngleDeg = 50
	cfg.Routing.Instructions.MinAdvanceMeters = 120
	cfg.Routing.Instructions.EmitSharpBends = true
	return cfg
}

// Load builds the configuration from defaults, an optional YAML file, and
// WAY_ROUTER_* environment variables (WAY_ROUTER_HTTP_PORT → http.port).
func Load(path string) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "config file %s", path)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: "WAY_ROUTER_",
		TransformFunc: func(key, v string) (string, any) {
			key = strings.TrimPrefix(key, "WAY_ROUTER_")
			key = strings.ReplaceAll(strings.ToLower(key), "_", ".")
			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	return cfg, nil
}
