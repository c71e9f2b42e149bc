package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"way_router/pkg/routing"
)

// Router answers lat/lon route queries. *routing.Engine satisfies it.
type Router interface {
	Route(ctx context.Context, start, end routing.LatLng) (*routing.QueryResult, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	router Router
	stats  StatsResponse
}

// NewHandlers creates handlers backed by the given router.
func NewHandlers(router Router, stats StatsResponse) *Handlers {
	return &Handlers{router: router, stats: stats}
}

// HandleRoute handles GET /route?lat1=&lon1=&lat2=&lon2=. The response is
// a GeoJSON Feature with a LineString geometry in [lon, lat] order and the
// rendered instructions under properties.
func (h *Handlers) HandleRoute(c echo.Context) error {
	start, err := parseCoord(c, "lat1", "lon1")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	end, err := parseCoord(c, "lat2", "lon2")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	result, err := h.router.Route(c.Request().Context(), start, end)
	if err != nil {
		return err
	}
	if !result.Found {
		return c.JSON(http.StatusOK, ErrorResponse{Error: "No route found"})
	}

	line := make(orb.LineString, len(result.Geometry))
	for i, p := range result.Geometry {
		line[i] = orb.Point{p.Lng, p.Lat}
	}

	instructions := make([]string, len(result.Instructions))
	for i, in := range result.Instructions {
		instructions[i] = in.String()
	}

	feature := geojson.NewFeature(line)
	feature.Properties["distance_meters"] = result.DistanceMeters
	feature.Properties["instructions"] = instructions

	return c.JSON(http.StatusOK, feature)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /stats.
func (h *Handlers) HandleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.stats)
}

func parseCoord(c echo.Context, latParam, lonParam string) (routing.LatLng, error) {
	lat, err := parseFloatParam(c, latParam)
	if err != nil {
		return routing.LatLng{}, err
	}
	lon, err := parseFloatParam(c, lonParam)
	if err != nil {
		return routing.LatLng{}, err
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return routing.LatLng{}, errors.New("coordinates out of range")
	}
	return routing.LatLng{Lat: lat, Lng: lon}, nil
}

func parseFloatParam(c echo.Context, name string) (float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, &paramError{name: name, reason: "missing"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &paramError{name: name, reason: "invalid"}
	}
	return v, nil
}

type paramError struct {
	name   string
	reason string
}

func (e *paramError) Error() string {
	return e.reason + " parameter " + e.name
}
