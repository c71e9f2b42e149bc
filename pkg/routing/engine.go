package routing

import (
	"context"
	"math"

	"way_router/pkg/geo"
	"way_router/pkg/graph"
)

// LatLng represents a geographic coordinate in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// QueryResult is the outcome of a lat/lon route query. Found is false on a
// query miss (no snap or no path); that is not an error.
type QueryResult struct {
	Found          bool
	Route          Route
	DistanceMeters float64 // path cost plus the partial first/last edges
	Geometry       []LatLng
	Instructions   []Instruction
}

// EngineOptions tunes the query pipeline.
type EngineOptions struct {
	// CellSize is the snapper grid cell size in meters. ~1 km suits
	// regional extracts.
	CellSize float64
	// MaxRing bounds the snapper ring search.
	MaxRing int
	// VmaxMetersPerSec upper-bounds traversal speed for the TIME A*
	// heuristic. Must exceed every speed in the network.
	VmaxMetersPerSec float64
	// Instructions tunes maneuver emission.
	Instructions InstructionOptions
}

// DefaultEngineOptions returns the standard tuning: 1 km cells and a
// 110 km/h speed bound.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		CellSize:         1000,
		MaxRing:          defaultMaxRing,
		VmaxMetersPerSec: 110 / 3.6,
		Instructions:     DefaultInstructionOptions(),
	}
}

// Engine orchestrates snap → route → reconstruct over a compiled network.
// The network is shared read-only; every query allocates its own search
// state, so one engine serves concurrent callers.
type Engine struct {
	g     *graph.Graph
	attrs *graph.EdgeAttributes

	proj       geo.Projection
	coords     *graph.VertexStore
	planarGeom *graph.EdgeGeometry
	snapper    *SegmentSnapper
	opts       EngineOptions
}

// NewEngine projects the network onto a local tangent plane centered on
// the mean vertex position and builds the segment snapper over it.
func NewEngine(g *graph.Graph, attrs *graph.EdgeAttributes, geom *graph.EdgeGeometry, lats, lons []float64, opts ...EngineOptions) (*Engine, error) {
	opt := DefaultEngineOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	proj, err := geo.ProjectionAround(lats, lons)
	if err != nil {
		return nil, err
	}
	xs, ys, err := proj.ForwardAll(lats, lons)
	if err != nil {
		return nil, err
	}
	coords, err := graph.NewVertexStore(xs, ys)
	if err != nil {
		return nil, err
	}
	if coords.Len() != g.V() {
		return nil, ErrVertexStoreSize
	}

	// The compiled geometry stores x=lon, y=lat in degrees.
	planarGeom := geom.Transform(func(lon, lat float64) (float64, float64) {
		return proj.Forward(lat, lon)
	})

	snapper, err := NewSegmentSnapper(g, planarGeom, opt.CellSize)
	if err != nil {
		return nil, err
	}
	if opt.MaxRing > 0 {
		snapper.MaxRing = opt.MaxRing
	}

	return &Engine{
		g:          g,
		attrs:      attrs,
		proj:       proj,
		coords:     coords,
		planarGeom: planarGeom,
		snapper:    snapper,
		opts:       opt,
	}, nil
}

// DistanceDijkstra routes between two vertices by distance using Dijkstra.
func (e *Engine) DistanceDijkstra(source, goal int) (Route, error) {
	return e.dijkstra(Distance, source, goal)
}

// TimeDijkstra routes between two vertices by time using Dijkstra.
func (e *Engine) TimeDijkstra(source, goal int) (Route, error) {
	return e.dijkstra(Time, source, goal)
}

// DistanceAStar routes between two vertices by distance using A*.
func (e *Engine) DistanceAStar(source, goal int) (Route, error) {
	if source == goal {
		return trivialRoute(source, Distance, AlgorithmAStar), nil
	}
	return AStar(e.g, e.attrs, e.coords, Distance, 0, source, goal)
}

// TimeAStar routes between two vertices by time using A*. The engine's
// configured vmax keeps the heuristic admissible.
func (e *Engine) TimeAStar(source, goal int) (Route, error) {
	if source == goal {
		return trivialRoute(source, Time, AlgorithmAStar), nil
	}
	return AStar(e.g, e.attrs, e.coords, Time, e.opts.VmaxMetersPerSec, source, goal)
}

func (e *Engine) dijkstra(metric Metric, source, goal int) (Route, error) {
	if source == goal {
		if source < 0 || source >= e.g.V() {
			return Route{}, graph.ErrVertexRange
		}
		return trivialRoute(source, metric, AlgorithmDijkstra), nil
	}
	d, err := NewDijkstra(e.g, e.attrs, metric, source)
	if err != nil {
		return Route{}, err
	}
	return d.Route(goal)
}

func trivialRoute(v int, m Metric, a Algorithm) Route {
	return Route{Found: true, Start: v, Goal: v, Metric: m, Algorithm: a}
}

// Snap projects a geographic point onto the nearest road segment.
func (e *Engine) Snap(p LatLng) (SegmentSnap, bool) {
	x, y := e.proj.Forward(p.Lat, p.Lng)
	return e.snapper.Snap(x, y)
}

// Route answers a lat/lon point-to-point query: snap both ends, search by
// distance with A*, and rebuild the polyline and instruction stream.
func (e *Engine) Route(ctx context.Context, start, end LatLng) (*QueryResult, error) {
	startSnap, ok := e.Snap(start)
	if !ok {
		return &QueryResult{}, nil
	}
	goalSnap, ok := e.Snap(end)
	if !ok {
		return &QueryResult{}, nil
	}

	if startSnap.EdgeID != goalSnap.EdgeID &&
		goalSnap.FromVertex == startSnap.ToVertex && goalSnap.ToVertex == startSnap.FromVertex {
		// A two-way street is two directed edges with mirrored polylines, and
		// points on it may snap to either; rebase the goal onto the start edge.
		sx, sy, _ := e.planarGeom.Points(startSnap.EdgeID)
		gx, gy, _ := e.planarGeom.Points(goalSnap.EdgeID)
		mirrored := len(sx) == len(gx)
		for i := 0; mirrored && i < len(sx); i++ {
			mirrored = sx[i] == gx[len(gx)-1-i] && sy[i] == gy[len(gy)-1-i]
		}
		if mirrored {
			goalSnap = SegmentSnap{EdgeID: startSnap.EdgeID, FromVertex: startSnap.FromVertex,
				ToVertex: startSnap.ToVertex, T: 1 - goalSnap.T, Dist: goalSnap.Dist}
		}
	}

	if startSnap.EdgeID == goalSnap.EdgeID {
		return e.sameEdgeRoute(startSnap, goalSnap)
	}

	best, partials, found, err := e.enumerateEndpoints(ctx, startSnap, goalSnap)
	if err != nil {
		return nil, err
	}
	if !found {
		return &QueryResult{}, nil
	}

	px, py, err := ReconstructRoute(e.planarGeom, best, startSnap, goalSnap)
	if err != nil {
		return nil, err
	}

	instructions, err := GenerateInstructions(e.planarGeom, e.attrs, best.EdgeIDs, e.opts.Instructions)
	if err != nil {
		return nil, err
	}

	return &QueryResult{
		Found:          true,
		Route:          best,
		DistanceMeters: best.TotalCost + partials,
		Geometry:       e.inverseAll(px, py),
		Instructions:   instructions,
	}, nil
}

// sameEdgeRoute short-circuits a query whose endpoints snapped to the same
// edge: the result is the sub-polyline between the two t parameters and a
// synthetic one-edge route.
func (e *Engine) sameEdgeRoute(startSnap, goalSnap SegmentSnap) (*QueryResult, error) {
	xs, ys, err := e.planarGeom.Points(startSnap.EdgeID)
	if err != nil {
		return nil, err
	}
	px, py := SubPolyline(xs, ys, startSnap.T, goalSnap.T)

	cost := math.Abs(goalSnap.T-startSnap.T) * e.attrs.Distance(startSnap.EdgeID)
	route := Route{
		Found:     true,
		Start:     startSnap.FromVertex,
		Goal:      startSnap.ToVertex,
		Metric:    Distance,
		Algorithm: AlgorithmAStar,
		TotalCost: cost,
		EdgeIDs:   []int{startSnap.EdgeID},
	}

	street := UnnamedStreet
	if name, ok := e.attrs.StreetName(startSnap.EdgeID); ok && name != "" {
		street = name
	}
	instructions := []Instruction{
		{Kind: ManeuverStart, Street: street},
		{Kind: ManeuverArrive, DistanceMeters: cost},
	}

	return &QueryResult{
		Found:          true,
		Route:          route,
		DistanceMeters: cost,
		Geometry:       e.inverseAll(px, py),
		Instructions:   instructions,
	}, nil
}

// enumerateEndpoints tries the four combinations of snapped-edge endpoints
// and keeps the cheapest total including the partial first and last edges.
// On equal totals the candidate with the smaller partials wins, so a fully
// traversed edge is part of the route rather than a whole-edge partial.
func (e *Engine) enumerateEndpoints(ctx context.Context, startSnap, goalSnap SegmentSnap) (best Route, partials float64, found bool, err error) {
	startL := e.attrs.Distance(startSnap.EdgeID)
	goalL := e.attrs.Distance(goalSnap.EdgeID)

	type candidate struct {
		vertex  int
		partial float64
	}
	starts := []candidate{
		{startSnap.FromVertex, startSnap.T * startL},
		{startSnap.ToVertex, (1 - startSnap.T) * startL},
	}
	goals := []candidate{
		{goalSnap.FromVertex, goalSnap.T * goalL},
		{goalSnap.ToVertex, (1 - goalSnap.T) * goalL},
	}

	bestTotal := math.Inf(1)
	for _, s := range starts {
		for _, g := range goals {
			if err := ctx.Err(); err != nil {
				return Route{}, 0, false, err
			}
			route, err := e.DistanceAStar(s.vertex, g.vertex)
			if err != nil {
				return Route{}, 0, false, err
			}
			if !route.Found {
				continue
			}
			total := s.partial + route.TotalCost + g.partial
			if total < bestTotal || (total == bestTotal && s.partial+g.partial < partials) {
				bestTotal = total
				best = route
				partials = s.partial + g.partial
				found = true
			}
		}
	}
	return best, partials, found, nil
}

func (e *Engine) inverseAll(xs, ys []float64) []LatLng {
	out := make([]LatLng, len(xs))
	for i := range xs {
		lat, lon := e.proj.Inverse(xs[i], ys[i])
		out[i] = LatLng{Lat: lat, Lng: lon}
	}
	return out
}
