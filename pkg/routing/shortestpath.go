package routing

import (
	"errors"
	"math"

	"way_router/pkg/graph"
)

// Sentinel errors for the search drivers.
var (
	ErrBadVmax         = errors.New("routing: vmax must be strictly positive for TIME A*")
	ErrNoVertexStore   = errors.New("routing: A* requires a vertex coordinate store")
	ErrVertexStoreSize = errors.New("routing: vertex store length differs from graph V")
	ErrMissingParent   = errors.New("routing: parent edge sentinel on a reachable vertex")
)

// Metric selects the per-edge cost column.
type Metric int

const (
	Distance Metric = iota
	Time
)

func (m Metric) String() string {
	if m == Time {
		return "time"
	}
	return "distance"
}

// Algorithm names the search driver that produced a route.
type Algorithm int

const (
	AlgorithmDijkstra Algorithm = iota
	AlgorithmAStar
)

func (a Algorithm) String() string {
	if a == AlgorithmAStar {
		return "astar"
	}
	return "dijkstra"
}

// Route is the immutable result of a point-to-point query. EdgeIDs is in
// traversal order and empty when Start == Goal. TotalCost is +Inf when no
// path exists.
type Route struct {
	Found     bool
	Start     int
	Goal      int
	Metric    Metric
	Algorithm Algorithm
	TotalCost float64
	EdgeIDs   []int
}

func cost(attrs *graph.EdgeAttributes, m Metric, e int) float64 {
	if m == Time {
		return attrs.Time(e)
	}
	return attrs.Distance(e)
}

// Dijkstra holds the result of a single-source run: distances and parent
// edges for every vertex. Construct one per query; the underlying network
// is shared read-only.
type Dijkstra struct {
	g      *graph.Graph
	metric Metric
	source int
	distTo []float64
	parent []int // parent edge id, graph.NoEdge if unreached
}

// NewDijkstra runs Dijkstra's algorithm from source over the whole graph.
func NewDijkstra(g *graph.Graph, attrs *graph.EdgeAttributes, metric Metric, source int) (*Dijkstra, error) {
	if source < 0 || source >= g.V() {
		return nil, graph.ErrVertexRange
	}

	d := &Dijkstra{
		g:      g,
		metric: metric,
		source: source,
		distTo: make([]float64, g.V()),
		parent: make([]int, g.V()),
	}
	for v := range d.distTo {
		d.distTo[v] = math.Inf(1)
		d.parent[v] = graph.NoEdge
	}
	d.distTo[source] = 0

	pq := newIndexMinPQ(g.V())
	pq.Insert(source, 0)

	for pq.Len() > 0 {
		v, _ := pq.DelMin()
		out, _ := g.OutEdges(v)
		for _, e := range out {
			w := e.To()
			cand := d.distTo[v] + cost(attrs, metric, e.ID())
			if cand < d.distTo[w] {
				d.distTo[w] = cand
				d.parent[w] = e.ID()
				if pq.Contains(w) {
					pq.DecreaseKey(w, cand)
				} else {
					pq.Insert(w, cand)
				}
			}
		}
	}

	return d, nil
}

// DistTo returns the cost of the shortest path to v, +Inf if unreachable.
func (d *Dijkstra) DistTo(v int) (float64, error) {
	if v < 0 || v >= len(d.distTo) {
		return 0, graph.ErrVertexRange
	}
	return d.distTo[v], nil
}

// HasPathTo reports whether v is reachable from the source.
func (d *Dijkstra) HasPathTo(v int) (bool, error) {
	if v < 0 || v >= len(d.distTo) {
		return false, graph.ErrVertexRange
	}
	return !math.IsInf(d.distTo[v], 1), nil
}

// PathTo returns the edge ids of the shortest path to v in traversal
// order, or nil if v is unreachable.
func (d *Dijkstra) PathTo(v int) ([]int, error) {
	reachable, err := d.HasPathTo(v)
	if err != nil {
		return nil, err
	}
	if !reachable {
		return nil, nil
	}
	return walkParents(d.g, d.parent, d.source, v)
}

// Route packages the single-source result as a point-to-point route.
func (d *Dijkstra) Route(goal int) (Route, error) {
	distance, err := d.DistTo(goal)
	if err != nil {
		return Route{}, err
	}
	if math.IsInf(distance, 1) {
		return Route{Start: d.source, Goal: goal, Metric: d.metric,
			Algorithm: AlgorithmDijkstra, TotalCost: distance}, nil
	}
	edges, err := d.PathTo(goal)
	if err != nil {
		return Route{}, err
	}
	return Route{
		Found:     true,
		Start:     d.source,
		Goal:      goal,
		Metric:    d.metric,
		Algorithm: AlgorithmDijkstra,
		TotalCost: distance,
		EdgeIDs:   edges,
	}, nil
}

// AStar runs a point-to-point A* search. The heuristic is the Euclidean
// distance between planar vertex coordinates; for the TIME metric it is
// divided by vmax, which must be a strictly positive upper bound on
// traversal speed for the heuristic to stay admissible.
func AStar(g *graph.Graph, attrs *graph.EdgeAttributes, coords *graph.VertexStore, metric Metric, vmax float64, source, goal int) (Route, error) {
	if source < 0 || source >= g.V() || goal < 0 || goal >= g.V() {
		return Route{}, graph.ErrVertexRange
	}
	if coords == nil {
		return Route{}, ErrNoVertexStore
	}
	if coords.Len() != g.V() {
		return Route{}, ErrVertexStoreSize
	}
	if metric == Time && vmax <= 0 {
		return Route{}, ErrBadVmax
	}

	gx, gy := coords.X(goal), coords.Y(goal)
	h := func(v int) float64 {
		d := math.Hypot(coords.X(v)-gx, coords.Y(v)-gy)
		if metric == Time {
			return d / vmax
		}
		return d
	}

	gScore := make([]float64, g.V())
	parent := make([]int, g.V())
	closed := make([]bool, g.V())
	for v := range gScore {
		gScore[v] = math.Inf(1)
		parent[v] = graph.NoEdge
	}
	gScore[source] = 0

	pq := newIndexMinPQ(g.V())
	pq.Insert(source, h(source))

	for pq.Len() > 0 {
		v, _ := pq.DelMin()
		if v == goal {
			break
		}
		closed[v] = true

		out, _ := g.OutEdges(v)
		for _, e := range out {
			w := e.To()
			if closed[w] {
				continue
			}
			cand := gScore[v] + cost(attrs, metric, e.ID())
			if cand < gScore[w] {
				gScore[w] = cand
				parent[w] = e.ID()
				f := cand + h(w)
				if pq.Contains(w) {
					pq.DecreaseKey(w, f)
				} else {
					pq.Insert(w, f)
				}
			}
		}
	}

	if math.IsInf(gScore[goal], 1) {
		return Route{Start: source, Goal: goal, Metric: metric,
			Algorithm: AlgorithmAStar, TotalCost: math.Inf(1)}, nil
	}

	edges, err := walkParents(g, parent, source, goal)
	if err != nil {
		return Route{}, err
	}
	return Route{
		Found:     true,
		Start:     source,
		Goal:      goal,
		Metric:    metric,
		Algorithm: AlgorithmAStar,
		TotalCost: gScore[goal],
		EdgeIDs:   edges,
	}, nil
}

// walkParents traces parent edges from goal back to source and reverses
// the result into traversal order. A sentinel parent on any vertex other
// than the source is an internal inconsistency.
func walkParents(g *graph.Graph, parent []int, source, goal int) ([]int, error) {
	var edges []int
	for v := goal; v != source; {
		id := parent[v]
		if id == graph.NoEdge {
			return nil, ErrMissingParent
		}
		e, err := g.EdgeByID(id)
		if err != nil {
			return nil, err
		}
		edges = append(edges, id)
		v = e.From()
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return edges, nil
}
