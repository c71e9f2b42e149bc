package graph

import (
	"errors"
	"math"
)

// NoEdge is the id carried by an edge that has not been inserted into a
// graph yet.
const NoEdge = -1

// Sentinel errors for precondition violations on graph operations.
var (
	ErrVertexRange  = errors.New("graph: vertex id out of range")
	ErrEdgeRange    = errors.New("graph: edge id out of range")
	ErrBadWeight    = errors.New("graph: weight must be non-negative and not NaN")
	ErrNilEdge      = errors.New("graph: nil edge")
	ErrEdgeAssigned = errors.New("graph: edge already assigned to a graph")
)

// Edge is a directed edge v→w. Its id is assigned once, at insertion time,
// and is NoEdge before that.
type Edge struct {
	v, w   int
	weight float64
	id     int
}

// NewEdge creates an edge that is not yet part of any graph.
func NewEdge(v, w int, weight float64) *Edge {
	return &Edge{v: v, w: w, weight: weight, id: NoEdge}
}

// From returns the tail vertex.
func (e *Edge) From() int { return e.v }

// To returns the head vertex.
func (e *Edge) To() int { return e.w }

// Weight returns the edge weight.
func (e *Edge) Weight() float64 { return e.weight }

// ID returns the edge id, or NoEdge if the edge has not been inserted.
func (e *Edge) ID() int { return e.id }

// Graph is a directed graph with a fixed vertex count and dense sequential
// edge ids. Each vertex owns an unordered outgoing-edge list; indegree is
// tracked separately. Edge cost for routing lives in EdgeAttributes, keyed
// by edge id; the weight field here stays 0 in that setup.
type Graph struct {
	adjOut   [][]*Edge
	indegree []int
	edges    []*Edge // id → edge
}

// New creates a graph with v vertices and no edges.
func New(v int) *Graph {
	return &Graph{
		adjOut:   make([][]*Edge, v),
		indegree: make([]int, v),
	}
}

// V returns the number of vertices.
func (g *Graph) V() int { return len(g.adjOut) }

// E returns the number of edges.
func (g *Graph) E() int { return len(g.edges) }

// AddEdge creates and inserts a directed edge v→w and returns its id.
func (g *Graph) AddEdge(v, w int, weight float64) (int, error) {
	return g.Insert(NewEdge(v, w, weight))
}

// Insert adds the edge to the graph and assigns it the next sequential id.
// Inserting an edge that already belongs to a graph is an error.
func (g *Graph) Insert(e *Edge) (int, error) {
	if e == nil {
		return NoEdge, ErrNilEdge
	}
	if e.id != NoEdge {
		return NoEdge, ErrEdgeAssigned
	}
	if e.v < 0 || e.v >= g.V() || e.w < 0 || e.w >= g.V() {
		return NoEdge, ErrVertexRange
	}
	if e.weight < 0 || math.IsNaN(e.weight) {
		return NoEdge, ErrBadWeight
	}

	e.id = len(g.edges)
	g.edges = append(g.edges, e)
	g.adjOut[e.v] = append(g.adjOut[e.v], e)
	g.indegree[e.w]++

	return e.id, nil
}

// OutEdges returns the outgoing-edge list of v. The slice is shared with
// the graph and must not be modified.
func (g *Graph) OutEdges(v int) ([]*Edge, error) {
	if v < 0 || v >= g.V() {
		return nil, ErrVertexRange
	}
	return g.adjOut[v], nil
}

// Outdegree returns the number of edges leaving v.
func (g *Graph) Outdegree(v int) (int, error) {
	if v < 0 || v >= g.V() {
		return 0, ErrVertexRange
	}
	return len(g.adjOut[v]), nil
}

// Indegree returns the number of edges entering v.
func (g *Graph) Indegree(v int) (int, error) {
	if v < 0 || v >= g.V() {
		return 0, ErrVertexRange
	}
	return g.indegree[v], nil
}

// EdgeByID returns the edge with the given id.
func (g *Graph) EdgeByID(id int) (*Edge, error) {
	if id < 0 || id >= len(g.edges) {
		return nil, ErrEdgeRange
	}
	return g.edges[id], nil
}

// Edges returns all edges in id order. The returned slice is a copy; the
// edges themselves are shared.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Reverse returns a new graph with every edge flipped and the same weights.
// The reversed edges are inserted in id order, so ids line up between the
// two graphs.
func (g *Graph) Reverse() *Graph {
	r := New(g.V())
	for _, e := range g.edges {
		// Vertex ranges and weights were validated at original insertion.
		_, _ = r.AddEdge(e.w, e.v, e.weight)
	}
	return r
}
