package graph

import "errors"

// ErrVertexStoreLen is returned when the x and y coordinate arrays differ in
// length. The store does not know the graph's vertex count; consumers check
// Len against V themselves.
var ErrVertexStoreLen = errors.New("graph: vertex coordinate arrays differ in length")

// VertexStore holds per-vertex planar coordinates in meters, used by the
// A* heuristic.
type VertexStore struct {
	x []float64
	y []float64
}

// NewVertexStore wraps parallel coordinate arrays. The arrays must have the
// same length.
func NewVertexStore(xs, ys []float64) (*VertexStore, error) {
	if len(xs) != len(ys) {
		return nil, ErrVertexStoreLen
	}
	return &VertexStore{x: xs, y: ys}, nil
}

// Len returns the number of vertices covered.
func (s *VertexStore) Len() int { return len(s.x) }

// X returns the planar x coordinate of vertex v.
func (s *VertexStore) X(v int) float64 { return s.x[v] }

// Y returns the planar y coordinate of vertex v.
func (s *VertexStore) Y(v int) float64 { return s.y[v] }
