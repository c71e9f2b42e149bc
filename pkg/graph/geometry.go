package graph

import (
	"errors"
	"math"
)

// Sentinel errors for the geometry store.
var (
	ErrShortPolyline = errors.New("graph: edge polyline needs at least 2 points")
	ErrPolylineShape = errors.New("graph: polyline coordinate slices differ in length")
	ErrGeometrySync  = errors.New("graph: geometry row pointers out of sync with edge count")
)

// EdgeGeometry stores one polyline per edge in compressed-sparse-row form.
// Points of edge e live at indices [edgeStart[e], edgeStart[e+1]) of the
// flat x and y arrays. The coordinate unit is whatever the producer used:
// the compiler emits degrees (x=lon, y=lat); the query pipeline projects
// into tangent-plane meters.
type EdgeGeometry struct {
	edgeStart []int
	x         []float64
	y         []float64
}

// NewEdgeGeometry creates an empty geometry store.
func NewEdgeGeometry() *EdgeGeometry {
	return &EdgeGeometry{edgeStart: []int{0}}
}

// AppendEdge appends the polyline for the next edge id and advances the row
// pointer. The polyline must have at least two points.
func (g *EdgeGeometry) AppendEdge(xs, ys []float64) error {
	if len(xs) != len(ys) {
		return ErrPolylineShape
	}
	if len(xs) < 2 {
		return ErrShortPolyline
	}
	g.x = append(g.x, xs...)
	g.y = append(g.y, ys...)
	g.edgeStart = append(g.edgeStart, len(g.x))
	return nil
}

// EdgeCount returns the number of stored polylines.
func (g *EdgeGeometry) EdgeCount() int { return len(g.edgeStart) - 1 }

// Points returns the polyline of edge e as subslices of the backing arrays.
// Callers must not modify them.
func (g *EdgeGeometry) Points(e int) (xs, ys []float64, err error) {
	if e < 0 || e >= g.EdgeCount() {
		return nil, nil, ErrEdgeRange
	}
	lo, hi := g.edgeStart[e], g.edgeStart[e+1]
	return g.x[lo:hi], g.y[lo:hi], nil
}

// NumPoints returns the point count of edge e without bounds checking
// overhead on the slices.
func (g *EdgeGeometry) NumPoints(e int) int {
	return g.edgeStart[e+1] - g.edgeStart[e]
}

// Length returns the polyline length of edge e in coordinate units.
func (g *EdgeGeometry) Length(e int) (float64, error) {
	xs, ys, err := g.Points(e)
	if err != nil {
		return 0, err
	}
	var total float64
	for i := 1; i < len(xs); i++ {
		total += math.Hypot(xs[i]-xs[i-1], ys[i]-ys[i-1])
	}
	return total, nil
}

// Transform returns a new geometry store with every point mapped through f.
// Row pointers are shared structure-wise (copied), so the result is
// independent of the receiver.
func (g *EdgeGeometry) Transform(f func(x, y float64) (float64, float64)) *EdgeGeometry {
	out := &EdgeGeometry{
		edgeStart: make([]int, len(g.edgeStart)),
		x:         make([]float64, len(g.x)),
		y:         make([]float64, len(g.y)),
	}
	copy(out.edgeStart, g.edgeStart)
	for i := range g.x {
		out.x[i], out.y[i] = f(g.x[i], g.y[i])
	}
	return out
}

// CheckInvariants verifies the CSR layout against an expected edge count:
// len(edgeStart) == E+1, edgeStart[0] == 0, monotonically non-decreasing,
// final entry equal to the flat array lengths, and ≥ 2 points per edge.
func (g *EdgeGeometry) CheckInvariants(e int) error {
	if len(g.edgeStart) != e+1 {
		return ErrGeometrySync
	}
	if g.edgeStart[0] != 0 {
		return ErrGeometrySync
	}
	for i := 1; i < len(g.edgeStart); i++ {
		if g.edgeStart[i] < g.edgeStart[i-1] {
			return ErrGeometrySync
		}
		if g.edgeStart[i]-g.edgeStart[i-1] < 2 {
			return ErrShortPolyline
		}
	}
	if g.edgeStart[len(g.edgeStart)-1] != len(g.x) || len(g.x) != len(g.y) {
		return ErrGeometrySync
	}
	return nil
}
