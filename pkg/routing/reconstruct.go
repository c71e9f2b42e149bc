package routing

import (
	"math"

	"way_router/pkg/graph"
)

// Interpolate resolves a normalized arc-length parameter t ∈ [0,1] into a
// point on the polyline by walking segment lengths. t ≤ 0 yields the first
// point, t ≥ 1 the last.
func Interpolate(xs, ys []float64, t float64) (x, y float64) {
	last := len(xs) - 1
	if t <= 0 || last < 1 {
		return xs[0], ys[0]
	}
	if t >= 1 {
		return xs[last], ys[last]
	}

	var total float64
	for i := 0; i < last; i++ {
		total += math.Hypot(xs[i+1]-xs[i], ys[i+1]-ys[i])
	}
	if total == 0 {
		return xs[0], ys[0]
	}

	target := t * total
	var walked float64
	for i := 0; i < last; i++ {
		l := math.Hypot(xs[i+1]-xs[i], ys[i+1]-ys[i])
		if walked+l >= target && l > 0 {
			f := (target - walked) / l
			return xs[i] + f*(xs[i+1]-xs[i]), ys[i] + f*(ys[i+1]-ys[i])
		}
		walked += l
	}
	return xs[last], ys[last]
}

// SubPolyline extracts the portion of a polyline between two arc-length
// parameters, in the t0 → t1 direction (reversed output when t0 > t1).
// The interpolated endpoints are included; interior polyline points that
// coincide with them are suppressed.
func SubPolyline(xs, ys []float64, t0, t1 float64) (outX, outY []float64) {
	if t0 > t1 {
		rx, ry := SubPolyline(xs, ys, t1, t0)
		for i, j := 0, len(rx)-1; i < j; i, j = i+1, j-1 {
			rx[i], rx[j] = rx[j], rx[i]
			ry[i], ry[j] = ry[j], ry[i]
		}
		return rx, ry
	}

	last := len(xs) - 1
	var total float64
	for i := 0; i < last; i++ {
		total += math.Hypot(xs[i+1]-xs[i], ys[i+1]-ys[i])
	}

	s0 := t0 * total
	s1 := t1 * total

	x0, y0 := Interpolate(xs, ys, t0)
	outX = append(outX, x0)
	outY = append(outY, y0)

	var walked float64
	for i := 1; i <= last; i++ {
		walked += math.Hypot(xs[i]-xs[i-1], ys[i]-ys[i-1])
		if walked <= s0 {
			continue
		}
		if walked >= s1 {
			break
		}
		outX, outY = appendDedup(outX, outY, xs[i], ys[i])
	}

	x1, y1 := Interpolate(xs, ys, t1)
	outX, outY = appendDedup(outX, outY, x1, y1)
	return outX, outY
}

// appendDedup appends a point unless it is bit-identical to the previous
// one. Duplicates arise from identical array reads, so exact comparison is
// the right filter here.
func appendDedup(xs, ys []float64, x, y float64) ([]float64, []float64) {
	n := len(xs)
	if n > 0 && xs[n-1] == x && ys[n-1] == y {
		return xs, ys
	}
	return append(xs, x), append(ys, y)
}

// ReconstructRoute assembles the continuous polyline for a routed query
// from the partial first and last edges plus the full middle edges. Both
// snaps and the geometry must be in the same planar space.
func ReconstructRoute(geom *graph.EdgeGeometry, route Route, start, goal SegmentSnap) (outX, outY []float64, err error) {
	if start.EdgeID == goal.EdgeID {
		xs, ys, err := geom.Points(start.EdgeID)
		if err != nil {
			return nil, nil, err
		}
		outX, outY = SubPolyline(xs, ys, start.T, goal.T)
		return outX, outY, nil
	}

	// Partial first edge: from the snap point toward the chosen start
	// vertex (t → 1 when the route starts at the edge's to-vertex, t → 0
	// otherwise).
	xs, ys, err := geom.Points(start.EdgeID)
	if err != nil {
		return nil, nil, err
	}
	target := 1.0
	if route.Start == start.FromVertex {
		target = 0.0
	}
	outX, outY = SubPolyline(xs, ys, start.T, target)

	// Full middle edges, skipping each first point to avoid duplicating
	// the junction.
	for _, e := range route.EdgeIDs {
		xs, ys, err := geom.Points(e)
		if err != nil {
			return nil, nil, err
		}
		for i := 1; i < len(xs); i++ {
			outX, outY = appendDedup(outX, outY, xs[i], ys[i])
		}
	}

	// Partial last edge: from the chosen goal vertex to the snap point.
	xs, ys, err = geom.Points(goal.EdgeID)
	if err != nil {
		return nil, nil, err
	}
	from := 0.0
	if route.Goal == goal.ToVertex {
		from = 1.0
	}
	px, py := SubPolyline(xs, ys, from, goal.T)
	for i := range px {
		outX, outY = appendDedup(outX, outY, px[i], py[i])
	}

	return outX, outY, nil
}
