package routing

import (
	"errors"
	"math"

	"way_router/pkg/geo"
	"way_router/pkg/graph"
)

// ErrBadCellSize is returned when a grid is constructed with a
// non-positive cell size.
var ErrBadCellSize = errors.New("routing: cell size must be positive")

// defaultMaxRing bounds the expanding ring search. 32 rings at a 1 km cell
// size covers a 32 km radius, far beyond any sane snap distance.
const defaultMaxRing = 32

// SegmentSnap is a point projected onto the nearest road segment.
type SegmentSnap struct {
	EdgeID     int
	FromVertex int
	ToVertex   int
	T          float64 // normalized arc-length position along the whole edge polyline
	Dist       float64 // meters from query point to the snapped point
}

// segmentRef packs one indexed segment: the owning edge and the index of
// the segment's first point within that edge's polyline.
type segmentRef struct {
	edgeID     int32
	firstPoint int32
}

// SegmentSnapper indexes every polyline segment of a planar edge geometry
// in a uniform grid, classified by segment midpoint, and answers
// nearest-segment queries with an expanding square ring search.
type SegmentSnapper struct {
	g        *graph.Graph
	geom     *graph.EdgeGeometry
	cellSize float64

	minX, minY   float64
	gridW, gridH int
	cellStart    []int32
	segs         []segmentRef

	// MaxRing bounds the ring search. When it is exhausted the best match
	// seen so far is returned; a query reports no match only when no
	// segment was examined in any visited ring.
	MaxRing int
}

// NewSegmentSnapper builds the grid over the given planar geometry. The
// cell size is in meters.
func NewSegmentSnapper(g *graph.Graph, geom *graph.EdgeGeometry, cellSize float64) (*SegmentSnapper, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) {
		return nil, ErrBadCellSize
	}

	s := &SegmentSnapper{
		g:        g,
		geom:     geom,
		cellSize: cellSize,
		gridW:    1,
		gridH:    1,
		MaxRing:  defaultMaxRing,
	}

	// Bounding box over every geometry point.
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	nSegs := 0
	for e := 0; e < geom.EdgeCount(); e++ {
		xs, ys, _ := geom.Points(e)
		for i := range xs {
			minX = math.Min(minX, xs[i])
			maxX = math.Max(maxX, xs[i])
			minY = math.Min(minY, ys[i])
			maxY = math.Max(maxY, ys[i])
		}
		nSegs += len(xs) - 1
	}
	if nSegs == 0 {
		s.cellStart = []int32{0, 0}
		return s, nil
	}

	s.minX, s.minY = minX, minY
	s.gridW = max(1, int(math.Ceil((maxX-minX)/cellSize)))
	s.gridH = max(1, int(math.Ceil((maxY-minY)/cellSize)))

	// Two-pass CSR: count segments per midpoint cell, prefix-sum, fill.
	counts := make([]int32, s.gridW*s.gridH+1)
	for e := 0; e < geom.EdgeCount(); e++ {
		xs, ys, _ := geom.Points(e)
		for i := 0; i+1 < len(xs); i++ {
			c := s.cellIndex((xs[i]+xs[i+1])/2, (ys[i]+ys[i+1])/2)
			counts[c+1]++
		}
	}
	for i := 1; i < len(counts); i++ {
		counts[i] += counts[i-1]
	}
	s.cellStart = counts

	s.segs = make([]segmentRef, nSegs)
	fill := make([]int32, s.gridW*s.gridH)
	copy(fill, s.cellStart[:len(fill)])
	for e := 0; e < geom.EdgeCount(); e++ {
		xs, ys, _ := geom.Points(e)
		for i := 0; i+1 < len(xs); i++ {
			c := s.cellIndex((xs[i]+xs[i+1])/2, (ys[i]+ys[i+1])/2)
			s.segs[fill[c]] = segmentRef{edgeID: int32(e), firstPoint: int32(i)}
			fill[c]++
		}
	}

	return s, nil
}

// cellIndex returns the flat grid cell containing (x, y), clamped to the
// grid bounds.
func (s *SegmentSnapper) cellIndex(x, y float64) int {
	cx, cy := s.cellCoords(x, y)
	return cy*s.gridW + cx
}

func (s *SegmentSnapper) cellCoords(x, y float64) (cx, cy int) {
	cx = int(math.Floor((x - s.minX) / s.cellSize))
	cy = int(math.Floor((y - s.minY) / s.cellSize))
	if cx < 0 {
		cx = 0
	} else if cx >= s.gridW {
		cx = s.gridW - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= s.gridH {
		cy = s.gridH - 1
	}
	return cx, cy
}

// Snap projects (x, y) onto the nearest indexed segment. The search widens
// ring by ring and stops once the best match provably beats everything in
// the rings not yet visited: a segment first seen in ring r+1 lies in a
// cell at least r·cellSize away from the query point.
func (s *SegmentSnapper) Snap(x, y float64) (SegmentSnap, bool) {
	if len(s.segs) == 0 {
		return SegmentSnap{}, false
	}

	cx, cy := s.cellCoords(x, y)
	best := SegmentSnap{Dist: math.Inf(1)}
	bestSeg := -1

	for r := 0; r <= s.MaxRing; r++ {
		s.scanRing(cx, cy, r, x, y, &best, &bestSeg)
		if bestSeg >= 0 && best.Dist <= float64(r)*s.cellSize {
			break
		}
	}

	if bestSeg < 0 {
		return SegmentSnap{}, false
	}

	best.T = s.edgeParameter(best.EdgeID, bestSeg, best.T)
	e, err := s.g.EdgeByID(best.EdgeID)
	if err != nil {
		return SegmentSnap{}, false
	}
	best.FromVertex = e.From()
	best.ToVertex = e.To()
	return best, true
}

// scanRing visits every in-range cell of the square ring at radius r and
// updates the best match. While scanning, SegmentSnap.T temporarily holds
// the segment-local parameter; edgeParameter converts it afterwards.
func (s *SegmentSnapper) scanRing(cx, cy, r int, x, y float64, best *SegmentSnap, bestSeg *int) {
	for dy := -r; dy <= r; dy++ {
		gy := cy + dy
		if gy < 0 || gy >= s.gridH {
			continue
		}
		for dx := -r; dx <= r; dx++ {
			// Only the ring's perimeter; inner cells were already visited.
			if dx > -r && dx < r && dy > -r && dy < r {
				continue
			}
			gx := cx + dx
			if gx < 0 || gx >= s.gridW {
				continue
			}
			cell := gy*s.gridW + gx
			for i := s.cellStart[cell]; i < s.cellStart[cell+1]; i++ {
				ref := s.segs[i]
				xs, ys, _ := s.geom.Points(int(ref.edgeID))
				p := ref.firstPoint
				dist, t := geo.PointToSegmentDist(x, y,
					xs[p], ys[p], xs[p+1], ys[p+1])
				if dist < best.Dist {
					best.Dist = dist
					best.EdgeID = int(ref.edgeID)
					best.T = t
					*bestSeg = int(p)
				}
			}
		}
	}
}

// edgeParameter converts a segment-local parameter into the normalized
// arc-length position along the whole edge polyline.
func (s *SegmentSnapper) edgeParameter(edgeID, segIndex int, segT float64) float64 {
	xs, ys, err := s.geom.Points(edgeID)
	if err != nil || len(xs) < 2 {
		return 0
	}
	var before, total float64
	for i := 0; i+1 < len(xs); i++ {
		l := math.Hypot(xs[i+1]-xs[i], ys[i+1]-ys[i])
		if i < segIndex {
			before += l
		} else if i == segIndex {
			before += segT * l
		}
		total += l
	}
	if total == 0 {
		return 0
	}
	return before / total
}

// VertexGrid is the nearest-vertex variant of the uniform grid: same
// layout, vertex atoms instead of segments.
type VertexGrid struct {
	coords   *graph.VertexStore
	cellSize float64

	minX, minY   float64
	gridW, gridH int
	cellStart    []int32
	vertices     []int32

	MaxRing int
}

// NewVertexGrid builds a uniform grid over the vertex coordinates.
func NewVertexGrid(coords *graph.VertexStore, cellSize float64) (*VertexGrid, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) {
		return nil, ErrBadCellSize
	}

	g := &VertexGrid{
		coords:   coords,
		cellSize: cellSize,
		gridW:    1,
		gridH:    1,
		MaxRing:  defaultMaxRing,
	}

	if coords.Len() == 0 {
		g.cellStart = []int32{0, 0}
		return g, nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for v := 0; v < coords.Len(); v++ {
		minX = math.Min(minX, coords.X(v))
		maxX = math.Max(maxX, coords.X(v))
		minY = math.Min(minY, coords.Y(v))
		maxY = math.Max(maxY, coords.Y(v))
	}
	g.minX, g.minY = minX, minY
	g.gridW = max(1, int(math.Ceil((maxX-minX)/cellSize)))
	g.gridH = max(1, int(math.Ceil((maxY-minY)/cellSize)))

	counts := make([]int32, g.gridW*g.gridH+1)
	for v := 0; v < coords.Len(); v++ {
		counts[g.cellIndex(coords.X(v), coords.Y(v))+1]++
	}
	for i := 1; i < len(counts); i++ {
		counts[i] += counts[i-1]
	}
	g.cellStart = counts

	g.vertices = make([]int32, coords.Len())
	fill := make([]int32, g.gridW*g.gridH)
	copy(fill, g.cellStart[:len(fill)])
	for v := 0; v < coords.Len(); v++ {
		c := g.cellIndex(coords.X(v), coords.Y(v))
		g.vertices[fill[c]] = int32(v)
		fill[c]++
	}

	return g, nil
}

func (g *VertexGrid) cellIndex(x, y float64) int {
	cx, cy := g.cellCoords(x, y)
	return cy*g.gridW + cx
}

func (g *VertexGrid) cellCoords(x, y float64) (cx, cy int) {
	cx = int(math.Floor((x - g.minX) / g.cellSize))
	cy = int(math.Floor((y - g.minY) / g.cellSize))
	if cx < 0 {
		cx = 0
	} else if cx >= g.gridW {
		cx = g.gridW - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= g.gridH {
		cy = g.gridH - 1
	}
	return cx, cy
}

// Nearest returns the closest vertex to (x, y) and its distance.
func (g *VertexGrid) Nearest(x, y float64) (vertex int, dist float64, ok bool) {
	if len(g.vertices) == 0 {
		return 0, 0, false
	}

	cx, cy := g.cellCoords(x, y)
	bestV := -1
	bestDist := math.Inf(1)

	for r := 0; r <= g.MaxRing; r++ {
		for dy := -r; dy <= r; dy++ {
			gy := cy + dy
			if gy < 0 || gy >= g.gridH {
				continue
			}
			for dx := -r; dx <= r; dx++ {
				if dx > -r && dx < r && dy > -r && dy < r {
					continue
				}
				gx := cx + dx
				if gx < 0 || gx >= g.gridW {
					continue
				}
				cell := gy*g.gridW + gx
				for i := g.cellStart[cell]; i < g.cellStart[cell+1]; i++ {
					v := int(g.vertices[i])
					d := math.Hypot(g.coords.X(v)-x, g.coords.Y(v)-y)
					if d < bestDist {
						bestDist = d
						bestV = v
					}
				}
			}
		}
		if bestV >= 0 && bestDist <= float64(r)*g.cellSize {
			break
		}
	}

	if bestV < 0 {
		return 0, 0, false
	}
	return bestV, bestDist, true
}
