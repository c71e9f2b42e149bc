package osm

import (
	"way_router/pkg/graph"
)

// Network is the compiled routing network: topology, per-edge attributes,
// per-edge polylines, and per-vertex coordinates in degrees. The aggregate
// is built by Compile and is read-only afterwards; it may be shared by any
// number of concurrent readers.
type Network struct {
	Graph *graph.Graph
	Attrs *graph.EdgeAttributes
	Geom  *graph.EdgeGeometry // x = lon, y = lat, degrees
	Lats  []float64           // per routing vertex
	Lons  []float64
}

// FilterToComponent returns a new network restricted to the given vertex
// set (typically the largest weakly connected component). Vertex ids are
// remapped densely in the order given; edges keep their relative id order.
func (n *Network) FilterToComponent(vertices []int) (*Network, error) {
	oldToNew := make(map[int]int, len(vertices))
	for newV, oldV := range vertices {
		oldToNew[oldV] = newV
	}

	g := graph.New(len(vertices))
	attrs := graph.NewEdgeAttributes(n.Graph.E())
	geom := graph.NewEdgeGeometry()

	for _, e := range n.Graph.Edges() {
		from, okF := oldToNew[e.From()]
		to, okT := oldToNew[e.To()]
		if !okF || !okT {
			continue
		}

		oldID := e.ID()
		newID, err := g.AddEdge(from, to, e.Weight())
		if err != nil {
			return nil, err
		}
		attrs.SetEdgeCount(g.E())

		if err := attrs.SetDistance(newID, n.Attrs.Distance(oldID)); err != nil {
			return nil, err
		}
		if err := attrs.SetTime(newID, n.Attrs.Time(oldID)); err != nil {
			return nil, err
		}
		if name, ok := n.Attrs.StreetName(oldID); ok {
			if err := attrs.SetStreetName(newID, name); err != nil {
				return nil, err
			}
		}

		xs, ys, err := n.Geom.Points(oldID)
		if err != nil {
			return nil, err
		}
		if err := geom.AppendEdge(xs, ys); err != nil {
			return nil, err
		}
	}

	lats := make([]float64, len(vertices))
	lons := make([]float64, len(vertices))
	for newV, oldV := range vertices {
		lats[newV] = n.Lats[oldV]
		lons[newV] = n.Lons[oldV]
	}

	if err := geom.CheckInvariants(g.E()); err != nil {
		return nil, err
	}

	return &Network{Graph: g, Attrs: attrs, Geom: geom, Lats: lats, Lons: lons}, nil
}
