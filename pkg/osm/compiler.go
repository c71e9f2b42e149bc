package osm

import (
	"context"
	"io"
	"log/slog"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"

	"way_router/pkg/geo"
	"way_router/pkg/graph"
)

// Compile-error sentinels for structural faults in the OSM input.
var (
	ErrDuplicateNode = errors.New("osm: duplicate node id")
	ErrMissingNode   = errors.New("osm: way references missing node")
)

// routableHighways is the closed set of highway tag values that produce
// routable edges.
var routableHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

// highwaySpeedsKmh assigns a travel speed to each routable highway class,
// used to derive the time attribute from the distance attribute. Link roads
// run slower than the class they connect.
var highwaySpeedsKmh = map[string]float64{
	"motorway":       90,
	"motorway_link":  70,
	"trunk":          80,
	"trunk_link":     60,
	"primary":        60,
	"primary_link":   40,
	"secondary":      50,
	"secondary_link": 30,
	"tertiary":       45,
	"tertiary_link":  30,
	"unclassified":   40,
	"residential":    30,
	"living_street":  10,
	"service":        20,
}

// Options configures compilation.
type Options struct {
	// LargestComponent restricts the network to its largest weakly
	// connected component, dropping unreachable islands.
	LargestComponent bool
	Logger           *slog.Logger
}

// Compile streams the OSM XML extract three times and reduces it to a
// routable Network. The reader is rewound between passes, so it must
// implement io.ReadSeeker.
//
// Pass 1 records node coordinates. Pass 2 counts node usage across routable
// ways to decide which nodes become routing vertices (way endpoints and
// nodes shared by two or more ways). Pass 3 walks each routable way and
// emits one or two directed edges per vertex-to-vertex run, carrying the
// accumulated haversine distance, the derived travel time, the street name,
// and the run's polyline.
func Compile(ctx context.Context, rs io.ReadSeeker, opts ...Options) (*Network, error) {
	var opt Options
	if len(opts) > 0 {
		opt = opts[0]
	}
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &compiler{nodeIndex: make(map[osm.NodeID]int)}

	if err := c.passNodes(ctx, rs); err != nil {
		return nil, err
	}
	logger.Info("pass 1 complete", slog.Int("nodes", len(c.nodeLat)))

	if err := rewind(rs); err != nil {
		return nil, err
	}
	if err := c.passUsage(ctx, rs); err != nil {
		return nil, err
	}
	c.assignVertices()
	logger.Info("pass 2 complete",
		slog.Int("routable_ways", c.routableWays),
		slog.Int("routing_vertices", len(c.vertexLat)))

	if err := rewind(rs); err != nil {
		return nil, err
	}
	if err := c.passEdges(ctx, rs); err != nil {
		return nil, err
	}
	logger.Info("pass 3 complete", slog.Int("edges", c.graph.E()))

	c.attrs.SetEdgeCount(c.graph.E())
	if err := c.geom.CheckInvariants(c.graph.E()); err != nil {
		return nil, errors.Wrap(err, "osm: geometry row pointers after compile")
	}

	network := &Network{
		Graph: c.graph,
		Attrs: c.attrs,
		Geom:  c.geom,
		Lats:  c.vertexLat,
		Lons:  c.vertexLon,
	}

	if opt.LargestComponent {
		keep := graph.LargestComponent(network.Graph)
		filtered, err := network.FilterToComponent(keep)
		if err != nil {
			return nil, errors.Wrap(err, "osm: component filter")
		}
		logger.Info("component filter",
			slog.Int("kept_vertices", filtered.Graph.V()),
			slog.Int("dropped_vertices", network.Graph.V()-filtered.Graph.V()))
		network = filtered
	}

	return network, nil
}

func rewind(rs io.ReadSeeker) error {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "osm: rewind between passes")
	}
	return nil
}

// compiler carries the intermediate state across the three passes.
type compiler struct {
	// Pass 1: all nodes of the extract.
	nodeIndex map[osm.NodeID]int
	nodeLat   []float64
	nodeLon   []float64

	// Pass 2: vertex criterion inputs.
	useCount     []int32
	isEndpoint   []bool
	routableWays int

	// Vertex assignment between pass 2 and 3.
	nodeToVertex []int // -1 for non-vertices
	vertexLat    []float64
	vertexLon    []float64

	// Pass 3 output.
	graph *graph.Graph
	attrs *graph.EdgeAttributes
	geom  *graph.EdgeGeometry
}

func (c *compiler) passNodes(ctx context.Context, r io.Reader) error {
	scanner := osmxml.New(ctx, r)
	defer scanner.Close()

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, dup := c.nodeIndex[n.ID]; dup {
			return errors.Wrapf(ErrDuplicateNode, "node %d", n.ID)
		}
		c.nodeIndex[n.ID] = len(c.nodeLat)
		c.nodeLat = append(c.nodeLat, n.Lat)
		c.nodeLon = append(c.nodeLon, n.Lon)
	}
	return errors.Wrap(scanner.Err(), "osm: pass 1 (nodes)")
}

// routableRefs returns the node indices of a way if it is routable, or nil.
// Ways with fewer than two refs or a non-routable highway tag are skipped;
// a ref to an unknown node is a compile error.
func (c *compiler) routableRefs(w *osm.Way) ([]int, error) {
	if !routableHighways[w.Tags.Find("highway")] {
		return nil, nil
	}
	if len(w.Nodes) < 2 {
		return nil, nil
	}
	refs := make([]int, len(w.Nodes))
	for i, wn := range w.Nodes {
		idx, ok := c.nodeIndex[wn.ID]
		if !ok {
			return nil, errors.Wrapf(ErrMissingNode, "way %d references node %d", w.ID, wn.ID)
		}
		refs[i] = idx
	}
	return refs, nil
}

func (c *compiler) passUsage(ctx context.Context, r io.Reader) error {
	c.useCount = make([]int32, len(c.nodeLat))
	c.isEndpoint = make([]bool, len(c.nodeLat))

	scanner := osmxml.New(ctx, r)
	defer scanner.Close()

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		refs, err := c.routableRefs(w)
		if err != nil {
			return err
		}
		if refs == nil {
			continue
		}
		c.routableWays++
		c.isEndpoint[refs[0]] = true
		c.isEndpoint[refs[len(refs)-1]] = true
		for _, idx := range refs {
			c.useCount[idx]++
		}
	}
	return errors.Wrap(scanner.Err(), "osm: pass 2 (usage)")
}

// assignVertices labels routing vertices densely in node order. A node is a
// routing vertex iff it is a way endpoint or shared by two or more ways.
func (c *compiler) assignVertices() {
	c.nodeToVertex = make([]int, len(c.nodeLat))
	for i := range c.nodeToVertex {
		if c.isEndpoint[i] || c.useCount[i] >= 2 {
			c.nodeToVertex[i] = len(c.vertexLat)
			c.vertexLat = append(c.vertexLat, c.nodeLat[i])
			c.vertexLon = append(c.vertexLon, c.nodeLon[i])
		} else {
			c.nodeToVertex[i] = -1
		}
	}
}

func (c *compiler) passEdges(ctx context.Context, r io.Reader) error {
	c.graph = graph.New(len(c.vertexLat))
	c.attrs = graph.NewEdgeAttributes(1024)
	c.geom = graph.NewEdgeGeometry()

	scanner := osmxml.New(ctx, r)
	defer scanner.Close()

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		refs, err := c.routableRefs(w)
		if err != nil {
			return err
		}
		if refs == nil {
			continue
		}
		if err := c.emitWay(w, refs); err != nil {
			return err
		}
	}
	return errors.Wrap(scanner.Err(), "osm: pass 3 (edges)")
}

// onewayDirections maps the oneway tag to (forward, backward) emission.
func onewayDirections(tag string) (forward, backward bool) {
	switch tag {
	case "yes", "true", "1":
		return true, false
	case "-1":
		return false, true
	default:
		return true, true
	}
}

// emitWay walks a routable way's node refs, cutting it into edges at
// routing vertices.
func (c *compiler) emitWay(w *osm.Way, refs []int) error {
	forward, backward := onewayDirections(w.Tags.Find("oneway"))
	name := w.Tags.Find("name")
	speedKmh := highwaySpeedsKmh[w.Tags.Find("highway")]

	// Find the first routing vertex on the way.
	first := 0
	for first < len(refs) && c.nodeToVertex[refs[first]] < 0 {
		first++
	}
	if first >= len(refs) {
		return nil
	}

	startV := c.nodeToVertex[refs[first]]
	var accum float64
	segLons := []float64{c.nodeLon[refs[first]]}
	segLats := []float64{c.nodeLat[refs[first]]}

	for i := first + 1; i < len(refs); i++ {
		prev, cur := refs[i-1], refs[i]
		accum += geo.Haversine(c.nodeLat[prev], c.nodeLon[prev], c.nodeLat[cur], c.nodeLon[cur])
		segLons = append(segLons, c.nodeLon[cur])
		segLats = append(segLats, c.nodeLat[cur])

		endV := c.nodeToVertex[cur]
		if endV < 0 {
			continue
		}
		if endV == startV {
			// Degenerate same-vertex run; restart the segment here.
			accum = 0
			segLons = []float64{c.nodeLon[cur]}
			segLats = []float64{c.nodeLat[cur]}
			continue
		}

		if forward {
			if err := c.emitEdge(startV, endV, accum, name, speedKmh, segLons, segLats, false); err != nil {
				return err
			}
		}
		if backward {
			if err := c.emitEdge(endV, startV, accum, name, speedKmh, segLons, segLats, true); err != nil {
				return err
			}
		}

		startV = endV
		accum = 0
		segLons = []float64{c.nodeLon[cur]}
		segLats = []float64{c.nodeLat[cur]}
	}

	return nil
}

func (c *compiler) emitEdge(from, to int, dist float64, name string, speedKmh float64, lons, lats []float64, reversed bool) error {
	id, err := c.graph.AddEdge(from, to, 0)
	if err != nil {
		return errors.Wrap(err, "osm: emit edge")
	}
	c.attrs.SetEdgeCount(c.graph.E())

	var xs, ys []float64
	if reversed {
		xs = reverseCopy(lons)
		ys = reverseCopy(lats)
	} else {
		xs = append([]float64(nil), lons...)
		ys = append([]float64(nil), lats...)
	}
	if err := c.geom.AppendEdge(xs, ys); err != nil {
		return errors.Wrap(err, "osm: edge geometry")
	}

	if err := c.attrs.SetDistance(id, dist); err != nil {
		return err
	}
	if speedKmh > 0 {
		if err := c.attrs.SetTime(id, dist/(speedKmh/3.6)); err != nil {
			return err
		}
	}
	if name != "" {
		if err := c.attrs.SetStreetName(id, name); err != nil {
			return err
		}
	}
	return nil
}

func reverseCopy(s []float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
