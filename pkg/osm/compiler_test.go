package osm

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"way_router/pkg/geo"
)

// wayXML renders a <way> with node refs and tags (key, value pairs).
func wayXML(id int, refs []int, tags ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<way id="%d">`, id)
	for _, r := range refs {
		fmt.Fprintf(&b, `<nd ref="%d"/>`, r)
	}
	for i := 0; i+1 < len(tags); i += 2 {
		fmt.Fprintf(&b, `<tag k="%s" v="%s"/>`, tags[i], tags[i+1])
	}
	b.WriteString(`</way>`)
	return b.String()
}

func nodeXML(id int, lat, lon float64) string {
	return fmt.Sprintf(`<node id="%d" lat="%f" lon="%f"/>`, id, lat, lon)
}

func extract(parts ...string) *strings.Reader {
	return strings.NewReader(`<osm>` + strings.Join(parts, "") + `</osm>`)
}

func compileString(t *testing.T, rs *strings.Reader, opts ...Options) *Network {
	t.Helper()
	n, err := Compile(context.Background(), rs, opts...)
	require.NoError(t, err)
	return n
}

// A straight residential street with an interior shape node: nodes 1-2-3,
// where 2 is neither endpoint nor shared, so it stays geometry-only.
func simpleWay() *strings.Reader {
	return extract(
		nodeXML(1, 1.300, 103.800),
		nodeXML(2, 1.300, 103.801),
		nodeXML(3, 1.300, 103.802),
		wayXML(100, []int{1, 2, 3}, "highway", "residential", "name", "Elm Street"),
	)
}

func TestCompileSimpleWay(t *testing.T) {
	n := compileString(t, simpleWay())

	// Only the endpoints become routing vertices.
	require.Equal(t, 2, n.Graph.V())
	// Bidirectional: two edges.
	require.Equal(t, 2, n.Graph.E())

	// Attribute and geometry stores track the graph.
	assert.Equal(t, n.Graph.E(), n.Attrs.EdgeCount())
	assert.Equal(t, n.Graph.E(), n.Geom.EdgeCount())
	assert.NoError(t, n.Geom.CheckInvariants(n.Graph.E()))

	// Distance is the haversine sum over both spans, same both ways.
	want := geo.Haversine(1.300, 103.800, 1.300, 103.801) +
		geo.Haversine(1.300, 103.801, 1.300, 103.802)
	assert.InDelta(t, want, n.Attrs.Distance(0), 1e-9)
	assert.InDelta(t, want, n.Attrs.Distance(1), 1e-9)

	// Residential speed table entry: 30 km/h.
	assert.InDelta(t, want/(30.0/3.6), n.Attrs.Time(0), 1e-9)

	name, ok := n.Attrs.StreetName(0)
	require.True(t, ok)
	assert.Equal(t, "Elm Street", name)

	// Polyline endpoints coincide with the edge's vertices, and the interior
	// shape node is preserved.
	e0, err := n.Graph.EdgeByID(0)
	require.NoError(t, err)
	xs, ys, err := n.Geom.Points(0)
	require.NoError(t, err)
	require.Len(t, xs, 3)
	assert.Equal(t, n.Lons[e0.From()], xs[0])
	assert.Equal(t, n.Lats[e0.From()], ys[0])
	assert.Equal(t, n.Lons[e0.To()], xs[len(xs)-1])
	assert.Equal(t, n.Lats[e0.To()], ys[len(ys)-1])
	assert.Equal(t, 103.801, xs[1])
}

func TestReverseEdgeGeometryIsReversed(t *testing.T) {
	n := compileString(t, simpleWay())

	fx, _, err := n.Geom.Points(0)
	require.NoError(t, err)
	bx, _, err := n.Geom.Points(1)
	require.NoError(t, err)

	require.Len(t, bx, len(fx))
	for i := range fx {
		assert.Equal(t, fx[i], bx[len(bx)-1-i])
	}
}

func TestVertexCriterion(t *testing.T) {
	// Two ways crossing at node 3: 1-2-3 and 3-4-5 plus a way 6-2-7 sharing
	// node 2. Endpoints 1,3,5,6,7 and shared nodes 2,3 become vertices;
	// node 4 does not.
	rs := extract(
		nodeXML(1, 1.0, 103.0),
		nodeXML(2, 1.0, 103.001),
		nodeXML(3, 1.0, 103.002),
		nodeXML(4, 1.0, 103.003),
		nodeXML(5, 1.0, 103.004),
		nodeXML(6, 1.001, 103.001),
		nodeXML(7, 0.999, 103.001),
		wayXML(100, []int{1, 2, 3}, "highway", "residential"),
		wayXML(101, []int{3, 4, 5}, "highway", "residential"),
		wayXML(102, []int{6, 2, 7}, "highway", "residential"),
	)
	n := compileString(t, rs)

	// 1, 2, 3, 5, 6, 7 are vertices; 4 is interior geometry.
	assert.Equal(t, 6, n.Graph.V())

	// Way 100 splits at 2: runs 1-2 and 2-3. Way 101 is one run. Way 102
	// splits at 2. All bidirectional: (2+1+2)*2 edges.
	assert.Equal(t, 10, n.Graph.E())
}

func TestOnewaySemantics(t *testing.T) {
	base := func(onewayTag string) *strings.Reader {
		tags := []string{"highway", "primary"}
		if onewayTag != "" {
			tags = append(tags, "oneway", onewayTag)
		}
		return extract(
			nodeXML(1, 1.0, 103.0),
			nodeXML(2, 1.0, 103.001),
			wayXML(100, []int{1, 2}, tags...),
		)
	}

	for _, tag := range []string{"yes", "true", "1"} {
		n := compileString(t, base(tag))
		require.Equal(t, 1, n.Graph.E(), "oneway=%s", tag)
		e, _ := n.Graph.EdgeByID(0)
		assert.Equal(t, 0, e.From())
		assert.Equal(t, 1, e.To())
	}

	for _, tag := range []string{"", "no", "anything"} {
		n := compileString(t, base(tag))
		assert.Equal(t, 2, n.Graph.E(), "oneway=%q", tag)
	}
}

func TestOnewayReverse(t *testing.T) {
	// oneway=-1 over a-b-c where all three are vertices (b shared with a
	// crossing way): emits c→b and b→a only.
	rs := extract(
		nodeXML(1, 1.0, 103.0),
		nodeXML(2, 1.0, 103.001),
		nodeXML(3, 1.0, 103.002),
		nodeXML(4, 1.001, 103.001),
		wayXML(100, []int{1, 2, 3}, "highway", "primary", "oneway", "-1"),
		wayXML(101, []int{2, 4}, "highway", "residential"),
	)
	n := compileString(t, rs)

	type pair struct{ from, to int }
	var got []pair
	for _, e := range n.Graph.Edges() {
		got = append(got, pair{e.From(), e.To()})
	}

	// Vertices in node order: 1→0, 2→1, 3→2, 4→3.
	assert.Contains(t, got, pair{1, 0}) // b→a
	assert.Contains(t, got, pair{2, 1}) // c→b
	assert.NotContains(t, got, pair{0, 1})
	assert.NotContains(t, got, pair{1, 2})
}

func TestNonRoutableWaysSkipped(t *testing.T) {
	rs := extract(
		nodeXML(1, 1.0, 103.0),
		nodeXML(2, 1.0, 103.001),
		wayXML(100, []int{1, 2}, "highway", "footway"),
		wayXML(101, []int{1, 2}, "building", "yes"),
		wayXML(102, []int{1}, "highway", "residential"),
	)
	n := compileString(t, rs)
	assert.Equal(t, 0, n.Graph.V())
	assert.Equal(t, 0, n.Graph.E())
}

func TestDegenerateLoopSkipped(t *testing.T) {
	// A way looping back to its start vertex without an intermediate vertex
	// must not emit a self-loop edge.
	rs := extract(
		nodeXML(1, 1.0, 103.0),
		nodeXML(2, 1.0, 103.001),
		nodeXML(3, 1.001, 103.001),
		wayXML(100, []int{1, 2, 3, 1}, "highway", "residential"),
	)
	n := compileString(t, rs)

	for _, e := range n.Graph.Edges() {
		assert.NotEqual(t, e.From(), e.To())
	}
}

func TestDuplicateNodeIsCompileError(t *testing.T) {
	rs := extract(
		nodeXML(1, 1.0, 103.0),
		nodeXML(1, 2.0, 104.0),
	)
	_, err := Compile(context.Background(), rs)
	assert.ErrorIs(t, err, ErrDuplicateNode)
}

func TestMissingNodeIsCompileError(t *testing.T) {
	rs := extract(
		nodeXML(1, 1.0, 103.0),
		wayXML(100, []int{1, 99}, "highway", "residential"),
	)
	_, err := Compile(context.Background(), rs)
	assert.ErrorIs(t, err, ErrMissingNode)
}

func TestLargestComponentOption(t *testing.T) {
	// Two disconnected streets; the longer one wins.
	rs := extract(
		nodeXML(1, 1.0, 103.0),
		nodeXML(2, 1.0, 103.001),
		nodeXML(3, 1.0, 103.002),
		nodeXML(4, 2.0, 103.0),
		nodeXML(5, 2.0, 103.001),
		wayXML(100, []int{1, 2}, "highway", "residential", "name", "Long Road"),
		wayXML(101, []int{2, 3}, "highway", "residential", "name", "Long Road"),
		wayXML(102, []int{4, 5}, "highway", "residential", "name", "Short Road"),
	)
	n := compileString(t, rs, Options{LargestComponent: true})

	assert.Equal(t, 3, n.Graph.V())
	assert.Equal(t, 4, n.Graph.E())
	assert.Equal(t, n.Graph.E(), n.Attrs.EdgeCount())
	assert.NoError(t, n.Geom.CheckInvariants(n.Graph.E()))

	for i := 0; i < n.Graph.E(); i++ {
		name, ok := n.Attrs.StreetName(i)
		require.True(t, ok)
		assert.Equal(t, "Long Road", name)
	}
}
