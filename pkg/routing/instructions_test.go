package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"way_router/pkg/graph"
)

// instructionFixture builds chained edges with the given polylines, names,
// and distances, and returns the stores plus the edge id sequence.
type fixtureEdge struct {
	xs, ys []float64
	name   string
	dist   float64
}

func instructionFixture(t *testing.T, edges []fixtureEdge) (*graph.EdgeGeometry, *graph.EdgeAttributes, []int) {
	t.Helper()
	geom := graph.NewEdgeGeometry()
	attrs := graph.NewEdgeAttributes(len(edges))
	attrs.SetEdgeCount(len(edges))

	ids := make([]int, len(edges))
	for i, e := range edges {
		require.NoError(t, geom.AppendEdge(e.xs, e.ys))
		require.NoError(t, attrs.SetDistance(i, e.dist))
		if e.name != "" {
			require.NoError(t, attrs.SetStreetName(i, e.name))
		}
		ids[i] = i
	}
	return geom, attrs, ids
}

func TestInstructionsSingleEdge(t *testing.T) {
	geom, attrs, ids := instructionFixture(t, []fixtureEdge{
		{xs: []float64{0, 100}, ys: []float64{0, 0}, name: "Main Street", dist: 100},
	})

	got, err := GenerateInstructions(geom, attrs, ids, DefaultInstructionOptions())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, ManeuverStart, got[0].Kind)
	assert.Equal(t, "Main Street", got[0].Street)
	assert.Zero(t, got[0].DistanceMeters)

	assert.Equal(t, ManeuverArrive, got[1].Kind)
	assert.Equal(t, 100.0, got[1].DistanceMeters)
}

func TestInstructionsEmptyRoute(t *testing.T) {
	geom, attrs, _ := instructionFixture(t, []fixtureEdge{
		{xs: []float64{0, 1}, ys: []float64{0, 0}, dist: 1},
	})
	got, err := GenerateInstructions(geom, attrs, nil, DefaultInstructionOptions())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInstructionsLeftAndRightTurns(t *testing.T) {
	// East, then north (left 90°), then east again (right 90°).
	geom, attrs, ids := instructionFixture(t, []fixtureEdge{
		{xs: []float64{0, 100}, ys: []float64{0, 0}, name: "First", dist: 100},
		{xs: []float64{100, 100}, ys: []float64{0, 100}, name: "Second", dist: 100},
		{xs: []float64{100, 200}, ys: []float64{100, 100}, name: "Third", dist: 100},
	})

	got, err := GenerateInstructions(geom, attrs, ids, DefaultInstructionOptions())
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, ManeuverStart, got[0].Kind)

	assert.Equal(t, ManeuverLeft, got[1].Kind)
	assert.Equal(t, "Second", got[1].Street)
	assert.Equal(t, 100.0, got[1].DistanceMeters)

	assert.Equal(t, ManeuverRight, got[2].Kind)
	assert.Equal(t, "Third", got[2].Street)

	assert.Equal(t, ManeuverArrive, got[3].Kind)
}

func TestInstructionsContinueOnShallowNameChange(t *testing.T) {
	// 30° bend with a name change stays a Continue.
	geom, attrs, ids := instructionFixture(t, []fixtureEdge{
		{xs: []float64{0, 100}, ys: []float64{0, 0}, name: "Old Road", dist: 100},
		{xs: []float64{100, 186.6}, ys: []float64{0, 50}, name: "New Road", dist: 100},
	})

	got, err := GenerateInstructions(geom, attrs, ids, DefaultInstructionOptions())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ManeuverContinue, got[1].Kind)
	assert.Equal(t, "New Road", got[1].Street)
}

func TestInstructionsNameComparisonCaseInsensitive(t *testing.T) {
	geom, attrs, ids := instructionFixture(t, []fixtureEdge{
		{xs: []float64{0, 100}, ys: []float64{0, 0}, name: "High Street", dist: 100},
		{xs: []float64{100, 200}, ys: []float64{0, 0}, name: "HIGH STREET", dist: 100},
	})

	got, err := GenerateInstructions(geom, attrs, ids, DefaultInstructionOptions())
	require.NoError(t, err)
	// No name change, no bend: just Start and Arrive.
	require.Len(t, got, 2)
	assert.Equal(t, ManeuverArrive, got[1].Kind)
	assert.Equal(t, 200.0, got[1].DistanceMeters)
}

func TestInstructionsUnnamedSentinel(t *testing.T) {
	// Both edges unnamed: treated as the same street.
	geom, attrs, ids := instructionFixture(t, []fixtureEdge{
		{xs: []float64{0, 100}, ys: []float64{0, 0}, dist: 100},
		{xs: []float64{100, 200}, ys: []float64{0, 0}, dist: 100},
	})

	got, err := GenerateInstructions(geom, attrs, ids, DefaultInstructionOptions())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, UnnamedStreet, got[0].Street)
}

func TestInstructionsSharpBendKeep(t *testing.T) {
	// Same street, sharp bend after 200 m: KeepRight (turning south).
	geom, attrs, ids := instructionFixture(t, []fixtureEdge{
		{xs: []float64{0, 200}, ys: []float64{0, 0}, name: "Ridge Road", dist: 200},
		{xs: []float64{200, 200}, ys: []float64{0, -150}, name: "Ridge Road", dist: 150},
	})

	got, err := GenerateInstructions(geom, attrs, ids, DefaultInstructionOptions())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ManeuverKeepRight, got[1].Kind)
	assert.Equal(t, "Ridge Road", got[1].Street)
	assert.Equal(t, 200.0, got[1].DistanceMeters)
}

func TestInstructionsSharpBendSpamGuard(t *testing.T) {
	// Accumulated distance below the guard: the bend is swallowed.
	geom, attrs, ids := instructionFixture(t, []fixtureEdge{
		{xs: []float64{0, 50}, ys: []float64{0, 0}, name: "Ridge Road", dist: 50},
		{xs: []float64{50, 50}, ys: []float64{0, -150}, name: "Ridge Road", dist: 150},
	})

	got, err := GenerateInstructions(geom, attrs, ids, DefaultInstructionOptions())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ManeuverArrive, got[1].Kind)
}

func TestInstructionsSharpBendDisabled(t *testing.T) {
	geom, attrs, ids := instructionFixture(t, []fixtureEdge{
		{xs: []float64{0, 200}, ys: []float64{0, 0}, name: "Ridge Road", dist: 200},
		{xs: []float64{200, 200}, ys: []float64{0, -150}, name: "Ridge Road", dist: 150},
	})

	opts := DefaultInstructionOptions()
	opts.EmitSharpBends = false
	got, err := GenerateInstructions(geom, attrs, ids, opts)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestInstructionsDistanceCoverage(t *testing.T) {
	geom, attrs, ids := instructionFixture(t, []fixtureEdge{
		{xs: []float64{0, 120}, ys: []float64{0, 0}, name: "A", dist: 120},
		{xs: []float64{120, 120}, ys: []float64{0, 80}, name: "B", dist: 80},
		{xs: []float64{120, 120}, ys: []float64{80, 300}, name: "B", dist: 220},
		{xs: []float64{120, 20}, ys: []float64{300, 300}, name: "C", dist: 100},
	})

	got, err := GenerateInstructions(geom, attrs, ids, DefaultInstructionOptions())
	require.NoError(t, err)

	var wantSum float64
	for _, id := range ids {
		wantSum += attrs.Distance(id)
	}
	var gotSum float64
	for _, in := range got {
		gotSum += in.DistanceMeters
	}
	assert.InDelta(t, wantSum, gotSum, 1e-9)
}

func TestInstructionStrings(t *testing.T) {
	tests := []struct {
		in   Instruction
		want string
	}{
		{Instruction{Kind: ManeuverStart, Street: "Main Street"}, "Start on Main Street"},
		{Instruction{Kind: ManeuverContinue, Street: "Main Street", DistanceMeters: 250}, "Continue on Main Street for 250 m"},
		{Instruction{Kind: ManeuverLeft, Street: "Oak Lane", DistanceMeters: 80}, "Turn left onto Oak Lane for 80 m"},
		{Instruction{Kind: ManeuverRight, Street: "Oak Lane", DistanceMeters: 80}, "Turn right onto Oak Lane for 80 m"},
		{Instruction{Kind: ManeuverKeepLeft, Street: "Ridge Road", DistanceMeters: 140}, "Keep left on Ridge Road for 140 m"},
		{Instruction{Kind: ManeuverKeepRight, Street: "Ridge Road", DistanceMeters: 140}, "Keep right on Ridge Road for 140 m"},
		{Instruction{Kind: ManeuverArrive, DistanceMeters: 42}, "You have arrived"},
		// Distances under a meter are omitted.
		{Instruction{Kind: ManeuverContinue, Street: UnnamedStreet, DistanceMeters: 0.4}, "Continue on unnamed road"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())
	}
}
