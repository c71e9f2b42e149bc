package routing

import (
	"fmt"
	"math"
	"strings"

	"way_router/pkg/graph"
)

// Maneuver is the kind of a turn-by-turn instruction.
type Maneuver int

const (
	ManeuverStart Maneuver = iota
	ManeuverContinue
	ManeuverLeft
	ManeuverRight
	ManeuverKeepLeft
	ManeuverKeepRight
	ManeuverArrive
)

// UnnamedStreet stands in for roads without a name tag.
const UnnamedStreet = "unnamed road"

// Instruction is one maneuver of the turn-by-turn stream. DistanceMeters
// is the distance accumulated since the previous instruction.
type Instruction struct {
	Kind           Maneuver
	Street         string
	DistanceMeters float64
}

// String renders the instruction in its user-facing form. Distances under
// one meter are omitted.
func (in Instruction) String() string {
	withDist := func(s string) string {
		if in.DistanceMeters < 1 {
			return s
		}
		return fmt.Sprintf("%s for %.0f m", s, in.DistanceMeters)
	}
	switch in.Kind {
	case ManeuverStart:
		return "Start on " + in.Street
	case ManeuverContinue:
		return withDist("Continue on " + in.Street)
	case ManeuverLeft:
		return withDist("Turn left onto " + in.Street)
	case ManeuverRight:
		return withDist("Turn right onto " + in.Street)
	case ManeuverKeepLeft:
		return withDist("Keep left on " + in.Street)
	case ManeuverKeepRight:
		return withDist("Keep right on " + in.Street)
	case ManeuverArrive:
		return "You have arrived"
	}
	return ""
}

// InstructionOptions tunes maneuver emission.
type InstructionOptions struct {
	// TurnAngleDeg is the minimum absolute turn angle for a Left/Right (or
	// KeepLeft/KeepRight) rather than a Continue.
	TurnAngleDeg float64
	// MinAdvanceMeters suppresses sharp-bend emissions closer together
	// than this.
	MinAdvanceMeters float64
	// EmitSharpBends emits KeepLeft/KeepRight on sharp bends where the
	// street name does not change.
	EmitSharpBends bool
}

// DefaultInstructionOptions returns the standard tuning.
func DefaultInstructionOptions() InstructionOptions {
	return InstructionOptions{
		TurnAngleDeg:     50,
		MinAdvanceMeters: 120,
		EmitSharpBends:   true,
	}
}

// GenerateInstructions derives the maneuver stream for a route's edge
// sequence from edge geometry and street names. An empty route yields an
// empty list.
func GenerateInstructions(geom *graph.EdgeGeometry, attrs *graph.EdgeAttributes, edgeIDs []int, opts InstructionOptions) ([]Instruction, error) {
	if len(edgeIDs) == 0 {
		return nil, nil
	}

	street := func(e int) string {
		name, ok := attrs.StreetName(e)
		if !ok || name == "" {
			return UnnamedStreet
		}
		return name
	}

	out := []Instruction{{Kind: ManeuverStart, Street: street(edgeIDs[0])}}
	current := street(edgeIDs[0])
	var accum float64

	for i := 0; i+1 < len(edgeIDs); i++ {
		accum += attrs.Distance(edgeIDs[i])

		theta, err := turnAngle(geom, edgeIDs[i], edgeIDs[i+1])
		if err != nil {
			return nil, err
		}
		absDeg := math.Abs(theta) * 180 / math.Pi

		next := street(edgeIDs[i+1])
		if !strings.EqualFold(next, current) {
			kind := ManeuverContinue
			if absDeg >= opts.TurnAngleDeg {
				if theta > 0 {
					kind = ManeuverLeft
				} else {
					kind = ManeuverRight
				}
			}
			out = append(out, Instruction{Kind: kind, Street: next, DistanceMeters: accum})
			accum = 0
			current = next
			continue
		}

		if opts.EmitSharpBends && absDeg >= opts.TurnAngleDeg && accum >= opts.MinAdvanceMeters {
			kind := ManeuverKeepRight
			if theta > 0 {
				kind = ManeuverKeepLeft
			}
			out = append(out, Instruction{Kind: kind, Street: current, DistanceMeters: accum})
			accum = 0
		}
	}

	accum += attrs.Distance(edgeIDs[len(edgeIDs)-1])
	out = append(out, Instruction{Kind: ManeuverArrive, DistanceMeters: accum})
	return out, nil
}

// turnAngle returns the signed angle in radians between the last segment
// of edge a and the first segment of edge b. Positive is a left turn.
func turnAngle(geom *graph.EdgeGeometry, a, b int) (float64, error) {
	ax, ay, err := geom.Points(a)
	if err != nil {
		return 0, err
	}
	bx, by, err := geom.Points(b)
	if err != nil {
		return 0, err
	}

	n := len(ax)
	v1x := ax[n-1] - ax[n-2]
	v1y := ay[n-1] - ay[n-2]
	v2x := bx[1] - bx[0]
	v2y := by[1] - by[0]

	cross := v1x*v2y - v1y*v2x
	dot := v1x*v2x + v1y*v2y
	return math.Atan2(cross, dot), nil
}
