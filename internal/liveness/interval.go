package liveness

import "sort"

// Range is a closed interval [Begin, End] of instruction indices over
// which a variable is live.
type Range struct {
	Begin int
	End   int
}

// livePoint pairs a variable with an instruction index it is live at,
// mirroring the (name, index) pairs the original collects into a sorted
// multimap before coalescing.
type livePoint struct {
	Var   string
	Point int
}

// ComputeLiveRanges collects every (variable, index) pair present in either
// the IN or OUT set of each node and coalesces consecutive indices per
// variable into closed intervals. Points are sorted by variable, then by
// index, so a run of indices differing by at most 1 for the same variable
// merges into a single Range exactly as the original's multimap walk does.
func ComputeLiveRanges(sets Sets) map[string][]Range {
	var points []livePoint
	for node, vars := range sets.In {
		for v := range vars {
			points = append(points, livePoint{Var: v, Point: node})
		}
	}
	for node, vars := range sets.Out {
		for v := range vars {
			points = append(points, livePoint{Var: v, Point: node})
		}
	}
	if len(points) == 0 {
		return map[string][]Range{}
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].Var != points[j].Var {
			return points[i].Var < points[j].Var
		}
		return points[i].Point < points[j].Point
	})

	out := map[string][]Range{}
	previousVar := points[0].Var
	begin := points[0].Point
	previous := points[0].Point

	for i, p := range points {
		if p.Point-previous > 1 || p.Var != previousVar {
			out[previousVar] = append(out[previousVar], Range{Begin: begin, End: previous})
			begin = p.Point
			previousVar = p.Var
		}
		if i == len(points)-1 {
			out[previousVar] = append(out[previousVar], Range{Begin: begin, End: p.Point})
		}
		previous = p.Point
	}
	return out
}
