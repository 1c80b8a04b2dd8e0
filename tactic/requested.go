package tactic

// Requested is what a play asks for on one tick. Greedy tactics are handed
// out one at a time in list order, each to the cheapest remaining robot.
// Optimized tactics are matched jointly against whoever is left.
type Requested struct {
	Greedy    []Tactic
	Optimized []Tactic
}

func (r Requested) Len() int { return len(r.Greedy) + len(r.Optimized) }
