package assign

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sfunderbots/robocore/geom"
	"github.com/sfunderbots/robocore/model"
	"github.com/sfunderbots/robocore/tactic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var angleEqual = cmp.Comparer(func(a, b geom.Angle) bool { return a.ApproxEqual(b) })

func robotAt(id int, x, y float64) model.Robot {
	return model.Robot{ID: id, State: model.KinematicState{Position: geom.Point{X: x, Y: y}}}
}

func moveTo(x, y float64) tactic.Tactic {
	return tactic.Move(geom.Point{X: x, Y: y}, geom.Zero())
}

func TestGreedyTakesCheapestInListOrder(t *testing.T) {
	robots := []model.Robot{robotAt(0, 0, 0), robotAt(1, 1, 0), robotAt(2, 5, 0)}
	req := tactic.Requested{Greedy: []tactic.Tactic{moveTo(0.9, 0), moveTo(0.5, 0)}}

	res := Tactics(req, robots)

	// The first tactic claims robot 1 even though robot 0 would be a better
	// global fit for the second.
	want := map[int]tactic.Tactic{1: moveTo(0.9, 0), 0: moveTo(0.5, 0)}
	if diff := cmp.Diff(want, res.Assignment, angleEqual); diff != "" {
		t.Errorf("assignment mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, res.Warnings)
}

func TestGreedyTiesGoToLowestID(t *testing.T) {
	robots := []model.Robot{robotAt(7, 3, 3), robotAt(2, -3, -3), robotAt(4, 1, 1)}
	req := tactic.Requested{Greedy: []tactic.Tactic{tactic.Stop()}}

	res := Tactics(req, robots)
	assert.Equal(t, map[int]tactic.Tactic{2: tactic.Stop()}, res.Assignment)
}

func TestGreedyPoolExhausted(t *testing.T) {
	robots := []model.Robot{robotAt(0, 0, 0)}
	req := tactic.Requested{Greedy: []tactic.Tactic{tactic.Stop(), tactic.Stop(), moveTo(1, 1)}}

	res := Tactics(req, robots)
	assert.Len(t, res.Assignment, 1)
	require.Len(t, res.Warnings, 1)
	assert.ErrorIs(t, res.Warnings[0], ErrPoolExhausted)
}

func TestOptimizedFindsGlobalMinimum(t *testing.T) {
	// Greedy would send robot 0 to (1,0) and robot 1 a long way to (-1,0).
	robots := []model.Robot{robotAt(0, 0.1, 0), robotAt(1, 2, 0)}
	req := tactic.Requested{Optimized: []tactic.Tactic{moveTo(1, 0), moveTo(-1, 0)}}

	res := Tactics(req, robots)
	want := map[int]tactic.Tactic{0: moveTo(-1, 0), 1: moveTo(1, 0)}
	if diff := cmp.Diff(want, res.Assignment, angleEqual); diff != "" {
		t.Errorf("assignment mismatch (-want +got):\n%s", diff)
	}
}

func TestOptimizedTruncatesExcess(t *testing.T) {
	robots := []model.Robot{robotAt(0, 0, 0), robotAt(1, 1, 0), robotAt(2, 2, 0)}
	req := tactic.Requested{
		Greedy:    []tactic.Tactic{moveTo(0, 0)},
		Optimized: []tactic.Tactic{moveTo(2, 0), moveTo(1, 0), moveTo(9, 9)},
	}

	res := Tactics(req, robots)
	want := map[int]tactic.Tactic{0: moveTo(0, 0), 1: moveTo(1, 0), 2: moveTo(2, 0)}
	if diff := cmp.Diff(want, res.Assignment, angleEqual); diff != "" {
		t.Errorf("assignment mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, res.Warnings, 1)
	assert.ErrorIs(t, res.Warnings[0], ErrTooManyOptimized)
}

func TestOptimizedSolverFailureAssignsNothing(t *testing.T) {
	robots := []model.Robot{robotAt(0, 0, 0), robotAt(1, 1, 0)}
	req := tactic.Requested{
		Greedy:    []tactic.Tactic{tactic.Stop()},
		Optimized: []tactic.Tactic{moveTo(math.Inf(1), 0)},
	}

	res := Tactics(req, robots)
	assert.Len(t, res.Assignment, 1)
	require.Len(t, res.Warnings, 1)
	assert.ErrorIs(t, res.Warnings[0], ErrInfeasible)
}

func TestAssignmentInjectiveAndSized(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 200; trial++ {
		var robots []model.Robot
		for id := range rng.IntN(8) {
			robots = append(robots, robotAt(id, rng.Float64()*9-4.5, rng.Float64()*6-3))
		}
		var req tactic.Requested
		for range rng.IntN(6) {
			req.Greedy = append(req.Greedy, randomTactic(rng))
		}
		for range rng.IntN(6) {
			req.Optimized = append(req.Optimized, randomTactic(rng))
		}

		res := Tactics(req, robots)

		greedyN := min(len(req.Greedy), len(robots))
		wantN := greedyN + min(len(req.Optimized), len(robots)-greedyN)
		if len(res.Assignment) != wantN {
			t.Fatalf("trial %d: %d robots, %d greedy, %d optimized: got %d assignments, want %d",
				trial, len(robots), len(req.Greedy), len(req.Optimized), len(res.Assignment), wantN)
		}
		for id := range res.Assignment {
			if id < 0 || id >= len(robots) {
				t.Fatalf("trial %d: assigned unknown robot %d", trial, id)
			}
		}
	}
}

func randomTactic(rng *rand.Rand) tactic.Tactic {
	if rng.IntN(3) == 0 {
		return tactic.Stop()
	}
	return moveTo(rng.Float64()*9-4.5, rng.Float64()*6-3)
}
