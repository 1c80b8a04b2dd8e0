// Package assign hands a play's requested tactics out to robots: greedy
// tactics first, in request order, then the optimized tactics jointly via
// minimum-cost matching.
package assign

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/sfunderbots/robocore/model"
	"github.com/sfunderbots/robocore/tactic"
)

// Recoverable conditions. They end up in Result.Warnings; none of them stop
// the tick.
var (
	ErrPoolExhausted    = errors.New("robot pool exhausted before all greedy tactics were assigned")
	ErrTooManyOptimized = errors.New("more optimized tactics than remaining robots")
	ErrInfeasible       = errors.New("optimal assignment infeasible")
)

type Result struct {
	// Assignment maps robot id to its tactic. No robot appears twice.
	Assignment map[int]tactic.Tactic
	Warnings   []error
}

// Tactics assigns req to robots. Robots are considered in ascending id order
// so ties in the greedy pass go to the lowest id.
func Tactics(req tactic.Requested, robots []model.Robot) Result {
	res := Result{Assignment: make(map[int]tactic.Tactic, req.Len())}

	pool := slices.Clone(robots)
	slices.SortFunc(pool, func(a, b model.Robot) int { return cmp.Compare(a.ID, b.ID) })
	pool = slices.CompactFunc(pool, func(a, b model.Robot) bool { return a.ID == b.ID })

	pool = greedy(req.Greedy, pool, &res)
	optimal(req.Optimized, pool, &res)
	return res
}

// greedy assigns each tactic in turn to its cheapest robot and returns the
// robots left over.
func greedy(tactics []tactic.Tactic, pool []model.Robot, res *Result) []model.Robot {
	for i, t := range tactics {
		if len(pool) == 0 {
			res.Warnings = append(res.Warnings,
				fmt.Errorf("%w: %d of %d left unassigned", ErrPoolExhausted, len(tactics)-i, len(tactics)))
			break
		}
		best := 0
		bestCost := t.Cost(pool[0])
		for j := 1; j < len(pool); j++ {
			if c := t.Cost(pool[j]); c < bestCost {
				best, bestCost = j, c
			}
		}
		res.Assignment[pool[best].ID] = t
		pool = slices.Delete(pool, best, best+1)
	}
	return pool
}

// optimal matches tactics against the remaining robots. Excess tactics are
// dropped, not deferred to the next tick.
func optimal(tactics []tactic.Tactic, pool []model.Robot, res *Result) {
	if len(tactics) > len(pool) {
		res.Warnings = append(res.Warnings,
			fmt.Errorf("%w: dropping %d of %d", ErrTooManyOptimized, len(tactics)-len(pool), len(tactics)))
		tactics = tactics[:len(pool)]
	}
	if len(tactics) == 0 || len(pool) == 0 {
		return
	}

	costs := make([][]float64, len(tactics))
	for i, t := range tactics {
		costs[i] = make([]float64, len(pool))
		for j, r := range pool {
			costs[i][j] = t.Cost(r)
		}
	}

	match, err := Hungarian(costs)
	if err != nil {
		res.Warnings = append(res.Warnings, err)
		return
	}
	for i, j := range match {
		if j >= 0 {
			res.Assignment[pool[j].ID] = tactics[i]
		}
	}
}
