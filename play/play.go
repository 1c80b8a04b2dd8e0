// Package play selects the team-level strategy for the current match phase
// and turns it into requested tactics each tick.
package play

import (
	"fmt"

	"github.com/expr-lang/expr/vm"
	"github.com/sfunderbots/robocore/geom"
	"github.com/sfunderbots/robocore/model"
	"github.com/sfunderbots/robocore/tactic"
)

// Kind is the closed set of plays, in selection order.
type Kind int

const (
	Halt Kind = iota
	Stop
	Defense
)

func (k Kind) String() string {
	switch k {
	case Halt:
		return "Halt"
	case Stop:
		return "Stop"
	case Defense:
		return "Defense"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Definition pairs a play with the expr sources deciding when it may start
// and when it may keep running. Sources are evaluated against Env.
type Definition struct {
	Kind           Kind
	CanStartSrc    string
	CanContinueSrc string

	canStart    *vm.Program
	canContinue *vm.Program
}

// Definitions is the play catalogue in declaration order. The selector tries
// candidates in exactly this order.
func Definitions() []*Definition {
	return []*Definition{
		{Kind: Halt, CanStartSrc: "Halted()", CanContinueSrc: "Halted()"},
		{Kind: Stop, CanStartSrc: "Stopped()", CanContinueSrc: "Stopped()"},
		{Kind: Defense, CanStartSrc: "Playing()", CanContinueSrc: "Playing()"},
	}
}

// State is selector-owned memory that persists across ticks and is visible
// to play bodies.
type State struct {
	// EnemyMaxSpeed is the fastest enemy speed seen so far, in m/s.
	EnemyMaxSpeed float64
}

func newState() State {
	return State{EnemyMaxSpeed: 1.0}
}

// stopRadius is how far robots keep from the ball during a stop.
const stopRadius = 1.0

func run(k Kind, w model.World, _ State) tactic.Requested {
	switch k {
	case Halt:
		robots := w.Friendly.AllRobots()
		greedy := make([]tactic.Tactic, len(robots))
		for i := range robots {
			greedy[i] = tactic.Stop()
		}
		return tactic.Requested{Greedy: greedy}
	case Stop:
		return tactic.Requested{Greedy: stopFormation(w.Ball.Position, w.Friendly.Len())}
	case Defense:
		return tactic.Requested{}
	}
	panic(fmt.Sprintf("play: unhandled kind %v", k))
}

// stopFormation spaces n move tactics evenly on a circle around the ball,
// counter-clockwise from angle zero.
func stopFormation(ball geom.Point, n int) []tactic.Tactic {
	if n == 0 {
		return nil
	}
	step := geom.Full().Div(float64(n))
	out := make([]tactic.Tactic, n)
	for i := range out {
		p := ball.Add(geom.FromAngle(step.Mul(float64(i)), stopRadius))
		out[i] = tactic.Move(p, geom.Zero())
	}
	return out
}
