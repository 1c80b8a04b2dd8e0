// Package tactic defines the atomic per-robot behaviours a play can request.
package tactic

import (
	"fmt"

	"github.com/sfunderbots/robocore/geom"
	"github.com/sfunderbots/robocore/model"
	"github.com/sfunderbots/robocore/motion"
)

type Kind int

const (
	KindStop Kind = iota
	KindMove
)

func (k Kind) String() string {
	switch k {
	case KindStop:
		return "stop"
	case KindMove:
		return "move"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

const stopCost = 0.5

// Tactic is a closed set of behaviours. Target and Orientation are only
// meaningful for KindMove.
type Tactic struct {
	Kind        Kind
	Target      geom.Point
	Orientation geom.Angle
}

// Stop asks the robot to hold its position.
func Stop() Tactic { return Tactic{Kind: KindStop} }

// Move asks the robot to drive to p and face o.
func Move(p geom.Point, o geom.Angle) Tactic {
	return Tactic{Kind: KindMove, Target: p, Orientation: o}
}

// Cost is the non-negative price of giving this tactic to r.
func (t Tactic) Cost(r model.Robot) float64 {
	switch t.Kind {
	case KindStop:
		return stopCost
	case KindMove:
		return r.State.Position.DistanceTo(t.Target)
	}
	panic(fmt.Sprintf("tactic: unhandled kind %v", t.Kind))
}

// Plan produces the trajectory r should follow for this tactic.
func (t Tactic) Plan(r model.Robot) model.Trajectory {
	switch t.Kind {
	case KindStop:
		return motion.StoppingTrajectory(r.State)
	case KindMove:
		return motion.StraightLine(r.State, t.Target, t.Orientation)
	}
	panic(fmt.Sprintf("tactic: unhandled kind %v", t.Kind))
}

func (t Tactic) String() string {
	if t.Kind == KindMove {
		return fmt.Sprintf("move(%.2f,%.2f @ %v)", t.Target.X, t.Target.Y, t.Orientation)
	}
	return t.Kind.String()
}
