// Package motion plans trajectories for assigned tactics and tracks them with
// a per-robot velocity controller.
package motion

import (
	"github.com/sfunderbots/robocore/geom"
	"github.com/sfunderbots/robocore/model"
)

// StoppingTrajectory holds the robot where it is. The final orientation is
// zero rather than the robot's current heading.
func StoppingTrajectory(state model.KinematicState) model.Trajectory {
	return model.Trajectory{
		Points:           []geom.Point{state.Position, state.Position},
		FinalOrientation: geom.Zero(),
	}
}

// StraightLine goes directly from the current position to target.
func StraightLine(state model.KinematicState, target geom.Point, orientation geom.Angle) model.Trajectory {
	return model.Trajectory{
		Points:           []geom.Point{state.Position, target},
		FinalOrientation: orientation,
	}
}
