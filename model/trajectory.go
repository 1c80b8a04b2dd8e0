package model

import (
	"errors"
	"fmt"

	"github.com/sfunderbots/robocore/geom"
)

var ErrShortTrajectory = errors.New("trajectory needs at least two points")

// Trajectory is a planned path for one robot. It is replaced wholesale when
// a new one is planned, never edited in place. Dribble and the auto kick
// settings are carried through to the robot but not computed by the planner.
type Trajectory struct {
	Points           []geom.Point `json:"points"`
	FinalOrientation geom.Angle   `json:"final_orientation"`
	Dribble          bool         `json:"dribble,omitempty"`
	AutokickSpeed    *float64     `json:"autokick_speed,omitempty"`
	AutochipDistance *float64     `json:"autochip_distance,omitempty"`
}

func (t Trajectory) Validate() error {
	if len(t.Points) < 2 {
		return fmt.Errorf("%w: got %d", ErrShortTrajectory, len(t.Points))
	}
	return nil
}

// Final is the last waypoint. It panics on an empty trajectory, which
// Validate rules out.
func (t Trajectory) Final() geom.Point { return t.Points[len(t.Points)-1] }

// Trajectories maps robot id to the trajectory that robot should follow.
type Trajectories map[int]Trajectory
