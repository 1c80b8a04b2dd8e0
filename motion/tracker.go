package motion

import (
	"math"

	"github.com/sfunderbots/robocore/geom"
	"github.com/sfunderbots/robocore/model"
)

// Position errors below this produce zero translational velocity.
const positionDeadband = 1e-3

// TrackerConfig holds the controller tunables. Read from a config snapshot
// once per control tick.
type TrackerConfig struct {
	ProportionalGain float64
	MaxSpeed         float64
	ArrivalTolerance float64
}

func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		ProportionalGain: 2.5,
		MaxSpeed:         3.0,
		ArrivalTolerance: 0.1,
	}
}

// Command is a local-frame velocity command for one robot.
type Command struct {
	ID      int     `json:"id"`
	Forward float64 `json:"forward"`
	Left    float64 `json:"left"`
	Angular float64 `json:"angular"`
}

// Tracker is the closed-loop controller for a single robot. Trajectory and
// state updates arrive independently and Run always works from the latest
// of each. Not safe for concurrent use; the backend owns one per robot.
type Tracker struct {
	id         int
	state      *model.KinematicState
	trajectory *model.Trajectory
	pending    []geom.Point
	target     *geom.Point
}

func NewTracker(id int) *Tracker {
	return &Tracker{id: id}
}

func (t *Tracker) ID() int { return t.id }

// UpdateTrajectory replaces the trajectory and rebuilds the waypoint queue.
// Only the final waypoint is queued: the first point is always the robot's
// position at planning time and tracking it makes the robot stutter on every
// replan.
func (t *Tracker) UpdateTrajectory(tr model.Trajectory) {
	t.trajectory = &tr
	t.pending = t.pending[:0]
	if n := len(tr.Points); n > 0 {
		t.pending = append(t.pending, tr.Points[n-1:]...)
	}
	t.target = nil
	if len(t.pending) > 0 {
		next := t.pending[0]
		t.pending = t.pending[1:]
		t.target = &next
	}
}

func (t *Tracker) UpdateState(s model.KinematicState) {
	t.state = &s
}

// Target is the waypoint currently being tracked.
func (t *Tracker) Target() (geom.Point, bool) {
	if t.target == nil {
		return geom.Point{}, false
	}
	return *t.target, true
}

// Run computes one control tick. It reports false until both a trajectory
// and a state have been received.
func (t *Tracker) Run(cfg TrackerConfig) (Command, bool) {
	if t.state == nil || t.trajectory == nil || t.target == nil {
		return Command{}, false
	}

	if t.state.Position.DistanceTo(*t.target) < cfg.ArrivalTolerance && len(t.pending) > 0 {
		next := t.pending[0]
		t.pending = t.pending[1:]
		t.target = &next
	}

	positionError := t.target.Sub(t.state.Position)
	speed := 0.0
	if dist := positionError.Length(); dist >= positionDeadband {
		speed = math.Min(dist*cfg.ProportionalGain, cfg.MaxSpeed)
	}
	local := positionError.Norm(speed).Rotate(t.state.Orientation.Neg())

	// Observed minus desired, divided by four and clamped at four full
	// turns, kept as-is from the tuned controller.
	limit := geom.Full().Mul(4)
	orientationError := t.state.Orientation.Sub(t.trajectory.FinalOrientation)
	angular := orientationError.Div(4).Clamp(limit.Neg(), limit)

	return Command{
		ID:      t.id,
		Forward: local.X,
		Left:    local.Y,
		Angular: angular.Radians(),
	}, true
}
