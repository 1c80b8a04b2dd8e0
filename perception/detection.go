// Package perception assembles the world snapshot from referee packets and
// already-filtered detection frames. Filtering itself happens upstream.
package perception

import (
	"errors"
	"fmt"

	"github.com/sfunderbots/robocore/geom"
	"github.com/sfunderbots/robocore/model"
)

// ErrMissingField means a detection lacked a robot id or orientation. Every
// upstream filter sets both, so this is treated as fatal.
var ErrMissingField = errors.New("detection missing required field")

// RobotDetection is one filtered robot estimate. ID and Orientation are
// pointers so that an absent value can be told apart from zero.
type RobotDetection struct {
	ID              *int        `json:"id"`
	Position        geom.Point  `json:"position"`
	Orientation     *float64    `json:"orientation"`
	Velocity        geom.Vector `json:"velocity"`
	AngularVelocity float64     `json:"angular_velocity"`
}

// DetectionFrame is one vision update. Field and Ball are nil when the frame
// carries no geometry or no ball.
type DetectionFrame struct {
	CaptureTime float64          `json:"capture_time"`
	Field       *model.Field     `json:"field,omitempty"`
	Ball        *model.Ball      `json:"ball,omitempty"`
	Blue        []RobotDetection `json:"blue"`
	Yellow      []RobotDetection `json:"yellow"`
}

func (d RobotDetection) robot() (model.Robot, error) {
	if d.ID == nil {
		return model.Robot{}, fmt.Errorf("%w: robot id", ErrMissingField)
	}
	if d.Orientation == nil {
		return model.Robot{}, fmt.Errorf("%w: orientation of robot %d", ErrMissingField, *d.ID)
	}
	return model.Robot{
		ID: *d.ID,
		State: model.KinematicState{
			Position:        d.Position,
			Orientation:     geom.Radians(*d.Orientation),
			Velocity:        d.Velocity,
			AngularVelocity: geom.Radians(d.AngularVelocity),
		},
	}, nil
}

func team(dets []RobotDetection) (model.Team, error) {
	robots := make([]model.Robot, 0, len(dets))
	for _, d := range dets {
		r, err := d.robot()
		if err != nil {
			return model.Team{}, err
		}
		robots = append(robots, r)
	}
	return model.NewTeam(robots...), nil
}
