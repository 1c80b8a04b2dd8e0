// Package model holds the per-tick world snapshot the decision and control
// nodes consume. Everything here is produced by perception and treated as
// read-only downstream.
package model

import "github.com/sfunderbots/robocore/geom"

// KinematicState is the filtered pose and velocity of a robot.
type KinematicState struct {
	Position        geom.Point  `json:"position"`
	Orientation     geom.Angle  `json:"orientation"`
	Velocity        geom.Vector `json:"velocity"`
	AngularVelocity geom.Angle  `json:"angular_velocity"`
}

type Robot struct {
	ID    int            `json:"id"`
	State KinematicState `json:"state"`
}

type Ball struct {
	Position geom.Point  `json:"position"`
	Velocity geom.Vector `json:"velocity"`
}
