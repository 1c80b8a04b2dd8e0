package model

import "github.com/sfunderbots/robocore/geom"

// Field dimensions in metres. X runs goal to goal, our goal on negative x.
type Field struct {
	XLength            float64 `json:"x_length"`
	YLength            float64 `json:"y_length"`
	DefenseXLength     float64 `json:"defense_x_length"`
	DefenseYLength     float64 `json:"defense_y_length"`
	GoalXLength        float64 `json:"goal_x_length"`
	GoalYLength        float64 `json:"goal_y_length"`
	BoundarySize       float64 `json:"boundary_size"`
	CenterCircleRadius float64 `json:"center_circle_radius"`
}

// DivB is the standard division B field.
func DivB() Field {
	return Field{
		XLength:            9.0,
		YLength:            6.0,
		DefenseXLength:     1.0,
		DefenseYLength:     2.0,
		GoalXLength:        0.18,
		GoalYLength:        1.0,
		BoundarySize:       0.3,
		CenterCircleRadius: 0.5,
	}
}

func (f Field) TouchLines() geom.Rectangle {
	return geom.NewRectangle(
		geom.Point{X: -f.XLength / 2, Y: -f.YLength / 2},
		geom.Point{X: f.XLength / 2, Y: f.YLength / 2},
	)
}

func (f Field) FriendlyDefenseArea() geom.Rectangle {
	return geom.NewRectangle(
		geom.Point{X: -f.XLength / 2, Y: -f.DefenseYLength / 2},
		geom.Point{X: -f.XLength/2 + f.DefenseXLength, Y: f.DefenseYLength / 2},
	)
}

func (f Field) EnemyDefenseArea() geom.Rectangle {
	return geom.NewRectangle(
		geom.Point{X: f.XLength/2 - f.DefenseXLength, Y: -f.DefenseYLength / 2},
		geom.Point{X: f.XLength / 2, Y: f.DefenseYLength / 2},
	)
}

func (f Field) CenterCircle() geom.Circle {
	return geom.Circle{Radius: f.CenterCircleRadius}
}
