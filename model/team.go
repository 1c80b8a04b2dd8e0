package model

import (
	"maps"
	"slices"
)

// Team is a roster keyed by robot id. Ids are unique by construction.
type Team struct {
	goalie *int
	robots map[int]Robot
}

// NewTeam builds a roster. A later robot with a repeated id replaces the earlier one.
func NewTeam(robots ...Robot) Team {
	t := Team{robots: make(map[int]Robot, len(robots))}
	for _, r := range robots {
		t.robots[r.ID] = r
	}
	return t
}

func (t Team) Len() int { return len(t.robots) }

func (t Team) Robot(id int) (Robot, bool) {
	r, ok := t.robots[id]
	return r, ok
}

// AllRobots returns every robot in ascending id order.
func (t Team) AllRobots() []Robot {
	out := make([]Robot, 0, len(t.robots))
	for _, id := range slices.Sorted(maps.Keys(t.robots)) {
		out = append(out, t.robots[id])
	}
	return out
}

// Players returns the roster without the goalie, ascending by id.
func (t Team) Players() []Robot {
	all := t.AllRobots()
	if t.goalie == nil {
		return all
	}
	return slices.DeleteFunc(all, func(r Robot) bool { return r.ID == *t.goalie })
}

func (t Team) GoalieID() (int, bool) {
	if t.goalie == nil {
		return 0, false
	}
	return *t.goalie, true
}

func (t Team) Goalie() (Robot, bool) {
	if t.goalie == nil {
		return Robot{}, false
	}
	return t.Robot(*t.goalie)
}

// WithGoalie returns a copy of the team with the goalie set. The roster map
// is shared; teams are never mutated after construction.
func (t Team) WithGoalie(id int) Team {
	t.goalie = &id
	return t
}
