package model

import (
	"errors"
	"fmt"

	"github.com/sfunderbots/robocore/gamestate"
)

// ErrIncompleteWorld is returned by PartialWorld.Complete while some part of
// the snapshot has not been observed yet. Consumers skip the tick.
var ErrIncompleteWorld = errors.New("world snapshot incomplete")

// World is the full per-tick snapshot handed to gameplay.
type World struct {
	Field        Field
	Ball         Ball
	Friendly     Team
	Enemy        Team
	GameState    gamestate.GameState
	FriendlyInfo gamestate.TeamInfo
	EnemyInfo    gamestate.TeamInfo
}

// PartialWorld is what perception publishes: anything not yet observed is nil.
type PartialWorld struct {
	Field        *Field
	Ball         *Ball
	Friendly     Team
	Enemy        Team
	GameState    gamestate.GameState
	FriendlyInfo *gamestate.TeamInfo
	EnemyInfo    *gamestate.TeamInfo
}

func (p PartialWorld) Complete() (World, error) {
	var missing []string
	if p.Field == nil {
		missing = append(missing, "field")
	}
	if p.Ball == nil {
		missing = append(missing, "ball")
	}
	if p.FriendlyInfo == nil {
		missing = append(missing, "friendly team info")
	}
	if p.EnemyInfo == nil {
		missing = append(missing, "enemy team info")
	}
	if len(missing) > 0 {
		return World{}, fmt.Errorf("%w: missing %v", ErrIncompleteWorld, missing)
	}
	return World{
		Field:        *p.Field,
		Ball:         *p.Ball,
		Friendly:     p.Friendly,
		Enemy:        p.Enemy,
		GameState:    p.GameState,
		FriendlyInfo: *p.FriendlyInfo,
		EnemyInfo:    *p.EnemyInfo,
	}, nil
}
