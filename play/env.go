package play

import "github.com/sfunderbots/robocore/gamestate"

// Env is the expression environment for play conditions. The game state
// predicates (Halted(), OurKickoff(), StayOnSide(), ...) are promoted from
// the embedded GameState and callable directly from condition sources.
type Env struct {
	gamestate.GameState
}

func (e Env) PhaseName() string   { return e.Phase().String() }
func (e Env) RestartName() string { return e.Reason().String() }

// InRestart is true while any restart is pending, ours or theirs.
func (e Env) InRestart() bool { return e.Reason() != gamestate.RestartNone }
