// Package gamestate turns referee commands into the match phase the rest of
// the robot core reasons about.
package gamestate

import (
	"fmt"

	"github.com/sfunderbots/robocore/geom"
)

type PlayPhase int

const (
	PhaseHalt PlayPhase = iota
	PhaseStop
	PhaseSetup
	PhaseReady
	PhasePlaying
)

func (p PlayPhase) String() string {
	switch p {
	case PhaseHalt:
		return "halt"
	case PhaseStop:
		return "stop"
	case PhaseSetup:
		return "setup"
	case PhaseReady:
		return "ready"
	case PhasePlaying:
		return "playing"
	}
	return fmt.Sprintf("PlayPhase(%d)", int(p))
}

type RestartReason int

const (
	RestartNone RestartReason = iota
	RestartKickoff
	RestartFreeKick
	RestartPenalty
	RestartBallPlacement
)

func (r RestartReason) String() string {
	switch r {
	case RestartNone:
		return "none"
	case RestartKickoff:
		return "kickoff"
	case RestartFreeKick:
		return "free_kick"
	case RestartPenalty:
		return "penalty"
	case RestartBallPlacement:
		return "ball_placement"
	}
	return fmt.Sprintf("RestartReason(%d)", int(r))
}

// GameState is the match phase plus restart bookkeeping. Only ApplyCommand
// and UpdateRestart change it; everything else is a read-only predicate.
// The zero value is not valid, use New.
type GameState struct {
	phase         PlayPhase
	reason        RestartReason
	ourRestart    bool
	ballAtRestart *geom.Point
}

func New() GameState {
	return GameState{phase: PhaseHalt, reason: RestartNone}
}

func (g GameState) Phase() PlayPhase      { return g.phase }
func (g GameState) Reason() RestartReason { return g.reason }
func (g GameState) OurRestartFlag() bool  { return g.ourRestart }

// BallAtRestart is the ball position recorded while the restart was being set up.
func (g GameState) BallAtRestart() (geom.Point, bool) {
	if g.ballAtRestart == nil {
		return geom.Point{}, false
	}
	return *g.ballAtRestart, true
}

// ApplyCommand updates the phase for a referee command. friendlyIsBlue decides
// which colour-specific commands belong to us.
func (g *GameState) ApplyCommand(cmd Command, friendlyIsBlue bool) error {
	ours := func(blue bool) bool { return blue == friendlyIsBlue }

	switch cmd {
	case Halt, TimeoutYellow, TimeoutBlue:
		g.phase = PhaseHalt
		g.reason = RestartNone
	case Stop:
		g.phase = PhaseStop
		g.reason = RestartNone
		g.ourRestart = false
	case GoalYellow, GoalBlue:
		// Deprecated signal, treated as stop without touching our_restart.
		g.phase = PhaseStop
		g.reason = RestartNone
	case NormalStart:
		g.phase = PhaseReady
	case ForceStart:
		g.phase = PhasePlaying
		g.reason = RestartNone
	case PrepareKickoffYellow, PrepareKickoffBlue:
		g.phase = PhaseSetup
		g.reason = RestartKickoff
		g.ourRestart = ours(cmd == PrepareKickoffBlue)
	case PreparePenaltyYellow, PreparePenaltyBlue:
		g.phase = PhaseSetup
		g.reason = RestartPenalty
		g.ourRestart = ours(cmd == PreparePenaltyBlue)
	case DirectFreeYellow, DirectFreeBlue, IndirectFreeYellow, IndirectFreeBlue:
		// Indirect free kicks were merged into direct free kicks.
		g.phase = PhaseReady
		g.reason = RestartFreeKick
		g.ourRestart = ours(cmd == DirectFreeBlue || cmd == IndirectFreeBlue)
	case BallPlacementYellow, BallPlacementBlue:
		g.phase = PhaseSetup
		g.reason = RestartBallPlacement
		g.ourRestart = ours(cmd == BallPlacementBlue)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownCommand, int(cmd))
	}
	return nil
}

// UpdateRestart runs restart completion against the current ball position.
// During setup it records the ball position; once ready, moving the ball
// farther than threshold from that record puts the ball in play. It reports
// whether the restart completed on this call.
func (g *GameState) UpdateRestart(ball geom.Point, threshold float64) bool {
	switch g.phase {
	case PhaseSetup:
		p := ball
		g.ballAtRestart = &p
	case PhaseReady:
		if g.ballAtRestart != nil && g.ballAtRestart.DistanceTo(ball) > threshold {
			g.phase = PhasePlaying
			g.reason = RestartNone
			g.ballAtRestart = nil
			return true
		}
	}
	return false
}

func (g GameState) Halted() bool  { return g.phase == PhaseHalt }
func (g GameState) Stopped() bool { return g.phase == PhaseStop }
func (g GameState) Playing() bool { return g.phase == PhasePlaying }

func (g GameState) Kickoff() bool       { return g.reason == RestartKickoff }
func (g GameState) Penalty() bool       { return g.reason == RestartPenalty }
func (g GameState) FreeKick() bool      { return g.reason == RestartFreeKick }
func (g GameState) BallPlacement() bool { return g.reason == RestartBallPlacement }

// OurRestart is true only while a restart is pending and it belongs to us.
func (g GameState) OurRestart() bool { return g.ourRestart && g.reason != RestartNone }

func (g GameState) OurKickoff() bool         { return g.Kickoff() && g.ourRestart }
func (g GameState) TheirKickoff() bool       { return g.Kickoff() && !g.ourRestart }
func (g GameState) OurPenalty() bool         { return g.Penalty() && g.ourRestart }
func (g GameState) TheirPenalty() bool       { return g.Penalty() && !g.ourRestart }
func (g GameState) OurFreeKick() bool        { return g.FreeKick() && g.ourRestart }
func (g GameState) TheirFreeKick() bool      { return g.FreeKick() && !g.ourRestart }
func (g GameState) OurBallPlacement() bool   { return g.BallPlacement() && g.ourRestart }
func (g GameState) TheirBallPlacement() bool { return g.BallPlacement() && !g.ourRestart }

func (g GameState) CanManipulateBall() bool {
	return g.phase == PhasePlaying || (g.ourRestart && g.phase == PhaseReady)
}

func (g GameState) FriendlyStayAwayFromBall() bool {
	return g.phase != PhasePlaying && !g.ourRestart
}

// StayOnSide is true while robots must keep to their own half for an enemy kickoff.
func (g GameState) StayOnSide() bool {
	setup := g.phase == PhaseSetup || g.phase == PhaseReady
	return setup && g.reason == RestartKickoff && !g.ourRestart
}

func (g GameState) StayBehindPenaltyLine() bool { return g.reason == RestartPenalty }

func (g GameState) String() string {
	return fmt.Sprintf("%s/%s ours=%t", g.phase, g.reason, g.ourRestart)
}
