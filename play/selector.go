package play

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/sfunderbots/robocore/gamestate"
	"github.com/sfunderbots/robocore/model"
	"github.com/sfunderbots/robocore/tactic"
)

// Selector keeps exactly one play active and re-evaluates the choice each
// tick. Halt is the initial play and the fallback when no candidate can start.
type Selector struct {
	defs   []*Definition
	active *Definition
	state  State
}

// NewSelector compiles the default catalogue.
func NewSelector() (*Selector, error) {
	return NewSelectorWith(Definitions())
}

// NewSelectorWith compiles every condition into expr bytecode up front so a
// bad source fails at start-up, not mid-match. defs must include Halt.
func NewSelectorWith(defs []*Definition) (*Selector, error) {
	if err := compileDefinitions(defs); err != nil {
		return nil, err
	}
	s := &Selector{defs: defs, state: newState()}
	s.active = s.find(Halt)
	if s.active == nil {
		return nil, fmt.Errorf("play catalogue has no %s play", Halt)
	}
	return s, nil
}

func (s *Selector) Active() Kind { return s.active.Kind }
func (s *Selector) State() State { return s.state }

// Update switches plays if the active one can no longer continue. It reports
// whether the active play changed; only changes are logged.
func (s *Selector) Update(gs gamestate.GameState) bool {
	env := Env{GameState: gs}
	if eval(s.active, s.active.canContinue, env) {
		return false
	}

	prev := s.active.Kind
	next := s.find(Halt)
	fallback := true
	for _, d := range s.defs {
		if eval(d, d.canStart, env) {
			next = d
			fallback = false
			break
		}
	}
	s.active = next
	if prev == next.Kind {
		return false
	}

	if fallback {
		slog.Info("no play can start, falling back", "play", next.Kind, "previous", prev, "gameState", gs)
	} else {
		slog.Info("starting play", "play", next.Kind, "previous", prev, "gameState", gs)
	}
	return true
}

// Run asks the active play for this tick's tactics.
func (s *Selector) Run(w model.World) tactic.Requested {
	for _, r := range w.Enemy.AllRobots() {
		s.state.EnemyMaxSpeed = max(s.state.EnemyMaxSpeed, r.State.Velocity.Length())
	}
	return run(s.active.Kind, w, s.state)
}

// Tick is Update followed by Run.
func (s *Selector) Tick(w model.World) tactic.Requested {
	s.Update(w.GameState)
	return s.Run(w)
}

func (s *Selector) find(k Kind) *Definition {
	for _, d := range s.defs {
		if d.Kind == k {
			return d
		}
	}
	return nil
}

// eval runs a compiled condition. A runtime error counts as false.
func eval(d *Definition, program *vm.Program, env Env) bool {
	result, err := vm.Run(program, env)
	if err != nil {
		slog.Warn("play condition error", "play", d.Kind, "error", err)
		return false
	}
	ok, _ := result.(bool)
	return ok
}

func compileDefinitions(defs []*Definition) error {
	for _, d := range defs {
		prog, err := expr.Compile(d.CanStartSrc, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return fmt.Errorf("compile %s can-start: %w", d.Kind, err)
		}
		d.canStart = prog

		prog, err = expr.Compile(d.CanContinueSrc, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return fmt.Errorf("compile %s can-continue: %w", d.Kind, err)
		}
		d.canContinue = prog
	}
	return nil
}
