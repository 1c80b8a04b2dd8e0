package play

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/sfunderbots/robocore/gamestate"
	"github.com/sfunderbots/robocore/geom"
	"github.com/sfunderbots/robocore/model"
	"github.com/sfunderbots/robocore/tactic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateAfter(t *testing.T, cmds ...gamestate.Command) gamestate.GameState {
	t.Helper()
	gs := gamestate.New()
	for _, c := range cmds {
		require.NoError(t, gs.ApplyCommand(c, true))
	}
	return gs
}

func worldWith(gs gamestate.GameState, ball geom.Point, n int) model.World {
	robots := make([]model.Robot, n)
	for i := range robots {
		robots[i] = model.Robot{ID: i, State: model.KinematicState{Position: geom.Point{X: float64(i)}}}
	}
	return model.World{
		Field:     model.DivB(),
		Ball:      model.Ball{Position: ball},
		Friendly:  model.NewTeam(robots...),
		GameState: gs,
	}
}

func TestDefaultCatalogueCompiles(t *testing.T) {
	s, err := NewSelector()
	require.NoError(t, err)
	assert.Equal(t, Halt, s.Active())
	assert.Equal(t, 1.0, s.State().EnemyMaxSpeed)

	kinds := make([]Kind, 0, 3)
	for _, d := range s.defs {
		kinds = append(kinds, d.Kind)
	}
	assert.Equal(t, []Kind{Halt, Stop, Defense}, kinds)
}

func TestSelectorRejectsBadSource(t *testing.T) {
	_, err := NewSelectorWith([]*Definition{
		{Kind: Halt, CanStartSrc: "Halted(", CanContinueSrc: "true"},
	})
	assert.Error(t, err)

	_, err = NewSelectorWith([]*Definition{
		{Kind: Stop, CanStartSrc: "Stopped()", CanContinueSrc: "Stopped()"},
	})
	assert.Error(t, err)
}

func TestSelectorFollowsPhase(t *testing.T) {
	s, err := NewSelector()
	require.NoError(t, err)

	tests := []struct {
		name string
		gs   gamestate.GameState
		want Kind
	}{
		{"halt stays", stateAfter(t, gamestate.Halt), Halt},
		{"stop", stateAfter(t, gamestate.Stop), Stop},
		{"force start", stateAfter(t, gamestate.ForceStart), Defense},
		{"timeout halts", stateAfter(t, gamestate.TimeoutBlue), Halt},
	}
	for _, tt := range tests {
		s.Update(tt.gs)
		if got := s.Active(); got != tt.want {
			t.Errorf("%s: active = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSelectorFallsBackToHalt(t *testing.T) {
	s, err := NewSelector()
	require.NoError(t, err)

	s.Update(stateAfter(t, gamestate.ForceStart))
	require.Equal(t, Defense, s.Active())

	// Setup matches none of the catalogue's start conditions.
	changed := s.Update(stateAfter(t, gamestate.PrepareKickoffBlue))
	assert.True(t, changed)
	assert.Equal(t, Halt, s.Active())
}

func TestSelectorLogsOnlyChanges(t *testing.T) {
	s, err := NewSelector()
	require.NoError(t, err)
	s.Update(stateAfter(t, gamestate.ForceStart))
	require.Equal(t, Defense, s.Active())

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	setup := stateAfter(t, gamestate.PrepareKickoffBlue)
	changes := 0
	for range 100 {
		if s.Update(setup) {
			changes++
		}
	}
	assert.Equal(t, 1, changes)
	assert.Equal(t, Halt, s.Active())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "falling back")
}

func TestRestartConditions(t *testing.T) {
	s, err := NewSelectorWith([]*Definition{
		{Kind: Halt, CanStartSrc: "Halted()", CanContinueSrc: "Halted()"},
		{Kind: Stop, CanStartSrc: `InRestart() && RestartName() == "kickoff"`, CanContinueSrc: "InRestart()"},
		{Kind: Defense, CanStartSrc: `PhaseName() == "playing"`, CanContinueSrc: "Playing()"},
	})
	require.NoError(t, err)

	s.Update(stateAfter(t, gamestate.Stop))
	assert.Equal(t, Halt, s.Active(), "no restart pending")

	s.Update(stateAfter(t, gamestate.Stop, gamestate.PreparePenaltyBlue))
	assert.Equal(t, Halt, s.Active(), "penalty is not a kickoff")

	s.Update(stateAfter(t, gamestate.Stop, gamestate.PrepareKickoffYellow))
	assert.Equal(t, Stop, s.Active())

	s.Update(stateAfter(t, gamestate.Stop, gamestate.PrepareKickoffYellow, gamestate.NormalStart))
	assert.Equal(t, Stop, s.Active(), "kickoff still pending after normal start")

	s.Update(stateAfter(t, gamestate.ForceStart))
	assert.Equal(t, Defense, s.Active())
}

func TestSelectorFallsBackWhenConditionErrors(t *testing.T) {
	s, err := NewSelectorWith([]*Definition{
		{Kind: Halt, CanStartSrc: "Halted()", CanContinueSrc: "Halted()"},
		{Kind: Defense, CanStartSrc: "1 % (len(PhaseName()) - 7) == 0", CanContinueSrc: "false"},
	})
	require.NoError(t, err)

	s.Update(stateAfter(t, gamestate.ForceStart))
	assert.Equal(t, Halt, s.Active())
}

func TestHaltRunStopsEveryRobot(t *testing.T) {
	w := worldWith(stateAfter(t, gamestate.Halt), geom.Point{}, 3)
	w.Friendly = w.Friendly.WithGoalie(1)

	req := run(Halt, w, newState())
	assert.Equal(t, []tactic.Tactic{tactic.Stop(), tactic.Stop(), tactic.Stop()}, req.Greedy)
	assert.Empty(t, req.Optimized)
}

func TestStopRunSurroundsBall(t *testing.T) {
	ball := geom.Point{}
	w := worldWith(stateAfter(t, gamestate.Stop), ball, 4)

	req := run(Stop, w, newState())
	require.Len(t, req.Greedy, 4)
	assert.Empty(t, req.Optimized)

	for i, tc := range req.Greedy {
		require.Equal(t, tactic.KindMove, tc.Kind)
		assert.InDelta(t, 1.0, tc.Target.DistanceTo(ball), 1e-9)
		want := geom.Radians(float64(i) * math.Pi / 2)
		got := tc.Target.Sub(ball).Orientation().Clamp2Pi()
		assert.InDelta(t, want.Radians(), got.Radians(), 1e-9, "point %d", i)
		assert.Equal(t, geom.Zero(), tc.Orientation)
	}
}

func TestStopRunOffsetBallAndEmptyTeam(t *testing.T) {
	ball := geom.Point{X: 2, Y: -1}
	req := run(Stop, worldWith(stateAfter(t, gamestate.Stop), ball, 1), newState())
	require.Len(t, req.Greedy, 1)
	assert.InDelta(t, 3, req.Greedy[0].Target.X, 1e-9)
	assert.InDelta(t, -1, req.Greedy[0].Target.Y, 1e-9)

	req = run(Stop, worldWith(stateAfter(t, gamestate.Stop), ball, 0), newState())
	assert.Empty(t, req.Greedy)
}

func TestDefenseRunIsEmpty(t *testing.T) {
	req := run(Defense, worldWith(stateAfter(t, gamestate.ForceStart), geom.Point{}, 6), newState())
	assert.Zero(t, req.Len())
}

func TestTickTracksEnemySpeed(t *testing.T) {
	s, err := NewSelector()
	require.NoError(t, err)

	w := worldWith(stateAfter(t, gamestate.Stop), geom.Point{}, 2)
	w.Enemy = model.NewTeam(model.Robot{ID: 0, State: model.KinematicState{Velocity: geom.Vector{X: 3, Y: 4}}})

	req := s.Tick(w)
	assert.Equal(t, Stop, s.Active())
	assert.Len(t, req.Greedy, 2)
	assert.Equal(t, 5.0, s.State().EnemyMaxSpeed)
}
