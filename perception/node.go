package perception

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sfunderbots/robocore/config"
	"github.com/sfunderbots/robocore/gamestate"
	"github.com/sfunderbots/robocore/model"
	"github.com/sfunderbots/robocore/node"
	"golang.org/x/time/rate"
)

// Node turns referee packets and detection frames into PartialWorld
// snapshots. A snapshot is published for every tick that consumed at least
// one detection frame.
type Node struct {
	store      *config.Store
	referee    *node.Subscriber[gamestate.Referee]
	detections *node.Subscriber[DetectionFrame]
	world      *node.Publisher[model.PartialWorld]

	// Idle bounds how long one iteration waits for a detection frame. Zero
	// never waits, which is what lockstep execution needs.
	Idle time.Duration

	lastReferee *gamestate.Referee
	lastCommand *gamestate.Command
	gameState   gamestate.GameState
	field       *model.Field
	ball        *model.Ball
	blue        model.Team
	yellow      model.Team

	unresolved rate.Sometimes
	dropped    rate.Sometimes
	stats      rate.Sometimes
}

func New(
	store *config.Store,
	referee *node.Subscriber[gamestate.Referee],
	detections *node.Subscriber[DetectionFrame],
	world *node.Publisher[model.PartialWorld],
) *Node {
	return &Node{
		store:      store,
		referee:    referee,
		detections: detections,
		world:      world,
		gameState:  gamestate.New(),
		unresolved: rate.Sometimes{Interval: time.Second},
		dropped:    rate.Sometimes{Interval: time.Second},
		stats:      rate.Sometimes{Interval: 5 * time.Second},
	}
}

func (n *Node) Name() string { return "perception" }

// GameState returns the current game state.
func (n *Node) GameState() gamestate.GameState { return n.gameState }

func (n *Node) RunOnce(ctx context.Context) error {
	if err := n.wait(ctx); err != nil {
		return err
	}
	cfg := n.store.Snapshot()
	policy := cfg.Perception.Policy()

	packets, err := n.referee.Dump()
	if err != nil {
		return fmt.Errorf("read referee: %w", err)
	}
	for _, p := range packets {
		n.applyReferee(p, policy)
	}

	frames, err := n.detections.Dump()
	if err != nil {
		return fmt.Errorf("read detections: %w", err)
	}
	for _, f := range frames {
		if err := n.applyFrame(f); err != nil {
			return err
		}
	}

	if n.ball != nil {
		if n.gameState.UpdateRestart(n.ball.Position, cfg.Rules.BallInPlayAfterRestartMoveDist) {
			slog.Info("restart complete, ball in play", "ball", n.ball.Position)
		}
	}
	if len(frames) == 0 {
		return nil
	}
	return n.publish(policy)
}

// wait blocks for a detection frame for at most Idle. Running out of time is
// not an error; referee packets still get drained.
func (n *Node) wait(ctx context.Context) error {
	if n.Idle <= 0 {
		return nil
	}
	wctx, cancel := context.WithTimeout(ctx, n.Idle)
	defer cancel()
	err := n.detections.Wait(wctx)
	switch {
	case err == nil, errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	}
	return fmt.Errorf("read detections: %w", err)
}

func (n *Node) applyReferee(p gamestate.Referee, policy gamestate.TeamPolicy) {
	n.lastReferee = &p
	friendlyIsBlue, err := gamestate.ResolveFriendlyIsBlue(&p, policy)
	if err != nil {
		n.unresolved.Do(func() {
			slog.Warn("cannot apply referee command", "command", p.Command, "error", err)
		})
		return
	}
	// The game controller repeats the current command in every packet.
	if n.lastCommand != nil && *n.lastCommand == p.Command {
		return
	}
	if err := n.gameState.ApplyCommand(p.Command, friendlyIsBlue); err != nil {
		slog.Warn("rejected referee packet", "error", err)
		return
	}
	cmd := p.Command
	n.lastCommand = &cmd
	slog.Info("referee command", "command", cmd, "state", n.gameState.String())
}

func (n *Node) applyFrame(f DetectionFrame) error {
	blue, err := team(f.Blue)
	if err != nil {
		return fmt.Errorf("blue detections at %.3f: %w", f.CaptureTime, err)
	}
	yellow, err := team(f.Yellow)
	if err != nil {
		return fmt.Errorf("yellow detections at %.3f: %w", f.CaptureTime, err)
	}
	n.blue, n.yellow = blue, yellow
	if f.Field != nil {
		field := *f.Field
		n.field = &field
	}
	if f.Ball != nil {
		ball := *f.Ball
		n.ball = &ball
	}
	return nil
}

func (n *Node) publish(policy gamestate.TeamPolicy) error {
	w := model.PartialWorld{
		Field:     n.field,
		Ball:      n.ball,
		GameState: n.gameState,
	}
	friendly, friendlyErr := gamestate.ResolveTeamInfo(n.lastReferee, policy, true)
	enemy, enemyErr := gamestate.ResolveTeamInfo(n.lastReferee, policy, false)
	if err := errors.Join(friendlyErr, enemyErr); err != nil {
		n.unresolved.Do(func() { slog.Warn("team info unresolved", "error", err) })
	} else {
		w.FriendlyInfo, w.EnemyInfo = &friendly, &enemy
		w.Friendly, w.Enemy = n.yellow, n.blue
		if friendly.IsBlue {
			w.Friendly, w.Enemy = n.blue, n.yellow
		}
		w.Friendly = w.Friendly.WithGoalie(friendly.GoalieID)
		w.Enemy = w.Enemy.WithGoalie(enemy.GoalieID)
	}

	err := n.world.TrySend(w)
	switch {
	case err == nil:
	case errors.Is(err, node.ErrFull):
		n.dropped.Do(func() { slog.Warn("world snapshot dropped", "error", err) })
	default:
		return fmt.Errorf("publish world: %w", err)
	}
	n.stats.Do(func() {
		st := n.world.Stats()
		slog.Debug("world topic", "published", st.Published, "rejected", st.Rejected, "mean_period", st.MeanPeriod)
	})
	return nil
}
