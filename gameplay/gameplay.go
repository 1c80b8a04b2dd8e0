// Package gameplay is the decision node: it turns each world snapshot into
// one trajectory per assigned friendly robot.
package gameplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sfunderbots/robocore/assign"
	"github.com/sfunderbots/robocore/model"
	"github.com/sfunderbots/robocore/node"
	"github.com/sfunderbots/robocore/play"
	"golang.org/x/time/rate"
)

// Node owns the play selector for the friendly team.
type Node struct {
	world        *node.Subscriber[model.PartialWorld]
	trajectories *node.Publisher[model.Trajectories]
	selector     *play.Selector

	// WaitForWorld makes RunOnce block until a snapshot arrives. Leave it
	// off under the synchronous runner.
	WaitForWorld bool

	incomplete rate.Sometimes
	warnings   rate.Sometimes
	dropped    rate.Sometimes
	invalid    rate.Sometimes
}

func New(world *node.Subscriber[model.PartialWorld], trajectories *node.Publisher[model.Trajectories], selector *play.Selector) *Node {
	return &Node{
		world:        world,
		trajectories: trajectories,
		selector:     selector,
		incomplete:   rate.Sometimes{Interval: time.Second},
		warnings:     rate.Sometimes{Interval: time.Second},
		dropped:      rate.Sometimes{Interval: time.Second},
		invalid:      rate.Sometimes{Interval: time.Second},
	}
}

func (n *Node) Name() string { return "gameplay" }

// Active is the play currently in charge.
func (n *Node) Active() play.Kind { return n.selector.Active() }

func (n *Node) RunOnce(ctx context.Context) error {
	if n.WaitForWorld {
		if err := n.world.Wait(ctx); err != nil {
			return fmt.Errorf("wait for world: %w", err)
		}
	}
	pw, ok, err := n.world.TakeLast()
	if err != nil {
		return fmt.Errorf("read world: %w", err)
	}
	if !ok {
		return nil
	}
	w, err := pw.Complete()
	if err != nil {
		n.incomplete.Do(func() { slog.Warn("skipping tick", "error", err) })
		return nil
	}

	out := n.Decide(w)
	if err := n.trajectories.TrySend(out); err != nil {
		if !errors.Is(err, node.ErrFull) {
			return fmt.Errorf("publish trajectories: %w", err)
		}
		n.dropped.Do(func() { slog.Warn("trajectories dropped", "error", err) })
	}
	return nil
}

// Decide runs one decision tick: select the play, assign its tactics to the
// friendly robots and plan a trajectory for every assigned robot.
func (n *Node) Decide(w model.World) model.Trajectories {
	req := n.selector.Tick(w)
	res := assign.Tactics(req, w.Friendly.AllRobots())
	if len(res.Warnings) > 0 {
		n.warnings.Do(func() {
			slog.Warn("tactic assignment", "play", n.selector.Active(), "error", errors.Join(res.Warnings...))
		})
	}

	out := make(model.Trajectories, len(res.Assignment))
	for id, t := range res.Assignment {
		r, ok := w.Friendly.Robot(id)
		if !ok {
			continue
		}
		n.add(out, id, t.Plan(r))
	}
	slog.Debug("gameplay tick",
		"play", n.selector.Active(),
		"gameState", w.GameState,
		"requested", req.Len(),
		"assigned", len(out),
	)
	return out
}

// add stores tr for robot id unless it is unusable, in which case the robot
// gets no trajectory this tick.
func (n *Node) add(out model.Trajectories, id int, tr model.Trajectory) bool {
	if err := tr.Validate(); err != nil {
		n.invalid.Do(func() { slog.Warn("invalid trajectory skipped", "robot", id, "error", err) })
		return false
	}
	out[id] = tr
	return true
}
