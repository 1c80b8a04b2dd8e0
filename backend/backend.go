// Package backend runs the fixed-rate control loop: one tracking controller
// per robot id, fed by the latest trajectories and world, emitting one
// batched velocity command message per tick.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sfunderbots/robocore/config"
	"github.com/sfunderbots/robocore/model"
	"github.com/sfunderbots/robocore/motion"
	"github.com/sfunderbots/robocore/node"
	"golang.org/x/time/rate"
)

// RobotControl is every robot's command for one control tick, ascending by id.
type RobotControl struct {
	Commands []motion.Command `json:"commands"`
}

type Node struct {
	store        *config.Store
	trajectories *node.Subscriber[model.Trajectories]
	world        *node.Subscriber[model.PartialWorld]
	control      *node.Publisher[RobotControl]

	// trackers is indexed by robot id, 0..=rules.max_robot_id at start-up.
	trackers []*motion.Tracker

	unknownID rate.Sometimes
	dropped   rate.Sometimes
}

func New(
	store *config.Store,
	trajectories *node.Subscriber[model.Trajectories],
	world *node.Subscriber[model.PartialWorld],
	control *node.Publisher[RobotControl],
) *Node {
	maxID := store.Snapshot().Rules.MaxRobotID
	trackers := make([]*motion.Tracker, maxID+1)
	for id := range trackers {
		trackers[id] = motion.NewTracker(id)
	}
	return &Node{
		store:        store,
		trajectories: trajectories,
		world:        world,
		control:      control,
		trackers:     trackers,
		unknownID:    rate.Sometimes{Interval: time.Second},
		dropped:      rate.Sometimes{Interval: time.Second},
	}
}

func (n *Node) Name() string { return "backend" }

func (n *Node) tracker(id int) (*motion.Tracker, bool) {
	if id < 0 || id >= len(n.trackers) {
		return nil, false
	}
	return n.trackers[id], true
}

func (n *Node) RunOnce(ctx context.Context) error {
	cfg := n.store.Snapshot()

	trs, ok, err := n.trajectories.TakeLast()
	if err != nil {
		return fmt.Errorf("read trajectories: %w", err)
	}
	if ok {
		for id, tr := range trs {
			t, known := n.tracker(id)
			if !known {
				n.unknownID.Do(func() {
					slog.Warn("trajectory for unknown robot ignored", "robot", id, "max_robot_id", len(n.trackers)-1)
				})
				continue
			}
			t.UpdateTrajectory(tr)
		}
	}

	pw, ok, err := n.world.TakeLast()
	if err != nil {
		return fmt.Errorf("read world: %w", err)
	}
	if ok {
		for _, r := range pw.Friendly.AllRobots() {
			if t, known := n.tracker(r.ID); known {
				t.UpdateState(r.State)
			}
		}
	}

	out := n.Tick(cfg.Tracker.Controller())
	if len(out.Commands) == 0 {
		return nil
	}
	if err := n.control.TrySend(out); err != nil {
		if !errors.Is(err, node.ErrFull) {
			return fmt.Errorf("publish robot control: %w", err)
		}
		n.dropped.Do(func() { slog.Warn("robot control dropped", "error", err) })
	}
	return nil
}

// Tick runs every tracker once. Robots without both a trajectory and a state
// are left out.
func (n *Node) Tick(cfg motion.TrackerConfig) RobotControl {
	var out RobotControl
	for _, t := range n.trackers {
		if cmd, ok := t.Run(cfg); ok {
			out.Commands = append(out.Commands, cmd)
		}
	}
	return out
}
