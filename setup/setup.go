// Package setup wires topics and nodes into the running core.
package setup

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/sfunderbots/robocore/backend"
	"github.com/sfunderbots/robocore/config"
	"github.com/sfunderbots/robocore/gameplay"
	"github.com/sfunderbots/robocore/gamestate"
	"github.com/sfunderbots/robocore/ipc"
	"github.com/sfunderbots/robocore/model"
	"github.com/sfunderbots/robocore/node"
	"github.com/sfunderbots/robocore/perception"
	"github.com/sfunderbots/robocore/play"
	"golang.org/x/sync/errgroup"
)

// perceptionIdle bounds how long perception waits for vision before it
// drains referee packets anyway.
const perceptionIdle = 20 * time.Millisecond

// Pipeline is perception -> gameplay -> backend plus the topics between them.
// Subscriptions are made at Build time so no node misses early messages.
type Pipeline struct {
	store *config.Store

	Referee      *node.Publisher[gamestate.Referee]
	Detections   *node.Publisher[perception.DetectionFrame]
	World        *node.Publisher[model.PartialWorld]
	Trajectories *node.Publisher[model.Trajectories]
	Control      *node.Publisher[backend.RobotControl]

	Perception *perception.Node
	Gameplay   *gameplay.Node
	Backend    *backend.Node
}

func Build(store *config.Store) (*Pipeline, error) {
	cfg := store.Snapshot()
	p := &Pipeline{
		store:        store,
		Referee:      node.NewTopic[gamestate.Referee]("referee", cfg.Node.RefereeCapacity),
		Detections:   node.NewTopic[perception.DetectionFrame]("detections", cfg.Node.DetectionCapacity),
		World:        node.NewTopic[model.PartialWorld]("world", cfg.Node.WorldCapacity),
		Trajectories: node.NewTopic[model.Trajectories]("trajectories", cfg.Node.TrajectoryCapacity),
		Control:      node.NewTopic[backend.RobotControl]("robot_control", cfg.Node.ControlCapacity),
	}

	selector, err := play.NewSelector()
	if err != nil {
		return nil, fmt.Errorf("build play selector: %w", err)
	}
	p.Perception = perception.New(store, p.Referee.Topic().Subscribe(), p.Detections.Topic().Subscribe(), p.World)
	p.Gameplay = gameplay.New(p.World.Topic().Subscribe(), p.Trajectories, selector)
	p.Backend = backend.New(store, p.Trajectories.Topic().Subscribe(), p.World.Topic().Subscribe(), p.Control)
	return p, nil
}

// Synchronous steps perception, gameplay and backend in that order, so one
// round carries an input all the way to robot commands.
func (p *Pipeline) Synchronous() *node.Synchronous {
	return node.NewSynchronous(p.Perception, p.Gameplay, p.Backend)
}

// Run starts every node on its own goroutine. When ln is non-nil the IPC
// bridge serves it and forwards outbound traffic at the control period. Run
// returns when ctx is cancelled or a node fails.
func (p *Pipeline) Run(ctx context.Context, ln net.Listener) error {
	cfg := p.store.Snapshot()
	period := cfg.Tracker.ControlPeriod

	p.Perception.Idle = perceptionIdle
	p.Gameplay.WaitForWorld = true
	nodes := []node.Node{p.Perception, p.Gameplay, node.Paced(p.Backend, period)}

	g, ctx := errgroup.WithContext(ctx)
	if ln != nil {
		bridge := ipc.NewBridge(cfg.IPC.MaxMessageBytes, p.Referee, p.Detections,
			p.Control.Topic().Subscribe(), p.Trajectories.Topic().Subscribe())
		nodes = append(nodes, node.Paced(bridge, period))
		g.Go(func() error {
			slog.Info("listening", "addr", ln.Addr().String())
			return bridge.Serve(ctx, ln)
		})
	}
	g.Go(func() error { return node.RunThreaded(ctx, nodes...) })
	return g.Wait()
}

// Close disconnects every topic. Nodes still running see ErrDisconnected.
func (p *Pipeline) Close() {
	p.Referee.Close()
	p.Detections.Close()
	p.World.Close()
	p.Trajectories.Close()
	p.Control.Close()
}
