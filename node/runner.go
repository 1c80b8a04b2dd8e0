package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Node is a long-lived task with private state. RunOnce does one iteration
// of work; a returned error is fatal and ends the node's loop.
type Node interface {
	Name() string
	RunOnce(ctx context.Context) error
}

// RunThreaded runs every node in its own goroutine until ctx is cancelled or
// one node fails. A failure cancels the rest and is returned; cancellation
// alone is a clean stop. Cancellation is checked once per iteration, never
// mid-tick.
func RunThreaded(ctx context.Context, nodes ...Node) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, n := range nodes {
		g.Go(func() error {
			slog.Info("node started", "node", n.Name())
			for {
				if ctx.Err() != nil {
					slog.Info("node stopped", "node", n.Name())
					return nil
				}
				if err := n.RunOnce(ctx); err != nil {
					if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
						slog.Info("node stopped", "node", n.Name())
						return nil
					}
					slog.Error("node failed", "node", n.Name(), "error", err)
					return fmt.Errorf("node %s: %w", n.Name(), err)
				}
			}
		})
	}
	return g.Wait()
}

// Synchronous steps every node once per round, in order, on the caller's
// goroutine. Nodes driven this way must not block waiting for input.
type Synchronous struct {
	nodes []Node
	round int
}

func NewSynchronous(nodes ...Node) *Synchronous {
	return &Synchronous{nodes: nodes}
}

// Step runs one round. The first node error aborts the round.
func (s *Synchronous) Step(ctx context.Context) error {
	s.round++
	for _, n := range s.nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.RunOnce(ctx); err != nil {
			return fmt.Errorf("round %d, node %s: %w", s.round, n.Name(), err)
		}
	}
	return nil
}

func (s *Synchronous) Rounds() int { return s.round }

// Paced limits a node to one iteration per period. Used for fixed-rate loops
// such as the control tick.
func Paced(n Node, period time.Duration) Node {
	return &paced{Node: n, limiter: rate.NewLimiter(rate.Every(period), 1)}
}

type paced struct {
	Node
	limiter *rate.Limiter
}

func (p *paced) RunOnce(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		// The limiter refuses waits that would overrun the deadline; the
		// deadline is then less than one period away.
		<-ctx.Done()
		return ctx.Err()
	}
	return p.Node.RunOnce(ctx)
}
