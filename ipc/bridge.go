package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sfunderbots/robocore/backend"
	"github.com/sfunderbots/robocore/gamestate"
	"github.com/sfunderbots/robocore/model"
	"github.com/sfunderbots/robocore/node"
	"github.com/sfunderbots/robocore/perception"
	"golang.org/x/time/rate"
)

// Bridge connects adapter processes to the node graph. Inbound referee and
// detection messages are published on their topics; as a node it forwards
// robot control and trajectories to every client past the handshake.
type Bridge struct {
	maxBytes     int
	referee      *node.Publisher[gamestate.Referee]
	detections   *node.Publisher[perception.DetectionFrame]
	control      *node.Subscriber[backend.RobotControl]
	trajectories *node.Subscriber[model.Trajectories]

	mu    sync.Mutex
	conns map[uuid.UUID]*Connection

	dropped      rate.Sometimes
	unidentified rate.Sometimes
}

func NewBridge(
	maxBytes int,
	referee *node.Publisher[gamestate.Referee],
	detections *node.Publisher[perception.DetectionFrame],
	control *node.Subscriber[backend.RobotControl],
	trajectories *node.Subscriber[model.Trajectories],
) *Bridge {
	return &Bridge{
		maxBytes:     maxBytes,
		referee:      referee,
		detections:   detections,
		control:      control,
		trajectories: trajectories,
		conns:        make(map[uuid.UUID]*Connection),
		dropped:      rate.Sometimes{Interval: time.Second},
		unidentified: rate.Sometimes{Interval: time.Second},
	}
}

// Serve accepts connections until ctx is done, then waits for every
// connection to finish.
func (b *Bridge) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}
			slog.Error("failed to accept connection", "error", err)
			continue
		}
		c := b.attach(conn)
		slog.Info("new connection accepted", "session", c.ID)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer b.detach(c)
			c.ReadLoop(ctx)
		}()
	}
}

func (b *Bridge) attach(conn net.Conn) *Connection {
	c := NewConnection(conn, b.maxBytes, map[string]Handler{
		TypeHello:     b.handleHello,
		TypeReferee:   b.handleReferee,
		TypeDetection: b.handleDetection,
	})
	b.mu.Lock()
	b.conns[c.ID] = c
	b.mu.Unlock()
	return c
}

func (b *Bridge) detach(c *Connection) {
	b.mu.Lock()
	delete(b.conns, c.ID)
	b.mu.Unlock()
}

// Clients is the number of connections past the handshake.
func (b *Bridge) Clients() int {
	return len(b.ready())
}

func (b *Bridge) ready() []*Connection {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Connection, 0, len(b.conns))
	for _, c := range b.conns {
		if c.Ready() {
			out = append(out, c)
		}
	}
	return out
}

func (b *Bridge) handleHello(_ context.Context, c *Connection, env Envelope) (*Envelope, error) {
	var hello HelloMessage
	if err := env.Decode(&hello); err != nil {
		return nil, err
	}
	c.setClient(hello.Client)
	slog.Info("client identified", "session", c.ID, "client", hello.Client)

	ack, err := NewEnvelope(TypeAck, AckMessage{Status: "ok", Session: c.ID.String()})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

func (b *Bridge) handleReferee(_ context.Context, c *Connection, env Envelope) (*Envelope, error) {
	if !b.identified(c, env.Type) {
		return nil, nil
	}
	var ref gamestate.Referee
	if err := env.Decode(&ref); err != nil {
		return nil, err
	}
	return nil, b.publish(c, env.Type, b.referee.TrySend(ref))
}

func (b *Bridge) handleDetection(_ context.Context, c *Connection, env Envelope) (*Envelope, error) {
	if !b.identified(c, env.Type) {
		return nil, nil
	}
	var frame perception.DetectionFrame
	if err := env.Decode(&frame); err != nil {
		return nil, err
	}
	return nil, b.publish(c, env.Type, b.detections.TrySend(frame))
}

// identified reports whether c has completed the handshake. Game input from
// a client that has not said hello is ignored.
func (b *Bridge) identified(c *Connection, msgType string) bool {
	if c.Ready() {
		return true
	}
	b.unidentified.Do(func() { slog.Warn("message before hello ignored", "session", c.ID, "type", msgType) })
	return false
}

// publish turns a full subscriber buffer into a throttled warning; the
// consumer catches up on the next message.
func (b *Bridge) publish(c *Connection, msgType string, err error) error {
	if errors.Is(err, node.ErrFull) {
		b.dropped.Do(func() { slog.Warn("inbound message dropped", "session", c.ID, "type", msgType, "error", err) })
		return nil
	}
	return err
}

func (b *Bridge) Name() string { return "ipc" }

// RunOnce forwards everything pending on the outbound topics. A client that
// cannot be written to is closed; its read loop then detaches it.
func (b *Bridge) RunOnce(ctx context.Context) error {
	controls, err := b.control.Dump()
	if err != nil {
		return fmt.Errorf("read robot control: %w", err)
	}
	trs, haveTrajectories, err := b.trajectories.TakeLast()
	if err != nil {
		return fmt.Errorf("read trajectories: %w", err)
	}

	clients := b.ready()
	if len(clients) == 0 {
		return nil
	}
	var out []Envelope
	for _, rc := range controls {
		env, err := NewEnvelope(TypeRobotControl, rc)
		if err != nil {
			return err
		}
		out = append(out, env)
	}
	if haveTrajectories {
		env, err := NewEnvelope(TypeTrajectories, trs)
		if err != nil {
			return err
		}
		out = append(out, env)
	}

	for _, c := range clients {
		for _, env := range out {
			if err := c.write(env); err != nil {
				slog.Warn("dropping client", "session", c.ID, "client", c.Client(), "error", err)
				c.Close()
				break
			}
		}
	}
	return nil
}
