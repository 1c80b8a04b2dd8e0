package ipc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Handler processes a received envelope. Return nil to send no reply.
type Handler func(ctx context.Context, c *Connection, env Envelope) (*Envelope, error)

// Connection is one adapter process talking to the core. It is identified by
// a session id from accept time and by the client name after the hello.
type Connection struct {
	ID       uuid.UUID
	conn     net.Conn
	maxBytes int
	handlers map[string]Handler

	writeMu sync.Mutex
	client  atomic.Pointer[string]
}

func NewConnection(conn net.Conn, maxBytes int, handlers map[string]Handler) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Connection{
		ID:       uuid.New(),
		conn:     conn,
		maxBytes: maxBytes,
		handlers: handlers,
	}
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

// Client is the name sent in the hello, empty before the handshake.
func (c *Connection) Client() string {
	if p := c.client.Load(); p != nil {
		return *p
	}
	return ""
}

func (c *Connection) setClient(name string) { c.client.Store(&name) }

// Ready reports whether the handshake has completed.
func (c *Connection) Ready() bool { return c.client.Load() != nil }

// Send is safe to call from any goroutine.
func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return c.write(env)
}

func (c *Connection) write(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteEnvelope(c.conn, env)
}

func (c *Connection) Close() error { return c.conn.Close() }

// ReadLoop blocks until the peer disconnects, a reply cannot be written, or
// ctx is done. It owns the conn lifetime so callers don't need to track
// cleanup.
func (c *Connection) ReadLoop(ctx context.Context) {
	defer c.conn.Close()
	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	for {
		env, err := ReadEnvelope(c.conn, c.maxBytes)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				slog.Info("connection closed", "session", c.ID, "client", c.Client())
			} else {
				slog.Warn("connection read ended", "session", c.ID, "client", c.Client(), "error", err)
			}
			return
		}

		handler, ok := c.handlers[env.Type]
		if !ok {
			slog.Warn("no handler for message type", "session", c.ID, "type", env.Type)
			continue
		}

		resp, err := handler(ctx, c, env)
		if err != nil {
			slog.Error("handler error", "session", c.ID, "type", env.Type, "error", err)
			continue
		}

		if resp != nil {
			if err := c.write(*resp); err != nil {
				slog.Error("failed to send response", "session", c.ID, "type", resp.Type, "error", err)
				return
			}
			slog.Debug("sent response", "session", c.ID, "type", resp.Type, "client", c.Client())
		}
	}
}
