// Package node is the message-passing runtime the robot core runs on: bounded
// broadcast topics with a single publisher each, and runners that drive
// nodes either one goroutine apiece or stepped in lockstep.
package node

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrDisconnected is fatal to the node that observes it.
	ErrDisconnected = errors.New("topic disconnected")
	// ErrFull means a subscriber had no room; the message was dropped for it.
	ErrFull = errors.New("subscriber buffer full")
)

// periodWindow is how many recent publishes the period statistic averages over.
const periodWindow = 50

// Topic is the subscription side of a broadcast channel. Every subscriber
// gets its own bounded buffer and sees every message published after it
// subscribed.
type Topic[T any] struct {
	name     string
	capacity int

	mu     sync.Mutex
	subs   map[*Subscriber[T]]struct{}
	closed bool

	published uint64
	rejected  uint64
	sendTimes []time.Time
}

// Publisher is the only handle that can send on its topic. NewTopic returns
// exactly one, so each topic has a single writer by construction.
type Publisher[T any] struct {
	topic *Topic[T]
}

// NewTopic creates a topic whose subscribers each buffer up to capacity messages.
func NewTopic[T any](name string, capacity int) *Publisher[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Publisher[T]{topic: &Topic[T]{
		name:     name,
		capacity: capacity,
		subs:     make(map[*Subscriber[T]]struct{}),
	}}
}

func (p *Publisher[T]) Topic() *Topic[T] { return p.topic }
func (t *Topic[T]) Name() string         { return t.name }

// Subscribe adds an independent cursor. Subscribing to a closed topic
// returns a subscriber that reports ErrDisconnected immediately.
func (t *Topic[T]) Subscribe() *Subscriber[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &Subscriber[T]{topic: t, ch: make(chan T, t.capacity)}
	if t.closed {
		close(s.ch)
		return s
	}
	t.subs[s] = struct{}{}
	return s
}

func (t *Topic[T]) unsubscribe(s *Subscriber[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.subs[s]; ok {
		delete(t.subs, s)
		close(s.ch)
	}
}

// TrySend delivers v to every subscriber without blocking. Subscribers whose
// buffer is full miss the message and the call returns ErrFull; the others
// still receive it. Sending on a closed topic returns ErrDisconnected.
func (p *Publisher[T]) TrySend(v T) error {
	t := p.topic
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("%s: %w", t.name, ErrDisconnected)
	}

	t.recordSend(time.Now())
	full := 0
	for s := range t.subs {
		select {
		case s.ch <- v:
		default:
			full++
		}
	}
	if full > 0 {
		t.rejected++
		return fmt.Errorf("%s: %w for %d of %d subscribers", t.name, ErrFull, full, len(t.subs))
	}
	return nil
}

// Close disconnects the topic. Subscribers drain what is buffered and then
// see ErrDisconnected.
func (p *Publisher[T]) Close() {
	t := p.topic
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for s := range t.subs {
		close(s.ch)
	}
	clear(t.subs)
}

func (t *Topic[T]) recordSend(now time.Time) {
	t.published++
	t.sendTimes = append(t.sendTimes, now)
	if len(t.sendTimes) > periodWindow+1 {
		t.sendTimes = t.sendTimes[1:]
	}
}

type Stats struct {
	Published   uint64
	Rejected    uint64
	Subscribers int
	// MeanPeriod averages the gaps between the last 50 publishes. Zero until
	// two messages have been sent.
	MeanPeriod time.Duration
}

func (p *Publisher[T]) Stats() Stats {
	t := p.topic
	t.mu.Lock()
	defer t.mu.Unlock()
	st := Stats{Published: t.published, Rejected: t.rejected, Subscribers: len(t.subs)}
	if n := len(t.sendTimes); n >= 2 {
		st.MeanPeriod = t.sendTimes[n-1].Sub(t.sendTimes[0]) / time.Duration(n-1)
	}
	return st
}
