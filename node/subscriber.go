package node

import (
	"context"
	"fmt"
)

// Subscriber is one consumer cursor on a topic. It is owned by a single
// node and not safe for concurrent use.
type Subscriber[T any] struct {
	topic *Topic[T]
	ch    chan T
	// head holds a message taken off the channel by Wait but not yet consumed.
	head *T
}

func (s *Subscriber[T]) err() error {
	return fmt.Errorf("%s: %w", s.topic.name, ErrDisconnected)
}

// Wait blocks until a message is pending or ctx is done. It does not consume
// the message.
func (s *Subscriber[T]) Wait(ctx context.Context) error {
	if s.head != nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case v, ok := <-s.ch:
		if !ok {
			return s.err()
		}
		s.head = &v
		return nil
	}
}

// Recv blocks for the next message.
func (s *Subscriber[T]) Recv(ctx context.Context) (T, error) {
	if err := s.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	v := *s.head
	s.head = nil
	return v, nil
}

// TryRecv returns the next message if one is pending.
func (s *Subscriber[T]) TryRecv() (T, bool, error) {
	var zero T
	if s.head != nil {
		v := *s.head
		s.head = nil
		return v, true, nil
	}
	select {
	case v, ok := <-s.ch:
		if !ok {
			return zero, false, s.err()
		}
		return v, true, nil
	default:
		return zero, false, nil
	}
}

// Dump returns every pending message in arrival order. Once the topic is
// closed and the buffer is empty it returns ErrDisconnected.
func (s *Subscriber[T]) Dump() ([]T, error) {
	var out []T
	for {
		v, ok, err := s.TryRecv()
		if err != nil {
			if len(out) > 0 {
				return out, nil
			}
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// TakeLast drains the buffer and keeps only the newest message.
func (s *Subscriber[T]) TakeLast() (T, bool, error) {
	var zero T
	all, err := s.Dump()
	if err != nil {
		return zero, false, err
	}
	if len(all) == 0 {
		return zero, false, nil
	}
	return all[len(all)-1], true, nil
}

// Unsubscribe detaches the cursor. What was already buffered can still be
// read, after that reads report ErrDisconnected.
func (s *Subscriber[T]) Unsubscribe() {
	s.topic.unsubscribe(s)
}

// Len is the number of buffered messages.
func (s *Subscriber[T]) Len() int {
	n := len(s.ch)
	if s.head != nil {
		n++
	}
	return n
}
