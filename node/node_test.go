package node

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestBroadcastToEverySubscriber(t *testing.T) {
	pub := NewTopic[int]("numbers", 4)
	a := pub.Topic().Subscribe()
	b := pub.Topic().Subscribe()

	require.NoError(t, pub.TrySend(1))
	require.NoError(t, pub.TrySend(2))

	gotA, err := a.Dump()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, gotA)

	// b is an independent cursor and still has both.
	last, ok, err := b.TakeLast()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, last)

	_, ok, err = b.TakeLast()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLateSubscriberMissesEarlierMessages(t *testing.T) {
	pub := NewTopic[string]("late", 2)
	require.NoError(t, pub.TrySend("early"))

	s := pub.Topic().Subscribe()
	require.NoError(t, pub.TrySend("late"))

	got, err := s.Dump()
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, got)
}

func TestTrySendRejectsWhenFull(t *testing.T) {
	pub := NewTopic[int]("full", 1)
	slow := pub.Topic().Subscribe()
	fast := pub.Topic().Subscribe()

	require.NoError(t, pub.TrySend(1))
	_, _, err := fast.TryRecv()
	require.NoError(t, err)

	err = pub.TrySend(2)
	assert.ErrorIs(t, err, ErrFull)

	// The fast subscriber still got the second message; the slow one kept
	// the oldest.
	v, ok, err := fast.TryRecv()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	got, err := slow.Dump()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)

	st := pub.Stats()
	assert.Equal(t, uint64(2), st.Published)
	assert.Equal(t, uint64(1), st.Rejected)
	assert.Equal(t, 2, st.Subscribers)
}

func TestCloseDrainsThenDisconnects(t *testing.T) {
	pub := NewTopic[int]("closing", 4)
	s := pub.Topic().Subscribe()
	require.NoError(t, pub.TrySend(7))
	pub.Close()

	got, err := s.Dump()
	require.NoError(t, err)
	assert.Equal(t, []int{7}, got)

	_, err = s.Dump()
	assert.ErrorIs(t, err, ErrDisconnected)
	_, err = s.Recv(context.Background())
	assert.ErrorIs(t, err, ErrDisconnected)
	assert.ErrorIs(t, pub.TrySend(8), ErrDisconnected)

	late := pub.Topic().Subscribe()
	_, _, err = late.TryRecv()
	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestUnsubscribe(t *testing.T) {
	pub := NewTopic[int]("unsub", 4)
	s := pub.Topic().Subscribe()
	s.Unsubscribe()

	require.NoError(t, pub.TrySend(1))
	assert.Equal(t, 0, pub.Stats().Subscribers)
	_, err := s.Dump()
	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestWaitDoesNotConsume(t *testing.T) {
	pub := NewTopic[int]("wait", 4)
	s := pub.Topic().Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)

	require.NoError(t, pub.TrySend(1))
	require.NoError(t, pub.TrySend(2))
	require.NoError(t, s.Wait(context.Background()))
	assert.Equal(t, 2, s.Len())

	got, err := s.Dump()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
}

func TestMeanPeriod(t *testing.T) {
	pub := NewTopic[int]("period", 100)
	assert.Zero(t, pub.Stats().MeanPeriod)

	base := time.Unix(0, 0)
	for i := range 60 {
		pub.topic.recordSend(base.Add(time.Duration(i) * 10 * time.Millisecond))
	}
	assert.Equal(t, 10*time.Millisecond, pub.Stats().MeanPeriod)
	assert.Len(t, pub.topic.sendTimes, periodWindow+1)
}

type countingNode struct {
	name   string
	runs   atomic.Int64
	failAt int64
}

func (n *countingNode) Name() string { return n.name }

func (n *countingNode) RunOnce(ctx context.Context) error {
	c := n.runs.Add(1)
	if n.failAt > 0 && c >= n.failAt {
		return errors.New("boom")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Millisecond):
		return nil
	}
}

func TestRunThreadedStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := &countingNode{name: "a"}
	b := &countingNode{name: "b"}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunThreaded(ctx, a, b) }()

	require.Eventually(t, func() bool { return a.runs.Load() > 2 && b.runs.Load() > 2 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestRunThreadedFatalErrorStopsAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	healthy := &countingNode{name: "healthy"}
	failing := &countingNode{name: "failing", failAt: 3}

	err := RunThreaded(context.Background(), healthy, failing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node failing")
}

func TestRunThreadedDisconnectIsFatal(t *testing.T) {
	defer goleak.VerifyNone(t)

	pub := NewTopic[int]("upstream", 1)
	s := pub.Topic().Subscribe()
	reader := nodeFunc{name: "reader", run: func(ctx context.Context) error {
		_, err := s.Recv(ctx)
		return err
	}}
	pub.Close()

	err := RunThreaded(context.Background(), reader)
	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestSynchronousStepsInOrder(t *testing.T) {
	var order []string
	mk := func(name string) Node {
		return nodeFunc{name: name, run: func(context.Context) error {
			order = append(order, name)
			return nil
		}}
	}
	s := NewSynchronous(mk("perception"), mk("gameplay"), mk("backend"))
	require.NoError(t, s.Step(context.Background()))
	require.NoError(t, s.Step(context.Background()))

	assert.Equal(t, []string{"perception", "gameplay", "backend", "perception", "gameplay", "backend"}, order)
	assert.Equal(t, 2, s.Rounds())
}

func TestPacedLimitsRate(t *testing.T) {
	n := &countingNode{name: "paced"}
	p := Paced(n, 20*time.Millisecond)
	assert.Equal(t, "paced", p.Name())

	start := time.Now()
	for range 3 {
		require.NoError(t, p.RunOnce(context.Background()))
	}
	// The first run uses the burst token; the next two wait a period each.
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.RunOnce(ctx), context.Canceled)
}

type nodeFunc struct {
	name string
	run  func(ctx context.Context) error
}

func (n nodeFunc) Name() string                      { return n.name }
func (n nodeFunc) RunOnce(ctx context.Context) error { return n.run(ctx) }
