package ipc

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/sfunderbots/robocore/backend"
	"github.com/sfunderbots/robocore/gamestate"
	"github.com/sfunderbots/robocore/model"
	"github.com/sfunderbots/robocore/motion"
	"github.com/sfunderbots/robocore/node"
	"github.com/sfunderbots/robocore/perception"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	env, err := NewEnvelope(TypeAck, AckMessage{Status: "ok", Session: "abc"})
	require.NoError(t, err)
	require.NoError(t, WriteEnvelope(&buf, env))

	assert.Equal(t, uint32(buf.Len()-4), binary.LittleEndian.Uint32(buf.Bytes()[:4]))

	got, err := ReadEnvelope(&buf, 1<<10)
	require.NoError(t, err)
	assert.Equal(t, TypeAck, got.Type)
	var ack AckMessage
	require.NoError(t, got.Decode(&ack))
	assert.Equal(t, AckMessage{Status: "ok", Session: "abc"}, ack)
}

func TestReadEnvelopeRejectsBadLength(t *testing.T) {
	frame := func(n uint32) *bytes.Buffer {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, n))
		return &buf
	}
	_, err := ReadEnvelope(frame(0), 64)
	assert.ErrorIs(t, err, ErrFrameSize)
	_, err = ReadEnvelope(frame(65), 64)
	assert.ErrorIs(t, err, ErrFrameSize)

	_, err = ReadEnvelope(bytes.NewBufferString("\x05\x00\x00\x00{\"ty"), 64)
	assert.Error(t, err)
}

type bridgeHarness struct {
	bridge       *Bridge
	referee      *node.Subscriber[gamestate.Referee]
	detections   *node.Subscriber[perception.DetectionFrame]
	control      *node.Publisher[backend.RobotControl]
	trajectories *node.Publisher[model.Trajectories]
}

func newBridgeHarness() *bridgeHarness {
	referee := node.NewTopic[gamestate.Referee]("referee", 4)
	detections := node.NewTopic[perception.DetectionFrame]("detections", 4)
	control := node.NewTopic[backend.RobotControl]("control", 4)
	trajectories := node.NewTopic[model.Trajectories]("trajectories", 4)
	h := &bridgeHarness{
		referee:      referee.Topic().Subscribe(),
		detections:   detections.Topic().Subscribe(),
		control:      control,
		trajectories: trajectories,
	}
	h.bridge = NewBridge(1<<16, referee, detections, control.Topic().Subscribe(), trajectories.Topic().Subscribe())
	return h
}

func send(t *testing.T, conn net.Conn, msgType string, data any) {
	t.Helper()
	env, err := NewEnvelope(msgType, data)
	require.NoError(t, err)
	require.NoError(t, WriteEnvelope(conn, env))
}

func TestBridgeEndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newBridgeHarness()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- h.bridge.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	send(t, conn, TypeHello, HelloMessage{Client: "simulator"})
	env, err := ReadEnvelope(conn, 1<<16)
	require.NoError(t, err)
	require.Equal(t, TypeAck, env.Type)
	var ack AckMessage
	require.NoError(t, env.Decode(&ack))
	assert.Equal(t, "ok", ack.Status)
	assert.NotEmpty(t, ack.Session)
	assert.Equal(t, 1, h.bridge.Clients())

	send(t, conn, "telemetry", map[string]int{"x": 1})
	send(t, conn, TypeReferee, map[string]any{
		"command": "PREPARE_KICKOFF_BLUE",
		"blue":    map[string]any{"name": "Underbots", "goalkeeper": 2},
	})
	send(t, conn, TypeDetection, map[string]any{
		"capture_time": 1.5,
		"blue":         []map[string]any{{"id": 4, "position": map[string]float64{"x": 1, "y": 2}, "orientation": 0.5}},
	})

	recvCtx, recvCancel := context.WithTimeout(ctx, 2*time.Second)
	defer recvCancel()
	ref, err := h.referee.Recv(recvCtx)
	require.NoError(t, err)
	assert.Equal(t, gamestate.PrepareKickoffBlue, ref.Command)
	assert.Equal(t, 2, ref.Blue.Goalkeeper)

	frame, err := h.detections.Recv(recvCtx)
	require.NoError(t, err)
	require.Len(t, frame.Blue, 1)
	require.NotNil(t, frame.Blue[0].ID)
	assert.Equal(t, 4, *frame.Blue[0].ID)
	assert.Nil(t, frame.Ball)

	require.NoError(t, h.control.TrySend(backend.RobotControl{Commands: []motion.Command{{ID: 4, Forward: 1.5}}}))
	require.NoError(t, h.bridge.RunOnce(ctx))

	env, err = ReadEnvelope(conn, 1<<16)
	require.NoError(t, err)
	require.Equal(t, TypeRobotControl, env.Type)
	var rc backend.RobotControl
	require.NoError(t, env.Decode(&rc))
	assert.Equal(t, []motion.Command{{ID: 4, Forward: 1.5}}, rc.Commands)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestBridgeSkipsClientsBeforeHello(t *testing.T) {
	h := newBridgeHarness()
	server, client := net.Pipe()
	defer client.Close()
	c := h.bridge.attach(server)
	defer c.Close()

	require.NoError(t, h.trajectories.TrySend(model.Trajectories{}))
	require.NoError(t, h.bridge.RunOnce(context.Background()))
	assert.Zero(t, h.bridge.Clients())

	h.bridge.detach(c)
	h.bridge.mu.Lock()
	assert.Empty(t, h.bridge.conns)
	h.bridge.mu.Unlock()
}

func TestBridgeIgnoresInputBeforeHello(t *testing.T) {
	h := newBridgeHarness()
	server, client := net.Pipe()
	defer client.Close()
	c := h.bridge.attach(server)
	defer c.Close()

	ref, err := NewEnvelope(TypeReferee, gamestate.Referee{Command: gamestate.Stop})
	require.NoError(t, err)
	det, err := NewEnvelope(TypeDetection, perception.DetectionFrame{})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = h.bridge.handleReferee(ctx, c, ref)
	require.NoError(t, err)
	_, err = h.bridge.handleDetection(ctx, c, det)
	require.NoError(t, err)
	assert.Zero(t, h.referee.Len())
	assert.Zero(t, h.detections.Len())

	c.setClient("simulator")
	_, err = h.bridge.handleReferee(ctx, c, ref)
	require.NoError(t, err)
	_, err = h.bridge.handleDetection(ctx, c, det)
	require.NoError(t, err)
	assert.Equal(t, 1, h.referee.Len())
	assert.Equal(t, 1, h.detections.Len())
}
