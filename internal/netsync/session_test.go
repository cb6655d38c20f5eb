package netsync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blastpong/internal/game"
	"github.com/lox/blastpong/internal/protocol"
)

type fakeConn struct {
	mu      sync.Mutex
	sent    []*protocol.Message
	closed  bool
	sendErr error
}

func (c *fakeConn) Send(m *protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, m)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) types() []protocol.MessageType {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []protocol.MessageType
	for _, m := range c.sent {
		out = append(out, m.Type)
	}
	return out
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestSession(t *testing.T, role game.Role) (*Session, *quartz.Mock, *fakeConn) {
	t.Helper()
	clock := quartz.NewMock(t)
	conn := &fakeConn{}
	s := NewSession(role, "session", clock, quietLogger())
	s.Connecting()
	require.Equal(t, ConnConnecting, s.State())
	s.Attach(conn)
	require.Equal(t, ConnConnected, s.State())
	return s, clock, conn
}

func message(t *testing.T, p protocol.Payload) *protocol.Message {
	t.Helper()
	m, err := protocol.NewMessage(p, time.Time{})
	require.NoError(t, err)
	return m
}

func advance(t *testing.T, clock *quartz.Mock, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	clock.Advance(d).MustWait(ctx)
}

func TestSessionStaleTimeout(t *testing.T) {
	s, clock, _ := newTestSession(t, game.RoleGuest)
	start := clock.Now()

	advance(t, clock, 5*time.Second)
	require.NoError(t, s.CheckLiveness(start), "silence has not exceeded the window")

	advance(t, clock, 500*time.Millisecond)
	err := s.CheckLiveness(start)
	require.ErrorIs(t, err, ErrConnectionLost)
	assert.Equal(t, EndTimeout, s.Termination())
	assert.Equal(t, "Connection lost", s.Termination().Notice())
}

func TestSessionLivenessGrace(t *testing.T) {
	s, clock, _ := newTestSession(t, game.RoleHost)

	advance(t, clock, 10*time.Second)
	// match only just started
	assert.NoError(t, s.CheckLiveness(clock.Now().Add(-time.Second)))
}

func TestSessionDeliveryKeepsAlive(t *testing.T) {
	s, clock, _ := newTestSession(t, game.RoleHost)
	start := clock.Now()

	for range 4 {
		advance(t, clock, 3*time.Second)
		s.Deliver(message(t, &protocol.LobbyPing{}))
		require.NoError(t, s.CheckLiveness(start))
	}
	assert.Equal(t, clock.Now(), s.LastReceived())
}

func TestSessionSelfDisconnectSuppressesTimeout(t *testing.T) {
	s, clock, conn := newTestSession(t, game.RoleGuest)
	start := clock.Now()

	s.Disconnect("quit")
	advance(t, clock, time.Minute)

	assert.NoError(t, s.CheckLiveness(start))
	assert.Equal(t, EndLocal, s.Termination())
	assert.Empty(t, s.Termination().Notice())
	assert.Equal(t, []protocol.MessageType{protocol.TypeDisconnectNotice}, conn.types())
	assert.True(t, conn.closed)

	s.ChannelClosed()
	assert.Equal(t, EndLocal, s.Termination())
}

func TestSessionPeerLeft(t *testing.T) {
	s, _, _ := newTestSession(t, game.RoleHost)

	s.Deliver(message(t, &protocol.DisconnectNotice{Reason: "quit"}))
	s.ChannelClosed()

	assert.Equal(t, EndPeerLeft, s.Termination())
	assert.Equal(t, ConnIdle, s.State())
}

func TestSessionChannelClosed(t *testing.T) {
	s, _, _ := newTestSession(t, game.RoleGuest)
	s.ChannelClosed()
	assert.Equal(t, EndChannelClosed, s.Termination())
}

func TestSessionLatestValues(t *testing.T) {
	s, _, _ := newTestSession(t, game.RoleHost)

	_, seq := s.LatestPaddle()
	assert.Zero(t, seq)

	s.Deliver(message(t, &protocol.PaddleUpdate{Y: 10}))
	s.Deliver(message(t, &protocol.PaddleUpdate{Y: 20, GestureCode: 2}))
	u, seq := s.LatestPaddle()
	assert.Equal(t, uint64(2), seq)
	assert.Equal(t, protocol.PaddleUpdate{Y: 20, GestureCode: 2}, u)

	assert.False(t, s.TakeResetRequest())
	s.Deliver(message(t, &protocol.ResetRequest{}))
	assert.True(t, s.TakeResetRequest())
	assert.False(t, s.TakeResetRequest())

	s.Deliver(message(t, &protocol.LobbySync{ControlMode: "hand", MatchPhase: "lobby"}))
	lobby, ok := s.Lobby()
	require.True(t, ok)
	assert.Equal(t, "hand", lobby.ControlMode)
}

func TestSessionGameStateMerges(t *testing.T) {
	s, _, _ := newTestSession(t, game.RoleGuest)

	_, seq := s.LatestGameState()
	assert.Zero(t, seq)

	s.Deliver(message(t, &protocol.GameState{HostPaddleY: 120, Score: protocol.ScoreState{Left: 2}}))
	s.Deliver(&protocol.Message{Type: protocol.TypeGameState, Data: json.RawMessage(`{"score":{"right":1}}`)})

	gs, seq := s.LatestGameState()
	assert.Equal(t, uint64(2), seq)
	assert.Equal(t, 120.0, gs.HostPaddleY)
	assert.Equal(t, protocol.ScoreState{Left: 2, Right: 1}, gs.Score)
}

func TestSessionDropsMalformed(t *testing.T) {
	s, clock, _ := newTestSession(t, game.RoleGuest)
	advance(t, clock, time.Second)

	s.Deliver(&protocol.Message{Type: "chat"})
	s.Deliver(&protocol.Message{Type: protocol.TypeGameState, Data: json.RawMessage(`{"ball":7}`)})

	assert.Equal(t, 2, s.Dropped())
	_, seq := s.LatestGameState()
	assert.Zero(t, seq)
	assert.Equal(t, clock.Now(), s.LastReceived(), "malformed traffic still proves the peer is alive")
	assert.Equal(t, EndNone, s.Termination())
}

func TestSessionSend(t *testing.T) {
	t.Run("idle session drops sends", func(t *testing.T) {
		s := NewSession(game.RoleHost, "x", quartz.NewMock(t), quietLogger())
		s.Send(&protocol.LobbyPing{})
	})

	t.Run("errors are swallowed", func(t *testing.T) {
		s, _, conn := newTestSession(t, game.RoleHost)
		conn.sendErr = errors.New("buffer full")
		s.Send(&protocol.LobbySync{})
		assert.Empty(t, conn.types())
	})

	t.Run("connected session sends", func(t *testing.T) {
		s, _, conn := newTestSession(t, game.RoleHost)
		s.Send(&protocol.LobbySync{ControlMode: "keyboard"})
		assert.Equal(t, []protocol.MessageType{protocol.TypeLobbySync}, conn.types())
	})
}
