package match

import (
	"context"
	"errors"
	"io"
	rand "math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blastpong/internal/game"
	"github.com/lox/blastpong/internal/input"
	"github.com/lox/blastpong/internal/netsync"
	"github.com/lox/blastpong/internal/protocol"
)

var errPipeClosed = errors.New("pipe closed")

// pipeConn delivers every message straight into the peer session after a
// trip through the wire encoding.
type pipeConn struct {
	peer *netsync.Session

	mu     sync.Mutex
	closed bool
}

func (c *pipeConn) Send(m *protocol.Message) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return errPipeClosed
	}

	b, err := protocol.Marshal(m)
	if err != nil {
		return err
	}
	decoded, err := protocol.Unmarshal(b)
	if err != nil {
		return err
	}
	c.peer.Deliver(decoded)
	return nil
}

func (c *pipeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.peer.ChannelClosed()
	return nil
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newSolo(t *testing.T, control game.ControlMode) *Match {
	t.Helper()
	m, err := New(Config{
		Role:    game.RoleSinglePlayer,
		Control: control,
		Rand:    rand.New(rand.NewPCG(1, 2)),
		Clock:   quartz.NewMock(t),
		Logger:  quietLogger(),
	})
	require.NoError(t, err)
	return m
}

type pair struct {
	clock        *quartz.Mock
	host, guest  *Match
	hostSession  *netsync.Session
	guestSession *netsync.Session
}

func newPair(t *testing.T, control game.ControlMode) *pair {
	t.Helper()
	clock := quartz.NewMock(t)
	hs := netsync.NewSession(game.RoleHost, "pair", clock, quietLogger())
	gs := netsync.NewSession(game.RoleGuest, "pair", clock, quietLogger())
	hs.Attach(&pipeConn{peer: gs})
	gs.Attach(&pipeConn{peer: hs})

	host, err := New(Config{
		Role:    game.RoleHost,
		Control: control,
		Rand:    rand.New(rand.NewPCG(3, 4)),
		Clock:   clock,
		Logger:  quietLogger(),
		Session: hs,
	})
	require.NoError(t, err)

	guest, err := New(Config{
		Role:    game.RoleGuest,
		Rand:    rand.New(rand.NewPCG(5, 6)),
		Clock:   clock,
		Logger:  quietLogger(),
		Session: gs,
	})
	require.NoError(t, err)

	return &pair{clock: clock, host: host, guest: guest, hostSession: hs, guestSession: gs}
}

// start takes both sides from the lobby into play.
func (p *pair) start(t *testing.T) {
	t.Helper()
	require.NoError(t, p.host.Start())
	p.guest.Step(Inputs{})
	require.Equal(t, game.PhasePlaying, p.guest.Phase())
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Role: game.RoleSinglePlayer})
	assert.ErrorIs(t, err, ErrNoRand)

	_, err = New(Config{Role: game.RoleHost, Rand: rand.New(rand.NewPCG(1, 1))})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSinglePlayer(t *testing.T) {
	t.Run("lobby holds the ball", func(t *testing.T) {
		m := newSolo(t, game.ControlKeyboard)
		m.Step(Inputs{})
		assert.Equal(t, game.PhaseLobby, m.Phase())
		assert.Equal(t, 400.0, m.State().Ball.X)
	})

	t.Run("start serves the ball", func(t *testing.T) {
		m := newSolo(t, game.ControlKeyboard)
		require.NoError(t, m.Start())
		status := m.Step(Inputs{})

		assert.False(t, status.Ended)
		s := m.State()
		assert.Equal(t, game.PhasePlaying, s.Phase)
		assert.Equal(t, 405.0, s.Ball.X)
		assert.Equal(t, 303.0, s.Ball.Y)
		assert.Equal(t, int64(1), s.Tick)
	})

	t.Run("keys move and charge the local paddle", func(t *testing.T) {
		m := newSolo(t, game.ControlKeyboard)
		require.NoError(t, m.Start())

		m.Step(Inputs{Keys: input.KeyState{Up: true}})
		assert.Equal(t, 242.0, m.State().Paddle(game.SideLeft).Y)

		for range 10 {
			m.Step(Inputs{Keys: input.KeyState{Charge: true}})
		}
		assert.InDelta(t, 15.0, m.State().Power(game.SideLeft).Charge, 1e-9)
	})

	t.Run("stop ends the session", func(t *testing.T) {
		m := newSolo(t, game.ControlKeyboard)
		require.NoError(t, m.Start())
		m.Stop()
		assert.True(t, m.Step(Inputs{}).Ended)
	})
}

func flatPose(y float64) *input.HandPose {
	return &input.HandPose{
		X:         0.5,
		Y:         y,
		Landmarks: make([]input.Landmark, input.LandmarkCount),
	}
}

func TestHandControl(t *testing.T) {
	m := newSolo(t, game.ControlHand)
	require.NoError(t, m.Start())

	m.Step(Inputs{})
	snap := m.Snapshot()
	assert.Equal(t, "no hand detected", snap.Debug)
	assert.Empty(t, snap.Landmarks)
	assert.Equal(t, 250.0, snap.Paddle(game.SideLeft).Y, "paddle holds without a hand")

	m.Step(Inputs{Pose: flatPose(0.25)})
	snap = m.Snapshot()
	assert.Equal(t, "Fingers: 0 | Squeeze: N", snap.Debug)
	assert.Len(t, snap.Landmarks, input.LandmarkCount)
	assert.Equal(t, 100.0, snap.Paddle(game.SideLeft).Y)
}

func TestAutopilotPlaysBothSides(t *testing.T) {
	m, err := New(Config{
		Role:      game.RoleSinglePlayer,
		Rand:      rand.New(rand.NewPCG(9, 9)),
		Clock:     quartz.NewMock(t),
		Logger:    quietLogger(),
		Autopilot: true,
	})
	require.NoError(t, err)
	require.NoError(t, m.Start())

	for range 5000 {
		m.Step(Inputs{})
		s := m.State()
		require.NoError(t, s.Validate(), "tick %d", s.Tick)
	}
}

func TestStartRules(t *testing.T) {
	p := newPair(t, game.ControlKeyboard)
	assert.ErrorIs(t, p.guest.Start(), ErrGuestStart)

	p.hostSession.Disconnect("")
	assert.ErrorIs(t, p.host.Start(), ErrNotConnected)
}

func TestLobby(t *testing.T) {
	p := newPair(t, game.ControlHand)

	p.host.Step(Inputs{})
	p.guest.Step(Inputs{})
	assert.Equal(t, game.ControlHand, p.guest.State().Control, "guest adopts the host's control mode")
	assert.Equal(t, game.PhaseLobby, p.guest.Phase())

	require.NoError(t, p.host.Start())
	p.guest.Step(Inputs{})
	assert.Equal(t, game.PhasePlaying, p.guest.Phase())
}

func TestHostAndGuestStayInSync(t *testing.T) {
	p := newPair(t, game.ControlKeyboard)
	p.start(t)

	for range 20 {
		p.guest.Step(Inputs{Keys: input.KeyState{Down: true}})
		p.host.Step(Inputs{})
	}
	guestPaddle := p.guest.State().Paddle(game.SideRight).Y
	assert.Equal(t, 410.0, guestPaddle)
	assert.Equal(t, guestPaddle, p.host.State().Paddle(game.SideRight).Y)

	p.guest.Step(Inputs{})
	host, guest := p.host.State(), p.guest.State()
	assert.Equal(t, host.Ball, guest.Ball)
	assert.Equal(t, host.Paddle(game.SideLeft).Y, guest.Paddle(game.SideLeft).Y)
	assert.Equal(t, host.Score, guest.Score)
}

func TestGuestChargeReachesHost(t *testing.T) {
	p := newPair(t, game.ControlKeyboard)
	p.start(t)

	for range 10 {
		p.guest.Step(Inputs{Keys: input.KeyState{Charge: true}})
		p.host.Step(Inputs{})
	}
	assert.InDelta(t, 15.0, p.guest.State().Power(game.SideRight).Charge, 1e-9)
	assert.InDelta(t, 15.0, p.host.State().Power(game.SideRight).Charge, 1e-9)
}

func TestHostDebouncesGuestGesturePerUpdate(t *testing.T) {
	p := newPair(t, game.ControlHand)
	p.start(t)
	p.host.state.Ball.VX = -5

	deliver := func() {
		m, err := protocol.NewMessage(&protocol.PaddleUpdate{Y: 250, GestureCode: 2}, time.Time{})
		require.NoError(t, err)
		p.hostSession.Deliver(m)
	}

	deliver()
	for range 10 {
		p.host.Step(Inputs{})
	}
	assert.False(t, p.host.State().Ghost.Active(), "a stalled update counts once")

	for range 4 {
		deliver()
		p.host.Step(Inputs{})
	}
	ghost := p.host.State().Ghost
	assert.True(t, ghost.Active())
	assert.Equal(t, game.SideRight, ghost.Owner)
}

func TestGuestResetRequest(t *testing.T) {
	p := newPair(t, game.ControlKeyboard)
	p.start(t)

	p.host.state.Score = game.Score{Left: 4, Right: 2}
	p.guest.Reset()
	p.host.Step(Inputs{})
	assert.Equal(t, game.Score{}, p.host.State().Score)

	p.guest.Step(Inputs{})
	assert.Equal(t, game.Score{}, p.guest.State().Score)
}

func TestGuestReplaysScoreEvents(t *testing.T) {
	p := newPair(t, game.ControlKeyboard)

	var got []game.Event
	p.guest.cfg.Events = func(e game.Event, _ game.Side) { got = append(got, e) }
	p.start(t)

	p.host.state.Score = game.Score{Left: 19}
	p.host.state.Ball.X, p.host.state.Ball.Y = 790, 500
	p.host.state.Ball.VX = 20
	p.host.Step(Inputs{})
	p.guest.Step(Inputs{})

	assert.Equal(t, []game.Event{game.EventScore, game.EventWin}, got)
	assert.Equal(t, game.SideLeft, p.guest.State().Winner)
	assert.Equal(t, game.PhaseFinished, p.guest.Phase())
}

func TestSessionEnds(t *testing.T) {
	t.Run("peer leaves", func(t *testing.T) {
		p := newPair(t, game.ControlKeyboard)
		p.start(t)

		p.guest.Stop()
		status := p.host.Step(Inputs{})
		assert.True(t, status.Ended)
		assert.Equal(t, "Opponent left the match", status.Notice)
		assert.Equal(t, "Opponent left the match", p.host.Snapshot().Notice)
	})

	t.Run("local quit has no notice", func(t *testing.T) {
		p := newPair(t, game.ControlKeyboard)
		p.start(t)

		p.host.Stop()
		assert.Equal(t, Status{Ended: true}, p.host.Step(Inputs{}))
	})

	t.Run("channel closes", func(t *testing.T) {
		p := newPair(t, game.ControlKeyboard)
		p.start(t)

		p.hostSession.ChannelClosed()
		status := p.host.Step(Inputs{})
		assert.True(t, status.Ended)
		assert.Equal(t, "Connection closed", status.Notice)
	})

	t.Run("silent peer times out", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		p := newPair(t, game.ControlKeyboard)
		p.start(t)

		p.clock.Advance(netsync.StaleAfter).MustWait(ctx)
		assert.False(t, p.host.Step(Inputs{}).Ended)

		p.clock.Advance(time.Second).MustWait(ctx)
		status := p.host.Step(Inputs{})
		assert.True(t, status.Ended)
		assert.Equal(t, "Connection lost", status.Notice)
	})
}

func TestRunner(t *testing.T) {
	t.Run("returns when the match ends", func(t *testing.T) {
		m := newSolo(t, game.ControlKeyboard)
		m.Stop()

		r := &Runner{Match: m}
		status, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.True(t, status.Ended)
	})

	t.Run("stops on cancel", func(t *testing.T) {
		m := newSolo(t, game.ControlKeyboard)
		require.NoError(t, m.Start())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		frames := 0
		r := &Runner{
			Match:  m,
			Inputs: func() Inputs { return Inputs{Keys: input.KeyState{Down: true}} },
			Frame: func(_ game.Snapshot, _ Status) {
				frames++
				if frames == 3 {
					cancel()
				}
			},
		}
		status, err := r.Run(ctx)
		require.NoError(t, err)
		assert.False(t, status.Ended)
		assert.GreaterOrEqual(t, frames, 3)
		assert.Greater(t, m.State().Paddle(game.SideLeft).Y, 250.0)
	})

	t.Run("cancelling a host tells the guest", func(t *testing.T) {
		p := newPair(t, game.ControlKeyboard)
		p.start(t)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		frames := 0
		r := &Runner{
			Match: p.host,
			Frame: func(_ game.Snapshot, _ Status) {
				frames++
				if frames == 3 {
					cancel()
				}
			},
		}
		status, err := r.Run(ctx)
		require.NoError(t, err)
		assert.True(t, status.Ended)
		assert.Empty(t, status.Notice)
		assert.Equal(t, netsync.EndLocal, p.hostSession.Termination())
		assert.Equal(t, netsync.EndPeerLeft, p.guestSession.Termination())

		guest := p.guest.Step(Inputs{})
		assert.True(t, guest.Ended)
		assert.Equal(t, "Opponent left the match", guest.Notice)
	})
}

func TestAutopilotHostStartsOnceConnected(t *testing.T) {
	clock := quartz.NewMock(t)
	hs := netsync.NewSession(game.RoleHost, "auto", clock, quietLogger())
	host, err := New(Config{
		Role:      game.RoleHost,
		Rand:      rand.New(rand.NewPCG(1, 1)),
		Clock:     clock,
		Logger:    quietLogger(),
		Session:   hs,
		Autopilot: true,
	})
	require.NoError(t, err)

	host.Step(Inputs{})
	assert.Equal(t, game.PhaseLobby, host.Phase(), "no guest yet")

	gs := netsync.NewSession(game.RoleGuest, "auto", clock, quietLogger())
	hs.Attach(&pipeConn{peer: gs})
	host.Step(Inputs{})
	assert.Equal(t, game.PhasePlaying, host.Phase())
}
