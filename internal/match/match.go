// Package match composes input, powers, physics and replication into one
// tick of play for a single-player, host or guest session.
package match

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blastpong/internal/game"
	"github.com/lox/blastpong/internal/gesture"
	"github.com/lox/blastpong/internal/input"
	"github.com/lox/blastpong/internal/netsync"
	"github.com/lox/blastpong/internal/protocol"
)

var (
	ErrNoSession    = errors.New("match: host and guest need a session")
	ErrNoRand       = errors.New("match: a random source is required")
	ErrNotConnected = errors.New("match: no guest connected")
	ErrGuestStart   = errors.New("match: only the host starts a match")
)

// Config describes one session.
type Config struct {
	Role    game.Role
	Control game.ControlMode
	Rand    game.Rand
	Clock   quartz.Clock
	Logger  *log.Logger
	Events  game.EventSink

	// Session is required for RoleHost and RoleGuest.
	Session *netsync.Session

	// Autopilot hands the local paddle to the heuristic opponent.
	Autopilot bool
}

// Inputs is the raw local input for one tick.
type Inputs struct {
	Keys input.KeyState
	Pose *input.HandPose
}

// Status tells the caller whether the session is over.
type Status struct {
	Ended  bool
	Notice string
}

// Match owns the MatchState for one session.
type Match struct {
	cfg    Config
	logger *log.Logger

	state      game.MatchState
	stabilizer *gesture.Stabilizer[game.Side]
	power      *game.PowerSystem
	physics    *game.Physics
	opponent   *game.Opponent
	autopilot  *game.Opponent

	startedAt  time.Time
	lobbyTicks int
	stateSeq   uint64
	paddleSeq  uint64
	guestCode  int
	intent     input.Intent
	pose       *input.HandPose
	status     Status
}

// New validates cfg and returns a match in the lobby phase.
func New(cfg Config) (*Match, error) {
	if cfg.Rand == nil {
		return nil, ErrNoRand
	}
	if cfg.Role != game.RoleSinglePlayer && cfg.Session == nil {
		return nil, ErrNoSession
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	m := &Match{
		cfg:        cfg,
		logger:     cfg.Logger.WithPrefix("match").With("role", cfg.Role.String()),
		state:      game.NewMatchState(cfg.Role, cfg.Control),
		stabilizer: gesture.NewStabilizer[game.Side](),
		power:      game.NewPowerSystem(cfg.Rand, cfg.Events),
		physics:    game.NewPhysics(cfg.Events),
	}
	if cfg.Role == game.RoleSinglePlayer {
		m.opponent = game.NewOpponent(m.state.LocalSide.Opponent(), cfg.Rand)
	}
	if cfg.Autopilot {
		m.autopilot = game.NewOpponent(m.state.LocalSide, cfg.Rand)
	}
	return m, nil
}

// State returns a copy of the match state.
func (m *Match) State() game.MatchState {
	s := m.state
	s.Decoys = append([]game.Decoy(nil), m.state.Decoys...)
	return s
}

// Phase returns the current phase.
func (m *Match) Phase() game.Phase { return m.state.Phase }

// Start moves a single-player or host match from the lobby into play.
func (m *Match) Start() error {
	switch m.cfg.Role {
	case game.RoleGuest:
		return ErrGuestStart
	case game.RoleHost:
		if m.cfg.Session.State() != netsync.ConnConnected {
			return ErrNotConnected
		}
	}
	if m.state.Phase != game.PhaseLobby {
		return nil
	}

	m.begin()
	if m.cfg.Role == game.RoleHost {
		m.cfg.Session.Send(m.lobbySync())
	}
	m.logger.Info("Match started", "control", m.state.Control)
	return nil
}

func (m *Match) begin() {
	m.state.Reset()
	m.stabilizer.ResetAll()
	m.guestCode = gesture.None
	m.startedAt = m.cfg.Clock.Now()
}

// Reset starts a fresh match. The guest asks the host instead.
func (m *Match) Reset() {
	if m.status.Ended {
		return
	}
	if m.cfg.Role == game.RoleGuest {
		m.cfg.Session.Send(&protocol.ResetRequest{})
		return
	}
	if m.state.Phase == game.PhaseLobby {
		return
	}
	m.begin()
	m.logger.Info("Match reset")
}

// Stop ends the session, telling the peer if there is one.
func (m *Match) Stop() {
	if m.status.Ended {
		return
	}
	if m.cfg.Session != nil {
		m.cfg.Session.Disconnect("quit")
	}
	m.status = Status{Ended: true}
	m.logger.Info("Match stopped", "score", m.state.Score)
}

// Step advances the match by one tick.
func (m *Match) Step(in Inputs) Status {
	if m.status.Ended {
		return m.status
	}

	switch {
	case m.state.Phase == game.PhaseLobby:
		m.stepLobby()
	case m.cfg.Role == game.RoleGuest:
		m.stepGuest(in)
	default:
		m.stepAuthority(in)
	}
	m.state.Tick++

	m.checkSession()
	return m.status
}

func (m *Match) stepLobby() {
	m.lobbyTicks++
	switch m.cfg.Role {
	case game.RoleHost:
		if m.lobbyTicks%netsync.LobbyPeriod == 1 {
			m.cfg.Session.Send(m.lobbySync())
		}
		connected := m.cfg.Session.State() == netsync.ConnConnected
		if connected && (m.autopilot != nil || m.cfg.Session.TakeResetRequest()) {
			_ = m.Start()
		}

	case game.RoleGuest:
		if m.lobbyTicks%netsync.LobbyPeriod == 1 {
			m.cfg.Session.Send(&protocol.LobbyPing{})
		}
		if lobby, ok := m.cfg.Session.Lobby(); ok {
			if mode, err := game.ParseControlMode(lobby.ControlMode); err == nil {
				m.state.Control = mode
			}
			if game.ParsePhase(lobby.MatchPhase) == game.PhasePlaying {
				m.begin()
			}
		}
		if gs, seq := m.cfg.Session.LatestGameState(); seq != m.stateSeq {
			m.stateSeq = seq
			if game.ParsePhase(gs.MatchPhase) != game.PhaseLobby {
				m.begin()
				netsync.ApplyGameState(&m.state, gs)
			}
		}
	}
}

func (m *Match) lobbySync() *protocol.LobbySync {
	return &protocol.LobbySync{
		ControlMode: m.state.Control.String(),
		MatchPhase:  m.state.Phase.String(),
	}
}

// stepAuthority runs a tick on the side that owns physics.
func (m *Match) stepAuthority(in Inputs) {
	local := m.state.LocalSide
	remote := local.Opponent()

	localIntent := m.resolveLocal(in)
	intents := map[game.Side]game.SideIntent{local: localIntent}

	switch m.cfg.Role {
	case game.RoleSinglePlayer:
		d := m.opponent.Decide(m.state.Ball, *m.state.Paddle(remote), *m.state.Power(remote))
		m.state.Paddle(remote).SetY(d.Y)
		intents[remote] = d.Intent()

	case game.RoleHost:
		if m.cfg.Session.TakeResetRequest() {
			m.begin()
			m.logger.Info("Match reset by guest")
		}
		intents[remote] = game.SideIntent{ChargeRate: game.HumanChargeRate}
		if u, seq := m.cfg.Session.LatestPaddle(); seq != 0 {
			m.state.Paddle(remote).SetY(u.Y)
			// one stabilizer sample per update, however long packets stall
			if seq != m.paddleSeq {
				m.paddleSeq = seq
				m.guestCode = m.stabilizer.Push(remote, u.GestureCode)
			}
			intents[remote] = netsync.GuestIntent(u, m.guestCode)
		}
	}

	if m.state.Phase == game.PhasePlaying {
		m.power.Tick(&m.state, intents[game.SideLeft], intents[game.SideRight])
		m.physics.Step(&m.state)
	}

	if m.cfg.Role == game.RoleHost {
		gs := netsync.BuildGameState(&m.state)
		m.cfg.Session.Send(&gs)
	}
}

// stepGuest runs the guest's local prediction and mirrors the host.
func (m *Match) stepGuest(in Inputs) {
	local := m.state.LocalSide
	intent := m.resolveLocal(in)

	if m.state.Phase == game.PhasePlaying {
		game.Countdown(&m.state)
		game.ApplyCharge(m.state.Power(local), m.state.Tick, intent)
	}

	u := netsync.BuildPaddleUpdate(&m.state, m.intent.IsCharging, m.intent.GestureCode)
	m.cfg.Session.Send(&u)

	if gs, seq := m.cfg.Session.LatestGameState(); seq != m.stateSeq {
		m.stateSeq = seq
		prev := m.state.Score
		netsync.ApplyGameState(&m.state, gs)
		m.announceScore(prev)
	}
}

// announceScore replays score and win events the guest only sees in
// snapshots.
func (m *Match) announceScore(prev game.Score) {
	if m.cfg.Events == nil {
		return
	}
	for _, side := range game.Sides {
		if m.state.Score.Of(side) > prev.Of(side) {
			m.cfg.Events(game.EventScore, side)
			if m.state.Winner == side {
				m.cfg.Events(game.EventWin, side)
			}
		}
	}
}

// resolveLocal turns raw input into the local side's power input and moves
// the local paddle. Human gestures go through the stabilizer; autopilot
// gestures do not.
func (m *Match) resolveLocal(in Inputs) game.SideIntent {
	local := m.state.LocalSide
	paddle := m.state.Paddle(local)

	if m.autopilot != nil {
		d := m.autopilot.Decide(m.state.Ball, *paddle, *m.state.Power(local))
		paddle.SetY(d.Y)
		m.intent = input.Intent{IsCharging: d.ShouldCharge, GestureCode: d.GestureCode}
		return d.Intent()
	}

	switch m.state.Control {
	case game.ControlHand:
		m.pose = in.Pose
		m.intent = input.ResolvePose(in.Pose, game.CourtHeight)
	default:
		m.pose = nil
		m.intent = input.ResolveKeys(in.Keys, paddle.Y, paddle.Height)
	}
	if m.intent.Move {
		paddle.MoveTo(m.intent.TargetY)
	}

	stable := m.stabilizer.Push(local, m.intent.GestureCode)
	return m.intent.SideIntent(stable)
}

// checkSession ends the match when the peer leaves, the channel closes or
// the peer goes silent.
func (m *Match) checkSession() {
	s := m.cfg.Session
	if s == nil || m.status.Ended {
		return
	}

	if m.state.Phase == game.PhasePlaying {
		if err := s.CheckLiveness(m.startedAt); err != nil {
			m.logger.Warn("Ending match", "error", err)
		}
	}

	reason := s.Termination()
	if reason == netsync.EndNone {
		return
	}
	m.status = Status{Ended: true, Notice: reason.Notice()}
	if reason != netsync.EndLocal {
		s.Disconnect("")
	}
	m.logger.Info("Session ended", "reason", m.status.Notice)
}

// Snapshot returns the render contract for the current tick.
func (m *Match) Snapshot() game.Snapshot {
	snap := m.state.Snapshot()
	snap.Notice = m.status.Notice
	if m.state.Control == game.ControlHand && m.autopilot == nil {
		snap.Debug = m.intent.Describe()
		if m.pose.Valid() {
			snap.Landmarks = make([]game.Point, len(m.pose.Landmarks))
			for i, lm := range m.pose.Landmarks {
				snap.Landmarks[i] = game.Point{X: lm.X, Y: lm.Y}
			}
		}
	}
	return snap
}
