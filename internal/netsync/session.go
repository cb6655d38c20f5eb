package netsync

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blastpong/internal/game"
	"github.com/lox/blastpong/internal/protocol"
)

// Liveness windows.
const (
	StartGrace  = 2 * time.Second
	StaleAfter  = 5 * time.Second
	LobbyPeriod = 30 // ticks between lobby keepalives
)

var ErrConnectionLost = errors.New("netsync: connection lost")

// Conn is the outbound half of the transport.
type Conn interface {
	Send(*protocol.Message) error
	Close() error
}

// ConnectionState is the coarse transport state.
type ConnectionState int

const (
	ConnIdle ConnectionState = iota
	ConnConnecting
	ConnConnected
)

func (c ConnectionState) String() string {
	switch c {
	case ConnConnecting:
		return "connecting"
	case ConnConnected:
		return "connected"
	default:
		return "idle"
	}
}

// EndReason records why a session stopped.
type EndReason int

const (
	EndNone EndReason = iota
	EndPeerLeft
	EndChannelClosed
	EndTimeout
	EndLocal
)

// Notice is the user-facing text for the reason, empty for EndNone and
// EndLocal.
func (r EndReason) Notice() string {
	switch r {
	case EndPeerLeft:
		return "Opponent left the match"
	case EndChannelClosed:
		return "Connection closed"
	case EndTimeout:
		return "Connection lost"
	default:
		return ""
	}
}

// Session is one side of a host/guest pairing.
type Session struct {
	role   game.Role
	id     string
	clock  quartz.Clock
	logger *log.Logger

	mu       sync.Mutex
	conn     Conn
	state    ConnectionState
	lastRecv time.Time

	paddle      protocol.PaddleUpdate
	paddleSeq   uint64
	gameState   protocol.GameState
	stateSeq    uint64
	lobby       protocol.LobbySync
	lobbySeen   bool
	resetWanted bool

	ended         EndReason
	selfInitiated bool
	dropped       int
}

// NewSession returns an idle session for role. id is the pairing identifier.
func NewSession(role game.Role, id string, clock quartz.Clock, logger *log.Logger) *Session {
	return &Session{
		role:   role,
		id:     id,
		clock:  clock,
		logger: logger.WithPrefix("netsync").With("role", role.String()),
	}
}

// Role returns the session role.
func (s *Session) Role() game.Role { return s.role }

// ID returns the pairing identifier.
func (s *Session) ID() string { return s.id }

// Now reads the session clock.
func (s *Session) Now() time.Time { return s.clock.Now() }

// Connecting marks the transport as dialing or listening.
func (s *Session) Connecting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == ConnIdle {
		s.state = ConnConnecting
	}
}

// Attach hands the session an established connection.
func (s *Session) Attach(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
	s.state = ConnConnected
	s.lastRecv = s.clock.Now()
	s.logger.Info("Peer connected", "session", s.id)
}

// State returns the connection state.
func (s *Session) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Deliver records an inbound message. Malformed payloads are dropped.
func (s *Session) Deliver(m *protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastRecv = s.clock.Now()

	if m.Type == protocol.TypeGameState {
		next, err := protocol.DecodeGameStateOnto(s.gameState, m)
		if err != nil {
			s.drop(m, err)
			return
		}
		s.gameState = next
		s.stateSeq++
		return
	}

	p, err := m.Decode()
	if err != nil {
		s.drop(m, err)
		return
	}

	switch p := p.(type) {
	case *protocol.PaddleUpdate:
		s.paddle = *p
		s.paddleSeq++
	case *protocol.LobbySync:
		s.lobby = *p
		s.lobbySeen = true
	case *protocol.LobbyPing:
	case *protocol.ResetRequest:
		s.resetWanted = true
	case *protocol.DisconnectNotice:
		s.logger.Info("Peer left", "reason", p.Reason)
		if s.ended == EndNone {
			s.ended = EndPeerLeft
		}
	}
}

func (s *Session) drop(m *protocol.Message, err error) {
	s.dropped++
	s.logger.Warn("Dropping malformed message", "type", m.Type, "error", err)
}

// ChannelClosed is called by the transport when the channel goes away.
func (s *Session) ChannelClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = ConnIdle
	if s.ended == EndNone && !s.selfInitiated {
		s.ended = EndChannelClosed
	}
	s.logger.Debug("Channel closed", "reason", s.ended.Notice())
}

// Send encodes and queues payload. Errors are logged, never returned.
func (s *Session) Send(p protocol.Payload) {
	s.mu.Lock()
	conn, state := s.conn, s.state
	s.mu.Unlock()

	if conn == nil || state != ConnConnected {
		return
	}

	m, err := protocol.NewMessage(p, s.clock.Now())
	if err != nil {
		s.logger.Error("Failed to encode message", "type", p.Type(), "error", err)
		return
	}
	if err := conn.Send(m); err != nil {
		s.logger.Debug("Send failed", "type", p.Type(), "error", err)
	}
}

// Disconnect sends a best-effort notice and closes the transport.
func (s *Session) Disconnect(reason string) {
	s.Send(&protocol.DisconnectNotice{Reason: reason})

	s.mu.Lock()
	conn := s.conn
	s.selfInitiated = true
	s.conn = nil
	s.state = ConnIdle
	if s.ended == EndNone {
		s.ended = EndLocal
	}
	s.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			s.logger.Debug("Close failed", "error", err)
		}
	}
}

// CheckLiveness reports ErrConnectionLost once the peer has been silent for
// StaleAfter, as long as the match has been running for StartGrace and this
// side did not hang up itself.
func (s *Session) CheckLiveness(matchStartedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != ConnConnected || s.selfInitiated {
		return nil
	}
	now := s.clock.Now()
	if now.Sub(matchStartedAt) <= StartGrace || now.Sub(s.lastRecv) <= StaleAfter {
		return nil
	}

	if s.ended == EndNone {
		s.ended = EndTimeout
		s.logger.Warn("Peer went silent", "since", s.lastRecv, "elapsed", now.Sub(s.lastRecv))
	}
	return ErrConnectionLost
}

// Termination returns why the session ended, or EndNone while it is live.
func (s *Session) Termination() EndReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// LastReceived returns when the last inbound message arrived.
func (s *Session) LastReceived() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRecv
}

// LatestPaddle returns the newest paddle update from the guest and a counter
// that increases with every delivery. A zero counter means nothing has arrived.
func (s *Session) LatestPaddle() (protocol.PaddleUpdate, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paddle, s.paddleSeq
}

// LatestGameState returns the newest snapshot and a counter that increases
// with every delivery. A zero counter means nothing has arrived.
func (s *Session) LatestGameState() (protocol.GameState, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs := s.gameState
	gs.Decoys = append([]protocol.DecoyState(nil), s.gameState.Decoys...)
	return gs, s.stateSeq
}

// Lobby returns the host's last lobby sync.
func (s *Session) Lobby() (protocol.LobbySync, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lobby, s.lobbySeen
}

// TakeResetRequest reports and clears a pending reset request.
func (s *Session) TakeResetRequest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := s.resetWanted
	s.resetWanted = false
	return wanted
}

// Dropped returns how many inbound messages were discarded as malformed.
func (s *Session) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
