package game

import (
	"errors"
	"fmt"
)

// Side identifies one of the two paddles.
type Side int

const (
	SideNone Side = iota
	SideLeft
	SideRight
)

// String returns the wire name of the side.
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "none"
	}
}

// ParseSide is the inverse of Side.String. Unknown names map to SideNone.
func ParseSide(name string) Side {
	switch name {
	case "left":
		return SideLeft
	case "right":
		return SideRight
	default:
		return SideNone
	}
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return SideNone
	}
}

// AwayDirection is the sign of VX for a ball travelling away from this side.
func (s Side) AwayDirection() float64 {
	switch s {
	case SideLeft:
		return 1
	case SideRight:
		return -1
	default:
		return 0
	}
}

func (s Side) index() int {
	if s == SideRight {
		return 1
	}
	return 0
}

// Sides lists both playing sides in collision order.
var Sides = [2]Side{SideLeft, SideRight}

// Role is fixed for the lifetime of a session.
type Role int

const (
	RoleSinglePlayer Role = iota
	RoleHost
	RoleGuest
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleGuest:
		return "guest"
	default:
		return "single-player"
	}
}

// Phase is the coarse match lifecycle.
type Phase int

const (
	PhaseLobby Phase = iota
	PhasePlaying
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseFinished:
		return "finished"
	default:
		return "lobby"
	}
}

// ParsePhase maps a wire name back to a Phase, defaulting to PhaseLobby.
func ParsePhase(name string) Phase {
	switch name {
	case "playing":
		return PhasePlaying
	case "finished":
		return PhaseFinished
	default:
		return PhaseLobby
	}
}

// ControlMode selects how the local player steers.
type ControlMode int

const (
	ControlKeyboard ControlMode = iota
	ControlHand
)

func (c ControlMode) String() string {
	if c == ControlHand {
		return "hand"
	}
	return "keyboard"
}

// ParseControlMode accepts "hand" and "keyboard"; anything else is an error.
func ParseControlMode(name string) (ControlMode, error) {
	switch name {
	case "hand":
		return ControlHand, nil
	case "keyboard", "":
		return ControlKeyboard, nil
	default:
		return ControlKeyboard, fmt.Errorf("unknown control mode %q", name)
	}
}

// Paddle is an axis-aligned rectangle; X never changes after setup.
type Paddle struct {
	X, Y          float64
	Width, Height float64
}

// Center returns the vertical centre of the paddle.
func (p Paddle) Center() float64 { return p.Y + p.Height/2 }

func (p *Paddle) clamp() {
	p.Y = clamp(p.Y, 0, CourtHeight-p.Height)
}

// MoveTo places the paddle so its centre sits at centerY, clamped to the court.
func (p *Paddle) MoveTo(centerY float64) {
	p.Y = centerY - p.Height/2
	p.clamp()
}

// SetY places the top edge at y, clamped to the court.
func (p *Paddle) SetY(y float64) {
	p.Y = y
	p.clamp()
}

// Ball is the real ball. IsPowered and IsGhost are derived each tick.
type Ball struct {
	X, Y      float64
	VX, VY    float64
	Radius    float64
	IsPowered bool
	IsGhost   bool
}

// MovingAwayFrom reports whether the ball travels toward the opponent of side.
func (b Ball) MovingAwayFrom(side Side) bool {
	return b.VX*side.AwayDirection() > 0
}

// Decoy is a ball-like projectile spawned by the triple power.
type Decoy struct {
	ID     uint64
	X, Y   float64
	VX, VY float64
}

// PowerState holds one side's meters and timers. ReleasedAt is the tick of the
// last charge release, or -1 if the side has never released.
type PowerState struct {
	Charge         float64
	BlastCooldown  int
	GhostCooldown  int
	TripleCooldown int

	WasCharging   bool
	ReleasedAt    int64
	HitSinceReset bool
}

func newPowerState() PowerState {
	return PowerState{ReleasedAt: -1}
}

// GhostWindow is the single system-wide ghost effect.
type GhostWindow struct {
	FramesRemaining int
	Owner           Side
}

// Active reports whether the ghost window is running.
func (g GhostWindow) Active() bool { return g.FramesRemaining > 0 }

// Score counts points per side.
type Score struct {
	Left, Right int
}

// Of returns the score for side.
func (s Score) Of(side Side) int {
	if side == SideRight {
		return s.Right
	}
	return s.Left
}

func (s *Score) add(side Side) int {
	if side == SideRight {
		s.Right++
		return s.Right
	}
	s.Left++
	return s.Left
}

// PowerMessage is the transient status line shown after an activation.
type PowerMessage struct {
	Text           string
	TicksRemaining int
}

// MatchState is the complete per-tick state of a match.
type MatchState struct {
	Tick      int64
	Phase     Phase
	Control   ControlMode
	LocalSide Side
	Labels    [2]string

	Ball    Ball
	Paddles [2]Paddle
	Powers  [2]PowerState
	Ghost   GhostWindow
	Decoys  []Decoy

	Score   Score
	Winner  Side
	Message PowerMessage
}

// NewMatchState builds the lobby state for a session with the given role.
func NewMatchState(role Role, control ControlMode) MatchState {
	s := MatchState{
		Phase:     PhaseLobby,
		Control:   control,
		LocalSide: SideLeft,
		Labels:    [2]string{"", "AI "},
	}
	if role == RoleGuest {
		s.LocalSide = SideRight
	}
	if role != RoleSinglePlayer {
		s.Labels = [2]string{"P1 ", "P2 "}
	}
	s.resetField()
	return s
}

// Paddle returns a pointer to side's paddle.
func (s *MatchState) Paddle(side Side) *Paddle { return &s.Paddles[side.index()] }

// Power returns a pointer to side's power state.
func (s *MatchState) Power(side Side) *PowerState { return &s.Powers[side.index()] }

// Label returns the message prefix for side.
func (s *MatchState) Label(side Side) string { return s.Labels[side.index()] }

// Reset starts a fresh match, keeping the session-level fields.
func (s *MatchState) Reset() {
	s.resetField()
	s.Score = Score{}
	s.Winner = SideNone
	s.Phase = PhasePlaying
}

func (s *MatchState) resetField() {
	s.Paddles = [2]Paddle{
		{X: PaddleInset, Y: CourtHeight/2 - PaddleHeight/2, Width: PaddleWidth, Height: PaddleHeight},
		{X: CourtWidth - PaddleInset - PaddleWidth, Y: CourtHeight/2 - PaddleHeight/2, Width: PaddleWidth, Height: PaddleHeight},
	}
	s.Powers = [2]PowerState{newPowerState(), newPowerState()}
	s.Ghost = GhostWindow{}
	s.Decoys = nil
	s.Message = PowerMessage{}
	s.Ball = Ball{
		X:      CourtWidth / 2,
		Y:      CourtHeight / 2,
		VX:     ServeSpeedX,
		VY:     ServeSpeedY,
		Radius: BallRadius,
	}
}

func (s *MatchState) announce(side Side, text string) {
	s.Message = PowerMessage{Text: s.Label(side) + text, TicksRemaining: MessageTicks}
}

// Validate checks the invariants that must hold after every tick.
func (s *MatchState) Validate() error {
	var errs []error
	for _, side := range Sides {
		p := s.Power(side)
		if p.Charge < 0 || p.Charge > MaxCharge {
			errs = append(errs, fmt.Errorf("%s charge %.2f out of range", side, p.Charge))
		}
		if p.BlastCooldown < 0 || p.GhostCooldown < 0 || p.TripleCooldown < 0 {
			errs = append(errs, fmt.Errorf("%s has a negative cooldown", side))
		}
	}
	if (s.Ghost.FramesRemaining == 0) != (s.Ghost.Owner == SideNone) {
		errs = append(errs, fmt.Errorf("ghost window %d frames with owner %s", s.Ghost.FramesRemaining, s.Ghost.Owner))
	}
	if s.Phase == PhasePlaying {
		if vx := abs(s.Ball.VX); vx < MinSpeedX || vx > MaxSpeedX {
			errs = append(errs, fmt.Errorf("ball |vx| %.2f out of range", vx))
		}
		if s.Ball.VY < -MaxSpeedY || s.Ball.VY > MaxSpeedY {
			errs = append(errs, fmt.Errorf("ball vy %.2f out of range", s.Ball.VY))
		}
	}
	return errors.Join(errs...)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
