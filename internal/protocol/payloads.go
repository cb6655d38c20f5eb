package protocol

import (
	"math"

	"github.com/lox/blastpong/internal/game"
)

// Payload is implemented only by the message variants in this package.
type Payload interface {
	Type() MessageType
	normalize()
}

// PaddleUpdate is sent by the guest every tick during play. GestureCode is
// the raw code; the host stabilizes it.
type PaddleUpdate struct {
	Y                   float64 `json:"y"`
	IsCharging          bool    `json:"isCharging"`
	GestureCode         int     `json:"gestureCode"`
	LocalChargeEstimate float64 `json:"localChargeEstimate"`
}

func (*PaddleUpdate) Type() MessageType { return TypePaddleUpdate }

func (p *PaddleUpdate) normalize() {
	p.Y = clampFinite(p.Y, 0, game.CourtHeight-game.PaddleHeight)
	p.LocalChargeEstimate = clampFinite(p.LocalChargeEstimate, 0, game.MaxCharge)
	p.GestureCode = normalizeGesture(p.GestureCode)
}

// BallState mirrors game.Ball on the wire.
type BallState struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	IsPowered bool    `json:"isPowered"`
	IsGhost   bool    `json:"isGhost"`
}

// ScoreState carries both scores.
type ScoreState struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// PowerMessageState is the transient status line and its remaining ticks.
type PowerMessageState struct {
	Text           string `json:"text"`
	TicksRemaining int    `json:"ticksRemaining"`
}

// GhostState is the ghost window; Owner is "left", "right" or "".
type GhostState struct {
	FramesRemaining int    `json:"framesRemaining"`
	Owner           string `json:"owner"`
}

// DecoyState is one decoy projectile.
type DecoyState struct {
	ID uint64  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// SideCooldowns holds one side's three cooldown counters.
type SideCooldowns struct {
	Blast  int `json:"blast"`
	Ghost  int `json:"ghost"`
	Triple int `json:"triple"`
}

// CooldownState holds the counters for both sides.
type CooldownState struct {
	Host  SideCooldowns `json:"host"`
	Guest SideCooldowns `json:"guest"`
}

// GameState is the full authoritative snapshot the host sends every tick.
type GameState struct {
	Ball         BallState         `json:"ball"`
	HostPaddleY  float64           `json:"hostPaddleY"`
	HostCharge   float64           `json:"hostCharge"`
	Score        ScoreState        `json:"score"`
	Winner       string            `json:"winner,omitempty"`
	PowerMessage PowerMessageState `json:"powerMessage"`
	GhostWindow  GhostState        `json:"ghostWindow"`
	Decoys       []DecoyState      `json:"decoys"`
	Cooldowns    CooldownState     `json:"cooldowns"`
	ControlMode  string            `json:"controlMode"`
	MatchPhase   string            `json:"matchPhase"`
}

func (*GameState) Type() MessageType { return TypeGameState }

func (g *GameState) normalize() {
	b := &g.Ball
	b.X = finite(b.X)
	b.Y = clampFinite(b.Y, 0, game.CourtHeight)
	b.VX = clampFinite(b.VX, -game.MaxSpeedX, game.MaxSpeedX)
	b.VY = clampFinite(b.VY, -game.MaxSpeedY, game.MaxSpeedY)

	g.HostPaddleY = clampFinite(g.HostPaddleY, 0, game.CourtHeight-game.PaddleHeight)
	g.HostCharge = clampFinite(g.HostCharge, 0, game.MaxCharge)
	g.Score.Left = max(0, g.Score.Left)
	g.Score.Right = max(0, g.Score.Right)

	if game.ParseSide(g.Winner) == game.SideNone {
		g.Winner = ""
	}

	g.PowerMessage.TicksRemaining = max(0, g.PowerMessage.TicksRemaining)
	if g.PowerMessage.TicksRemaining == 0 {
		g.PowerMessage.Text = ""
	}

	g.GhostWindow.FramesRemaining = max(0, g.GhostWindow.FramesRemaining)
	if game.ParseSide(g.GhostWindow.Owner) == game.SideNone || g.GhostWindow.FramesRemaining == 0 {
		g.GhostWindow = GhostState{}
	}

	for i := range g.Decoys {
		d := &g.Decoys[i]
		d.X, d.Y = finite(d.X), finite(d.Y)
		d.VX, d.VY = finite(d.VX), finite(d.VY)
	}

	g.Cooldowns.Host.normalize()
	g.Cooldowns.Guest.normalize()

	g.ControlMode = normalizeControl(g.ControlMode)
	if g.MatchPhase == "" {
		g.MatchPhase = game.PhasePlaying.String()
	}
	g.MatchPhase = game.ParsePhase(g.MatchPhase).String()
}

func (c *SideCooldowns) normalize() {
	c.Blast = max(0, c.Blast)
	c.Ghost = max(0, c.Ghost)
	c.Triple = max(0, c.Triple)
}

// LobbySync is sent by the host before the match to keep the channel alive
// and to publish the chosen control scheme.
type LobbySync struct {
	ControlMode string `json:"controlMode"`
	MatchPhase  string `json:"matchPhase"`
}

func (*LobbySync) Type() MessageType { return TypeLobbySync }

func (l *LobbySync) normalize() {
	l.ControlMode = normalizeControl(l.ControlMode)
	l.MatchPhase = game.ParsePhase(l.MatchPhase).String()
}

// LobbyPing is the guest's pre-match keepalive.
type LobbyPing struct{}

func (*LobbyPing) Type() MessageType { return TypeLobbyPing }
func (*LobbyPing) normalize()        {}

// DisconnectNotice announces a voluntary exit.
type DisconnectNotice struct {
	Reason string `json:"reason,omitempty"`
}

func (*DisconnectNotice) Type() MessageType { return TypeDisconnectNotice }
func (*DisconnectNotice) normalize()        {}

// ResetRequest asks the host to start a fresh match.
type ResetRequest struct{}

func (*ResetRequest) Type() MessageType { return TypeResetRequest }
func (*ResetRequest) normalize()        {}

func normalizeGesture(code int) int {
	if code == 2 || code == 3 {
		return code
	}
	return 0
}

func normalizeControl(mode string) string {
	c, err := game.ParseControlMode(mode)
	if err != nil {
		return game.ControlKeyboard.String()
	}
	return c.String()
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clampFinite(v, lo, hi float64) float64 {
	return min(hi, max(lo, finite(v)))
}
