package game

import "time"

// Court geometry.
const (
	CourtWidth   = 800.0
	CourtHeight  = 600.0
	PaddleWidth  = 15.0
	PaddleHeight = 100.0
	PaddleInset  = 30.0
	BallRadius   = 10.0
)

// Timing. All effect windows are counted in ticks.
const (
	TickRate      = 60
	FrameDuration = time.Second / TickRate
	MessageTicks  = TickRate // power messages stay up for one second
)

// Ball speeds.
const (
	ServeSpeedX  = 5.0
	ServeSpeedY  = 3.0
	MinSpeedX    = 5.0
	MaxSpeedX    = 35.0
	MaxSpeedY    = 15.0
	SpinFactor   = 5.0
	PoweredSpeed = 12.0
)

// Scoring.
const WinningScore = 20

// Power tuning.
const (
	MaxCharge       = 100.0
	HumanChargeRate = 1.5
	AIChargeRate    = 1.2
	ChargeDecay     = 1.0

	BlastMultiplier    = 3.5
	BlastWindow        = 400 * time.Millisecond
	BlastMinCharge     = 30.0
	BlastCooldownTicks = 600

	GhostDurationTicks = 120
	GhostCooldownTicks = 1200

	TripleCooldownTicks = 600
	DecoySpeedMin       = 0.8
	DecoySpeedSpread    = 0.4
	DecoySpreadY        = 15.0
	DecoyClearMargin    = 100.0
	DecoyCullMargin     = 50.0
)

// Opponent heuristic.
const (
	AISpeed         = 4.0
	AIDeadband      = 5.0
	AIAlignRange    = 40.0
	AINearMargin    = 100.0
	AIReleaseMargin = 40.0
	AIPowerChance   = 0.02
)
