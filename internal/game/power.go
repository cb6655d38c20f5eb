package game

import "time"

// Rand is the random source used by the power system and the opponent.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	Uint64() uint64
}

// SideIntent is the per-tick control input for one side, after stabilization.
type SideIntent struct {
	IsCharging  bool
	GestureCode int
	ChargeRate  float64

	// When ReleaseGate is set a charging to idle transition only counts as a
	// release if ShouldRelease is also true. The opponent heuristic uses this.
	ReleaseGate   bool
	ShouldRelease bool

	// ChargeOverride replaces the local charge computation with a value
	// reported by the side itself (the guest's estimate on the host).
	ChargeOverride *float64
}

// PowerSystem advances meters and cooldowns and fires ghost and triple powers.
type PowerSystem struct {
	rng    Rand
	events EventSink
}

// NewPowerSystem returns a power system using rng for decoy spawning.
func NewPowerSystem(rng Rand, events EventSink) *PowerSystem {
	return &PowerSystem{rng: rng, events: events}
}

// Tick applies one frame of power logic to s.
func (ps *PowerSystem) Tick(s *MatchState, left, right SideIntent) {
	Countdown(s)

	ps.charge(s, SideLeft, left)
	ps.charge(s, SideRight, right)

	ps.trigger(s, SideLeft, left.GestureCode)
	ps.trigger(s, SideRight, right.GestureCode)
}

// Countdown decrements every cooldown, the ghost window and the message
// timer, flooring at zero. A ghost window that runs out loses its owner.
func Countdown(s *MatchState) {
	for i := range s.Powers {
		p := &s.Powers[i]
		p.BlastCooldown = decrement(p.BlastCooldown)
		p.GhostCooldown = decrement(p.GhostCooldown)
		p.TripleCooldown = decrement(p.TripleCooldown)
	}

	s.Ghost.FramesRemaining = decrement(s.Ghost.FramesRemaining)
	if s.Ghost.FramesRemaining == 0 {
		s.Ghost.Owner = SideNone
	}

	s.Message.TicksRemaining = decrement(s.Message.TicksRemaining)
	if s.Message.TicksRemaining == 0 {
		s.Message.Text = ""
	}
}

// ApplyCharge runs the charge and release bookkeeping for one side. The guest
// uses it for its local estimate.
func ApplyCharge(p *PowerState, tick int64, in SideIntent) {
	switch {
	case in.ChargeOverride != nil:
		p.Charge = clamp(*in.ChargeOverride, 0, MaxCharge)
	case in.IsCharging && p.BlastCooldown == 0:
		p.Charge = min(MaxCharge, p.Charge+in.ChargeRate)
	default:
		p.Charge = max(0, p.Charge-ChargeDecay)
	}

	if p.WasCharging && !in.IsCharging && (!in.ReleaseGate || in.ShouldRelease) {
		p.ReleasedAt = tick
	}
	p.WasCharging = in.IsCharging
}

func (ps *PowerSystem) charge(s *MatchState, side Side, in SideIntent) {
	ApplyCharge(s.Power(side), s.Tick, in)
}

func (ps *PowerSystem) trigger(s *MatchState, side Side, code int) {
	p := s.Power(side)
	away := s.Ball.MovingAwayFrom(side)

	switch {
	case code == 2 && p.GhostCooldown == 0 && away && !s.Ghost.Active():
		s.Ghost = GhostWindow{FramesRemaining: GhostDurationTicks, Owner: side}
		p.GhostCooldown = GhostCooldownTicks
		s.announce(side, "GHOST BALL!")
		ps.events.emit(EventGhost, side)

	case code == 3 && p.TripleCooldown == 0 && away && p.HitSinceReset:
		p.HitSinceReset = false
		s.Decoys = []Decoy{ps.spawnDecoy(s.Ball), ps.spawnDecoy(s.Ball)}
		p.TripleCooldown = TripleCooldownTicks
		s.announce(side, "TRIPLE THREAT!")
		ps.events.emit(EventTriple, side)
	}
}

func (ps *PowerSystem) spawnDecoy(b Ball) Decoy {
	return Decoy{
		ID: ps.rng.Uint64(),
		X:  b.X,
		Y:  b.Y,
		VX: b.VX * (DecoySpeedMin + ps.rng.Float64()*DecoySpeedSpread),
		VY: (ps.rng.Float64() - 0.5) * DecoySpreadY,
	}
}

// BlastReady reports whether a paddle contact at tick would be a blast.
func BlastReady(p PowerState, tick int64) bool {
	if p.ReleasedAt < 0 || p.BlastCooldown != 0 || p.Charge <= BlastMinCharge {
		return false
	}
	elapsed := time.Duration(tick-p.ReleasedAt) * FrameDuration
	return elapsed < BlastWindow
}

func decrement(v int) int {
	if v <= 0 {
		return 0
	}
	return v - 1
}
