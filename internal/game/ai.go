package game

// AIDecision is the opponent's output for one tick. Y is the new paddle top.
type AIDecision struct {
	Y             float64
	ShouldCharge  bool
	ShouldRelease bool
	GestureCode   int
}

// Intent converts the decision into power system input. Opponent gestures
// skip the stabilizer since they carry no noise.
func (d AIDecision) Intent() SideIntent {
	return SideIntent{
		IsCharging:    d.ShouldCharge,
		GestureCode:   d.GestureCode,
		ChargeRate:    AIChargeRate,
		ReleaseGate:   true,
		ShouldRelease: d.ShouldRelease,
	}
}

// Opponent is the heuristic player. It works for either side.
type Opponent struct {
	side Side
	rng  Rand
}

// NewOpponent returns an opponent playing side.
func NewOpponent(side Side, rng Rand) *Opponent {
	return &Opponent{side: side, rng: rng}
}

// Side returns the side the opponent plays.
func (o *Opponent) Side() Side { return o.side }

// Decide tracks the ball and decides whether to charge, release or use a power.
func (o *Opponent) Decide(ball Ball, paddle Paddle, power PowerState) AIDecision {
	d := AIDecision{Y: paddle.Y}

	diff := ball.Y - paddle.Center()
	if abs(diff) > AIDeadband {
		if diff > 0 {
			d.Y += AISpeed
		} else {
			d.Y -= AISpeed
		}
	}

	approaching := ball.VX*o.side.AwayDirection() < 0
	remaining := o.distanceToOwnEnd(ball.X)

	d.ShouldCharge = approaching &&
		abs(diff) < AIAlignRange &&
		remaining > AINearMargin &&
		remaining < CourtWidth/2
	d.ShouldRelease = approaching && remaining < AIReleaseMargin

	if ball.MovingAwayFrom(o.side) {
		d.GestureCode = o.rollPower(power)
	}
	return d
}

// distanceToOwnEnd is how far x is from the end line this side defends.
func (o *Opponent) distanceToOwnEnd(x float64) float64 {
	if o.side == SideLeft {
		return x
	}
	return CourtWidth - x
}

func (o *Opponent) rollPower(power PowerState) int {
	if power.GhostCooldown == 0 && o.rng.Float64() < AIPowerChance {
		return 2
	}
	if power.TripleCooldown == 0 && power.HitSinceReset && o.rng.Float64() < AIPowerChance {
		return 3
	}
	return 0
}
