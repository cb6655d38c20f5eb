package game

// Physics advances the ball and decoys and resolves contacts and scoring.
type Physics struct {
	events EventSink
}

// NewPhysics returns a physics engine that reports to events.
func NewPhysics(events EventSink) *Physics {
	return &Physics{events: events}
}

// Step advances s by one frame. A finished match does not move.
func (ph *Physics) Step(s *MatchState) {
	if s.Phase == PhaseFinished {
		return
	}

	b := &s.Ball
	b.X += b.VX
	b.Y += b.VY

	if b.Y-b.Radius < 0 || b.Y+b.Radius > CourtHeight {
		b.VY = -b.VY
		b.Y = clamp(b.Y, b.Radius, CourtHeight-b.Radius)
	}

	for _, side := range Sides {
		ph.collide(s, side)
	}

	if ph.score(s) {
		return
	}

	b.VY = clamp(b.VY, -MaxSpeedY, MaxSpeedY)
	if b.VX < 0 {
		b.VX = clamp(b.VX, -MaxSpeedX, -MinSpeedX)
	} else {
		b.VX = clamp(b.VX, MinSpeedX, MaxSpeedX)
	}

	ph.stepDecoys(s)
	ph.flag(s)
}

func overlaps(b Ball, p Paddle) bool {
	return b.X-b.Radius < p.X+p.Width &&
		b.X+b.Radius > p.X &&
		b.Y > p.Y &&
		b.Y < p.Y+p.Height
}

func (ph *Physics) collide(s *MatchState, side Side) {
	b := &s.Ball
	p := s.Paddle(side)
	if !overlaps(*b, *p) {
		return
	}

	pw := s.Power(side)
	mult := 1.0
	if BlastReady(*pw, s.Tick) {
		mult = BlastMultiplier
		pw.Charge = 0
		pw.BlastCooldown = BlastCooldownTicks
		s.announce(side, "POWER BLAST!")
		ph.events.emit(EventBlast, side)
	}

	b.VX = side.AwayDirection() * abs(b.VX) * mult
	if side == SideLeft {
		b.X = p.X + p.Width + b.Radius
	} else {
		b.X = p.X - b.Radius
	}
	b.VY += ((b.Y-p.Y)/p.Height - 0.5) * SpinFactor
	pw.HitSinceReset = true
	ph.events.emit(EventPaddleHit, side)
}

// score returns true when a point was scored and the ball re-served.
func (ph *Physics) score(s *MatchState) bool {
	var scorer Side
	switch {
	case s.Ball.X < 0:
		scorer = SideRight
	case s.Ball.X > CourtWidth:
		scorer = SideLeft
	default:
		return false
	}

	points := s.Score.add(scorer)
	for i := range s.Powers {
		s.Powers[i].HitSinceReset = false
	}
	s.Decoys = nil
	s.Ball = Ball{
		X:      CourtWidth / 2,
		Y:      CourtHeight / 2,
		VX:     -scorer.AwayDirection() * ServeSpeedX,
		VY:     ServeSpeedY,
		Radius: BallRadius,
	}
	ph.events.emit(EventScore, scorer)

	if points >= WinningScore && s.Winner == SideNone {
		s.Winner = scorer
		s.Phase = PhaseFinished
		ph.events.emit(EventWin, scorer)
	}
	return true
}

func (ph *Physics) stepDecoys(s *MatchState) {
	if s.Ball.X < DecoyClearMargin || s.Ball.X > CourtWidth-DecoyClearMargin {
		s.Decoys = nil
		return
	}

	kept := s.Decoys[:0]
	for _, d := range s.Decoys {
		d.X += d.VX
		d.Y += d.VY
		if d.Y-BallRadius < 0 || d.Y+BallRadius > CourtHeight {
			d.VY = -d.VY
			d.Y = clamp(d.Y, BallRadius, CourtHeight-BallRadius)
		}
		if d.X > -DecoyCullMargin && d.X < CourtWidth+DecoyCullMargin {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	s.Decoys = kept
}

func (ph *Physics) flag(s *MatchState) {
	b := &s.Ball
	b.IsPowered = abs(b.VX) > PoweredSpeed
	b.IsGhost = s.Ghost.Active() && b.VX*s.Ghost.Owner.AwayDirection() > 0
}
