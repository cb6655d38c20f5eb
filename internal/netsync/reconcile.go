package netsync

import (
	"github.com/lox/blastpong/internal/game"
	"github.com/lox/blastpong/internal/protocol"
)

// The host always plays the left side and the guest the right.
const (
	HostSide  = game.SideLeft
	GuestSide = game.SideRight
)

// BuildGameState captures the host's authoritative state for the wire.
func BuildGameState(s *game.MatchState) protocol.GameState {
	gs := protocol.GameState{
		Ball: protocol.BallState{
			X:         s.Ball.X,
			Y:         s.Ball.Y,
			VX:        s.Ball.VX,
			VY:        s.Ball.VY,
			IsPowered: s.Ball.IsPowered,
			IsGhost:   s.Ball.IsGhost,
		},
		HostPaddleY: s.Paddle(HostSide).Y,
		HostCharge:  s.Power(HostSide).Charge,
		Score:       protocol.ScoreState{Left: s.Score.Left, Right: s.Score.Right},
		PowerMessage: protocol.PowerMessageState{
			Text:           s.Message.Text,
			TicksRemaining: s.Message.TicksRemaining,
		},
		GhostWindow: protocol.GhostState{FramesRemaining: s.Ghost.FramesRemaining},
		Decoys:      make([]protocol.DecoyState, 0, len(s.Decoys)),
		Cooldowns: protocol.CooldownState{
			Host:  cooldowns(s.Power(HostSide)),
			Guest: cooldowns(s.Power(GuestSide)),
		},
		ControlMode: s.Control.String(),
		MatchPhase:  s.Phase.String(),
	}
	if s.Ghost.Active() {
		gs.GhostWindow.Owner = s.Ghost.Owner.String()
	}
	if s.Winner != game.SideNone {
		gs.Winner = s.Winner.String()
	}
	for _, d := range s.Decoys {
		gs.Decoys = append(gs.Decoys, protocol.DecoyState{ID: d.ID, X: d.X, Y: d.Y, VX: d.VX, VY: d.VY})
	}
	return gs
}

func cooldowns(p *game.PowerState) protocol.SideCooldowns {
	return protocol.SideCooldowns{
		Blast:  p.BlastCooldown,
		Ghost:  p.GhostCooldown,
		Triple: p.TripleCooldown,
	}
}

// ApplyGameState overwrites the guest's view with the host snapshot. The
// guest's own paddle, charge and release bookkeeping stay local, except that
// the charge is spent when the host reports a fresh blast cooldown for it.
func ApplyGameState(s *game.MatchState, gs protocol.GameState) {
	s.Ball = game.Ball{
		X:         gs.Ball.X,
		Y:         gs.Ball.Y,
		VX:        gs.Ball.VX,
		VY:        gs.Ball.VY,
		Radius:    game.BallRadius,
		IsPowered: gs.Ball.IsPowered,
		IsGhost:   gs.Ball.IsGhost,
	}
	s.Paddle(HostSide).SetY(gs.HostPaddleY)

	host := s.Power(HostSide)
	host.Charge = gs.HostCharge
	setCooldowns(host, gs.Cooldowns.Host)

	guest := s.Power(GuestSide)
	if guest.BlastCooldown == 0 && gs.Cooldowns.Guest.Blast > 0 {
		guest.Charge = 0
	}
	setCooldowns(guest, gs.Cooldowns.Guest)

	s.Score = game.Score{Left: gs.Score.Left, Right: gs.Score.Right}
	s.Winner = game.ParseSide(gs.Winner)
	s.Message = game.PowerMessage{Text: gs.PowerMessage.Text, TicksRemaining: gs.PowerMessage.TicksRemaining}
	s.Ghost = game.GhostWindow{
		FramesRemaining: gs.GhostWindow.FramesRemaining,
		Owner:           game.ParseSide(gs.GhostWindow.Owner),
	}
	if s.Ghost.Owner == game.SideNone {
		s.Ghost.FramesRemaining = 0
	}

	s.Decoys = s.Decoys[:0]
	for _, d := range gs.Decoys {
		s.Decoys = append(s.Decoys, game.Decoy{ID: d.ID, X: d.X, Y: d.Y, VX: d.VX, VY: d.VY})
	}
	if len(s.Decoys) == 0 {
		s.Decoys = nil
	}

	if mode, err := game.ParseControlMode(gs.ControlMode); err == nil {
		s.Control = mode
	}
	s.Phase = game.ParsePhase(gs.MatchPhase)
}

func setCooldowns(p *game.PowerState, c protocol.SideCooldowns) {
	p.BlastCooldown = c.Blast
	p.GhostCooldown = c.Ghost
	p.TripleCooldown = c.Triple
}

// BuildPaddleUpdate captures the guest's input for the host.
func BuildPaddleUpdate(s *game.MatchState, charging bool, rawGesture int) protocol.PaddleUpdate {
	return protocol.PaddleUpdate{
		Y:                   s.Paddle(GuestSide).Y,
		IsCharging:          charging,
		GestureCode:         rawGesture,
		LocalChargeEstimate: s.Power(GuestSide).Charge,
	}
}

// GuestIntent converts a paddle update into power input on the host, using
// the guest's charge estimate in place of a host-side computation.
func GuestIntent(u protocol.PaddleUpdate, stableGesture int) game.SideIntent {
	charge := u.LocalChargeEstimate
	return game.SideIntent{
		IsCharging:     u.IsCharging,
		GestureCode:    stableGesture,
		ChargeRate:     game.HumanChargeRate,
		ChargeOverride: &charge,
	}
}
