package tui

import "github.com/lox/blastpong/internal/game"

// Sounds collects audible events raised during a tick. The terminal has one
// sound, the bell, so it only cares whether any event fired.
type Sounds struct {
	enabled bool
	pending bool
}

// NewSounds returns a collector. A disabled collector never rings.
func NewSounds(enabled bool) *Sounds {
	return &Sounds{enabled: enabled}
}

// Sink is a game.EventSink.
func (s *Sounds) Sink(e game.Event, _ game.Side) {
	if !s.enabled {
		return
	}
	switch e {
	case game.EventPaddleHit, game.EventWin, game.EventBlast:
		s.pending = true
	}
}

// Drain reports whether the bell should ring and clears the flag.
func (s *Sounds) Drain() bool {
	ring := s.pending
	s.pending = false
	return ring
}
