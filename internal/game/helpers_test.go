package game

// seqRand replays fixed values. Float64 cycles through floats; Uint64 counts up.
type seqRand struct {
	floats []float64
	next   int
	ids    uint64
}

func (r *seqRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.5
	}
	v := r.floats[r.next%len(r.floats)]
	r.next++
	return v
}

func (r *seqRand) Uint64() uint64 {
	r.ids++
	return r.ids
}

type recordedEvent struct {
	event Event
	side  Side
}

type eventLog struct {
	events []recordedEvent
}

func (l *eventLog) sink() EventSink {
	return func(e Event, side Side) {
		l.events = append(l.events, recordedEvent{e, side})
	}
}

func (l *eventLog) has(e Event, side Side) bool {
	for _, r := range l.events {
		if r.event == e && r.side == side {
			return true
		}
	}
	return false
}

func playingState(role Role) MatchState {
	s := NewMatchState(role, ControlKeyboard)
	s.Reset()
	return s
}
