package game

// Event names a side effect the presentation layer may want to play.
type Event string

const (
	EventPaddleHit Event = "paddle_hit"
	EventScore     Event = "score"
	EventWin       Event = "win"
	EventBlast     Event = "blast"
	EventGhost     Event = "ghost"
	EventTriple    Event = "triple"
)

// String returns the event name.
func (e Event) String() string { return string(e) }

// EventSink receives events as they happen inside a tick. It must not block
// and must not touch the match state. A nil sink discards events.
type EventSink func(event Event, side Side)

func (f EventSink) emit(event Event, side Side) {
	if f != nil {
		f(event, side)
	}
}
