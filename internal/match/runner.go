package match

import (
	"context"
	"errors"

	"github.com/coder/quartz"

	"github.com/lox/blastpong/internal/game"
)

var errEnded = errors.New("match ended")

// Runner drives a Match at the fixed tick rate.
type Runner struct {
	Match *Match
	Clock quartz.Clock

	// Inputs samples local input once per tick. Nil means no input.
	Inputs func() Inputs

	// Frame, if set, receives every snapshot after the tick that made it.
	Frame func(game.Snapshot, Status)
}

// Run ticks until the match ends or ctx is cancelled. It returns the final
// status; a cancelled context is not an error. Cancelling a networked match
// stops it so the peer is told we left.
func (r *Runner) Run(ctx context.Context) (Status, error) {
	clock := r.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var status Status
	w := clock.TickerFunc(ctx, game.FrameDuration, func() error {
		var in Inputs
		if r.Inputs != nil {
			in = r.Inputs()
		}
		status = r.Match.Step(in)
		if r.Frame != nil {
			r.Frame(r.Match.Snapshot(), status)
		}
		if status.Ended {
			return errEnded
		}
		return nil
	}, "match", "tick")

	err := w.Wait()
	switch {
	case errors.Is(err, errEnded):
		return status, nil
	case errors.Is(err, context.Canceled):
		if r.Match.cfg.Session != nil {
			r.Match.Stop()
			status = r.Match.status
		}
		return status, nil
	default:
		return status, err
	}
}
