// Package posefeed reads hand poses produced by an external tracker.
//
// The tracker writes one JSON object per line, either a pose
// {"x":..,"y":..,"landmarks":[{"x":..,"y":..,"z":..}, ...]} or null when no
// hand is visible. The feed keeps only the newest pose; the match polls it
// once per tick.
package posefeed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blastpong/internal/input"
)

// DefaultMaxAge is how long a pose stays usable without a newer one.
const DefaultMaxAge = 250 * time.Millisecond

const maxLineSize = 64 * 1024

// Feed holds the newest pose from a tracker stream.
type Feed struct {
	clock  quartz.Clock
	maxAge time.Duration
	logger *log.Logger

	mu       sync.Mutex
	latest   *input.HandPose
	seenAt   time.Time
	received int
	rejected int
}

// New returns a feed. Poses older than maxAge read as absent.
func New(clock quartz.Clock, maxAge time.Duration, logger *log.Logger) *Feed {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Feed{clock: clock, maxAge: maxAge, logger: logger.WithPrefix("posefeed")}
}

// Run consumes r until EOF, a read error, or ctx is cancelled.
func (f *Feed) Run(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.ingest(sc.Bytes())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read poses: %w", err)
	}
	return nil
}

func (f *Feed) ingest(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	var pose *input.HandPose
	if err := json.Unmarshal(line, &pose); err != nil {
		f.mu.Lock()
		f.rejected++
		f.mu.Unlock()
		f.logger.Debug("Skipping bad pose line", "error", err)
		return
	}
	if pose != nil && !pose.Valid() {
		pose = nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = pose
	f.seenAt = f.clock.Now()
	f.received++
}

// Latest returns the newest pose, or nil when no hand is visible or the
// tracker has gone quiet.
func (f *Feed) Latest() *input.HandPose {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil || f.clock.Since(f.seenAt) > f.maxAge {
		return nil
	}
	p := *f.latest
	p.Landmarks = append([]input.Landmark(nil), f.latest.Landmarks...)
	return &p
}

// Stats returns how many lines were accepted and rejected.
func (f *Feed) Stats() (received, rejected int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.received, f.rejected
}
