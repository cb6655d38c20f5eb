package posefeed

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blastpong/internal/input"
)

func poseLine(t *testing.T, y float64) string {
	t.Helper()
	p := input.HandPose{X: 0.5, Y: y, Landmarks: make([]input.Landmark, input.LandmarkCount)}
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return string(b)
}

func newFeed(t *testing.T) (*Feed, *quartz.Mock) {
	clock := quartz.NewMock(t)
	return New(clock, 0, log.NewWithOptions(io.Discard, log.Options{})), clock
}

func TestFeedKeepsNewestPose(t *testing.T) {
	f, _ := newFeed(t)
	stream := strings.Join([]string{poseLine(t, 0.1), "", poseLine(t, 0.7)}, "\n")

	require.NoError(t, f.Run(context.Background(), strings.NewReader(stream)))

	p := f.Latest()
	require.NotNil(t, p)
	assert.Equal(t, 0.7, p.Y)
	assert.Len(t, p.Landmarks, input.LandmarkCount)

	received, rejected := f.Stats()
	assert.Equal(t, 2, received)
	assert.Zero(t, rejected)
}

func TestFeedHandLost(t *testing.T) {
	tests := []struct {
		name string
		last string
	}{
		{"explicit null", "null"},
		{"truncated landmarks", `{"x":0.5,"y":0.5,"landmarks":[{"x":0,"y":0}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newFeed(t)
			stream := poseLine(t, 0.3) + "\n" + tt.last + "\n"
			require.NoError(t, f.Run(context.Background(), strings.NewReader(stream)))
			assert.Nil(t, f.Latest())
		})
	}
}

func TestFeedSkipsGarbage(t *testing.T) {
	f, _ := newFeed(t)
	stream := poseLine(t, 0.4) + "\n{not json\n"

	require.NoError(t, f.Run(context.Background(), strings.NewReader(stream)))

	require.NotNil(t, f.Latest())
	assert.Equal(t, 0.4, f.Latest().Y)
	_, rejected := f.Stats()
	assert.Equal(t, 1, rejected)
}

func TestFeedGoesStale(t *testing.T) {
	f, clock := newFeed(t)
	require.NoError(t, f.Run(context.Background(), strings.NewReader(poseLine(t, 0.5))))
	require.NotNil(t, f.Latest())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	clock.Advance(DefaultMaxAge + time.Millisecond).MustWait(ctx)

	assert.Nil(t, f.Latest())
}

func TestFeedLatestIsACopy(t *testing.T) {
	f, _ := newFeed(t)
	require.NoError(t, f.Run(context.Background(), strings.NewReader(poseLine(t, 0.5))))

	p := f.Latest()
	p.Landmarks[0].X = 99
	assert.Zero(t, f.Latest().Landmarks[0].X)
}

func TestFeedStopsOnCancel(t *testing.T) {
	f, _ := newFeed(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.Run(ctx, strings.NewReader(poseLine(t, 0.5)+"\n"+poseLine(t, 0.6)))
	assert.ErrorIs(t, err, context.Canceled)
}
