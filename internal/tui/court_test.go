package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blastpong/internal/game"
)

func serveSnapshot() game.Snapshot {
	s := game.NewMatchState(game.RoleSinglePlayer, game.ControlKeyboard)
	return s.Snapshot()
}

func TestRasterize(t *testing.T) {
	lines := Rasterize(serveSnapshot(), 80, 30).Lines()
	require.Len(t, lines, 30)
	for _, l := range lines {
		assert.Equal(t, 80, len([]rune(l)))
	}

	assert.Equal(t, '●', []rune(lines[15])[40], "ball at the centre")
	for r := 12; r <= 17; r++ {
		assert.Equal(t, '█', []rune(lines[r])[3], "left paddle row %d", r)
		assert.Equal(t, '█', []rune(lines[r])[76], "right paddle row %d", r)
	}
	assert.Equal(t, ' ', []rune(lines[11])[3])
	assert.Equal(t, ' ', []rune(lines[18])[3])
	assert.Equal(t, '┊', []rune(lines[0])[40])
}

func TestRasterizeBallFlags(t *testing.T) {
	tests := []struct {
		name    string
		powered bool
		ghost   bool
		want    rune
	}{
		{"plain", false, false, '●'},
		{"powered", true, false, '◉'},
		{"ghost wins over powered", true, true, '○'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := serveSnapshot()
			snap.Ball.X, snap.Ball.Y = 200, 100
			snap.Ball.IsPowered, snap.Ball.IsGhost = tt.powered, tt.ghost

			lines := Rasterize(snap, 80, 30).Lines()
			assert.Equal(t, tt.want, []rune(lines[5])[20])
		})
	}
}

func TestRasterizeDecoysAndLandmarks(t *testing.T) {
	snap := serveSnapshot()
	snap.Decoys = []game.Decoy{{ID: 1, X: 600, Y: 60}}
	snap.Landmarks = []game.Point{{X: 0.25, Y: 0.5}}

	lines := Rasterize(snap, 80, 30).Lines()
	assert.Equal(t, 'o', []rune(lines[3])[60])
	assert.Equal(t, '·', []rune(lines[15])[20])
}

func TestRasterizeClampsOutOfBounds(t *testing.T) {
	snap := serveSnapshot()
	snap.Ball.X, snap.Ball.Y = -30, 900

	lines := Rasterize(snap, 10, 5).Lines()
	assert.Equal(t, '●', []rune(lines[4])[0])
}

func TestRenderKeepsShape(t *testing.T) {
	out := Rasterize(serveSnapshot(), 40, 10).Render(game.SideLeft)
	assert.Len(t, strings.Split(out, "\n"), 10)
}
