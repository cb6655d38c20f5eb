package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/blastpong/internal/game"
)

type glyph uint8

const (
	blank glyph = iota
	netMark
	landmark
	leftPaddle
	rightPaddle
	decoy
	ball
	poweredBall
	ghostBall
)

var glyphRunes = [...]rune{
	blank:       ' ',
	netMark:     '┊',
	landmark:    '·',
	leftPaddle:  '█',
	rightPaddle: '█',
	decoy:       'o',
	ball:        '●',
	poweredBall: '◉',
	ghostBall:   '○',
}

// Court is a snapshot scaled down to a character grid.
type Court struct {
	Cols, Rows int
	cells      []glyph
}

// Rasterize draws s onto a cols x rows grid. Later layers win: net,
// landmarks, paddles, decoys, then the ball.
func Rasterize(s game.Snapshot, cols, rows int) Court {
	c := Court{Cols: max(cols, 1), Rows: max(rows, 1)}
	c.cells = make([]glyph, c.Cols*c.Rows)

	mid := c.col(game.CourtWidth / 2)
	for r := 0; r < c.Rows; r += 2 {
		c.set(mid, r, netMark)
	}

	for _, p := range s.Landmarks {
		c.set(c.col(p.X*game.CourtWidth), c.row(p.Y*game.CourtHeight), landmark)
	}

	for i, side := range game.Sides {
		g := leftPaddle
		if i == 1 {
			g = rightPaddle
		}
		p := s.Paddle(side)
		x := c.col(p.X + p.Width/2)
		for r := c.row(p.Y); r <= c.row(p.Y+p.Height-1e-9); r++ {
			c.set(x, r, g)
		}
	}

	for _, d := range s.Decoys {
		c.set(c.col(d.X), c.row(d.Y), decoy)
	}

	g := ball
	switch {
	case s.Ball.IsGhost:
		g = ghostBall
	case s.Ball.IsPowered:
		g = poweredBall
	}
	c.set(c.col(s.Ball.X), c.row(s.Ball.Y), g)

	return c
}

func (c Court) col(x float64) int {
	return min(max(int(x/game.CourtWidth*float64(c.Cols)), 0), c.Cols-1)
}

func (c Court) row(y float64) int {
	return min(max(int(y/game.CourtHeight*float64(c.Rows)), 0), c.Rows-1)
}

func (c Court) set(x, y int, g glyph) {
	c.cells[y*c.Cols+x] = g
}

func (c Court) at(x, y int) glyph {
	return c.cells[y*c.Cols+x]
}

// Lines returns the grid as plain text.
func (c Court) Lines() []string {
	lines := make([]string, c.Rows)
	for y := range c.Rows {
		var b strings.Builder
		for x := range c.Cols {
			b.WriteRune(glyphRunes[c.at(x, y)])
		}
		lines[y] = b.String()
	}
	return lines
}

// Render returns the grid with colors applied, seen from local's side.
func (c Court) Render(local game.Side) string {
	styles := map[glyph]lipgloss.Style{
		netMark:     InfoStyle,
		landmark:    LocalStyle.Faint(true),
		leftPaddle:  OpponentStyle,
		rightPaddle: OpponentStyle,
		decoy:       BallStyle.Faint(true),
		ball:        BallStyle,
		poweredBall: BallStyle.Blink(true),
		ghostBall:   InfoStyle,
	}
	if local == game.SideRight {
		styles[rightPaddle] = LocalStyle
	} else {
		styles[leftPaddle] = LocalStyle
	}

	lines := make([]string, c.Rows)
	for y := range c.Rows {
		var b strings.Builder
		for x := 0; x < c.Cols; {
			g := c.at(x, y)
			end := x
			for end < c.Cols && c.at(end, y) == g {
				end++
			}
			run := strings.Repeat(string(glyphRunes[g]), end-x)
			if st, ok := styles[g]; ok {
				run = st.Render(run)
			}
			b.WriteString(run)
			x = end
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}
