// Package tui renders a match in the terminal and feeds it keyboard input.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/blastpong/internal/game"
	"github.com/lox/blastpong/internal/input"
	"github.com/lox/blastpong/internal/match"
)

// Options configures a Model.
type Options struct {
	Match *match.Match

	// Pose returns the newest hand pose. Nil in keyboard-only sessions.
	Pose func() *input.HandPose

	// Sounds must be the collector wired into the match's event sink.
	Sounds *Sounds
	Bell   io.Writer

	ShowDebug bool
	JoinLink  string
	Logger    *log.Logger
}

type frameMsg time.Time

// Model is the bubbletea model for one match.
type Model struct {
	opts   Options
	logger *log.Logger
	keys   KeyMap
	help   help.Model

	latch  latch
	frame  int64
	snap   game.Snapshot
	status match.Status
	err    error

	width, height int
	quitting      bool
}

// New returns a model showing the lobby.
func New(opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Sounds == nil {
		opts.Sounds = NewSounds(false)
	}
	return &Model{
		opts:   opts,
		logger: opts.Logger.WithPrefix("tui"),
		keys:   DefaultKeyMap(),
		help:   help.New(),
		snap:   opts.Match.Snapshot(),
	}
}

func nextFrame() tea.Cmd {
	return tea.Tick(game.FrameDuration, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Init starts the frame clock.
func (m *Model) Init() tea.Cmd {
	return nextFrame()
}

// Status returns how the match ended, if it has.
func (m *Model) Status() match.Status { return m.status }

// Update handles frames, keys and resizes.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) tick() tea.Cmd {
	if m.status.Ended {
		return nil
	}

	in := match.Inputs{Keys: m.latch.state(m.frame)}
	if m.opts.Pose != nil {
		in.Pose = m.opts.Pose()
	}
	m.frame++

	m.status = m.opts.Match.Step(in)
	m.snap = m.opts.Match.Snapshot()

	cmds := []tea.Cmd{}
	if !m.status.Ended {
		cmds = append(cmds, nextFrame())
	} else {
		m.logger.Info("Match ended", "notice", m.status.Notice)
	}
	if m.opts.Sounds.Drain() && m.opts.Bell != nil {
		cmds = append(cmds, m.ring)
	}
	return tea.Batch(cmds...)
}

func (m *Model) ring() tea.Msg {
	_, _ = io.WriteString(m.opts.Bell, "\a")
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.status.Ended {
		m.quitting = true
		return tea.Quit
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.opts.Match.Stop()
		m.status = match.Status{Ended: true}
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Start):
		m.err = m.opts.Match.Start()
	case key.Matches(msg, m.keys.Reset):
		m.opts.Match.Reset()
	case key.Matches(msg, m.keys.Up):
		m.latch.press(heldUp, m.frame)
	case key.Matches(msg, m.keys.Down):
		m.latch.press(heldDown, m.frame)
	case key.Matches(msg, m.keys.Charge):
		m.latch.press(heldCharge, m.frame)
	case key.Matches(msg, m.keys.Ghost):
		m.latch.press(heldGhost, m.frame)
	case key.Matches(msg, m.keys.Triple):
		m.latch.press(heldTriple, m.frame)
	}
	return nil
}

// View renders the current snapshot.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.status.Ended {
		return m.renderEnded()
	}

	cols, rows := 80, 24
	if m.width > 0 && m.height > 0 {
		cols = max(m.width-2, 20)
		rows = max(m.height-10, 8)
	}

	var b strings.Builder
	b.WriteString(m.renderScore(cols + 2))
	b.WriteString("\n")
	b.WriteString(CourtStyle.Render(Rasterize(m.snap, cols, rows).Render(m.snap.LocalSide)))
	b.WriteString("\n")
	b.WriteString(m.renderHUD())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// sideName is how the HUD refers to a side from the local player's view.
func sideName(s game.Snapshot, side game.Side) string {
	if side == s.LocalSide {
		return "YOU"
	}
	if label := strings.TrimSpace(s.Label(side)); label != "" {
		return label
	}
	return "OPPONENT"
}

func (m *Model) styleFor(side game.Side) lipgloss.Style {
	if side == m.snap.LocalSide {
		return LocalStyle
	}
	return OpponentStyle
}

func (m *Model) renderScore(width int) string {
	s := m.snap
	left := m.styleFor(game.SideLeft).Render(fmt.Sprintf("%s %d", sideName(s, game.SideLeft), s.Score.Left))
	right := m.styleFor(game.SideRight).Render(fmt.Sprintf("%d %s", s.Score.Right, sideName(s, game.SideRight)))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, left+InfoStyle.Render("  :  ")+right)
}

func (m *Model) renderHUD() string {
	s := m.snap
	var lines []string

	switch s.Phase {
	case game.PhaseLobby:
		lines = append(lines, m.lobbyText())
	case game.PhaseFinished:
		lines = append(lines, m.styleFor(s.Winner).Render(sideName(s, s.Winner)+" WIN!")+
			InfoStyle.Render("  press r to play again"))
	default:
		if s.Message.Text != "" {
			lines = append(lines, MessageStyle.Render(s.Message.Text))
		}
	}

	lines = append(lines, powerLine(s, s.LocalSide), powerLine(s, s.LocalSide.Opponent()))
	lines = append(lines, InfoStyle.Render(fmt.Sprintf("GOAL TO WIN: %d", game.WinningScore)))

	if m.opts.ShowDebug && s.Debug != "" {
		lines = append(lines, InfoStyle.Render(s.Debug))
	}
	if m.err != nil {
		lines = append(lines, NoticeStyle.Render(m.err.Error()))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) lobbyText() string {
	switch {
	case m.opts.JoinLink != "":
		return HeaderStyle.Render("Waiting for opponent") + "\n" +
			InfoStyle.Render("Join link: ") + m.opts.JoinLink + "\n" +
			InfoStyle.Render("Press enter once they have joined")
	case m.snap.LocalSide == game.SideRight:
		return HeaderStyle.Render("Waiting for host to start")
	default:
		return HeaderStyle.Render("Press enter to start")
	}
}

// powerLine renders one side's charge bar and cooldowns.
func powerLine(s game.Snapshot, side game.Side) string {
	p := s.Power(side)
	const width = 20
	filled := int(p.Charge / game.MaxCharge * width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	return fmt.Sprintf("%-8s %s %3.0f%%  blast %s  ghost %s  triple %s",
		sideName(s, side), bar, p.Charge,
		cooldown(p.BlastCooldown), cooldown(p.GhostCooldown), cooldown(p.TripleCooldown))
}

func cooldown(ticks int) string {
	if ticks <= 0 {
		return "ready"
	}
	return fmt.Sprintf("%.1fs", float64(ticks)/game.TickRate)
}

func (m *Model) renderEnded() string {
	notice := m.status.Notice
	if notice == "" {
		notice = "Match over"
	}
	return NoticeStyle.Render(notice) + "\n" + InfoStyle.Render("Press any key to exit")
}
