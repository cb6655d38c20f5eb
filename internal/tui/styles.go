package tui

import "github.com/charmbracelet/lipgloss"

// Palette follows the court colors: local paddle green, opponent red, ball
// amber.
var (
	localColor    = lipgloss.Color("#00FF88")
	opponentColor = lipgloss.Color("#FF3366")
	ballColor     = lipgloss.Color("#FFAA00")
	dimColor      = lipgloss.Color("#626262")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1)

	CourtStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333333"))

	LocalStyle = lipgloss.NewStyle().
			Foreground(localColor).
			Bold(true)

	OpponentStyle = lipgloss.NewStyle().
			Foreground(opponentColor).
			Bold(true)

	BallStyle = lipgloss.NewStyle().
			Foreground(ballColor).
			Bold(true)

	MessageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(dimColor)
)
