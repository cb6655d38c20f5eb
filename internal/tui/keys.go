package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/lox/blastpong/internal/input"
)

// HoldTicks is how long a key counts as held after its last press. Terminals
// report presses and auto-repeats but never releases.
const HoldTicks = 8

// KeyMap is the set of bindings the game responds to.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Charge key.Binding
	Ghost  key.Binding
	Triple key.Binding
	Start  key.Binding
	Reset  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "w"), key.WithHelp("↑/w", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "s"), key.WithHelp("↓/s", "down")),
		Charge: key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "charge")),
		Ghost:  key.NewBinding(key.WithKeys("2", "g"), key.WithHelp("2/g", "ghost")),
		Triple: key.NewBinding(key.WithKeys("3", "t"), key.WithHelp("3/t", "triple")),
		Start:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
		Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "new match")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Charge, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Charge},
		{k.Ghost, k.Triple},
		{k.Start, k.Reset, k.Help, k.Quit},
	}
}

type held int

const (
	heldUp held = iota
	heldDown
	heldCharge
	heldGhost
	heldTriple
	heldCount
)

// latch turns press events into a held-key state.
type latch struct {
	until [heldCount]int64
}

func (l *latch) press(k held, frame int64) {
	l.until[k] = frame + HoldTicks
}

func (l *latch) state(frame int64) input.KeyState {
	on := func(k held) bool { return frame < l.until[k] }
	return input.KeyState{
		Up:     on(heldUp),
		Down:   on(heldDown),
		Charge: on(heldCharge),
		Ghost:  on(heldGhost),
		Triple: on(heldTriple),
	}
}
