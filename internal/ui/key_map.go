package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the operator console.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	advance key.Binding
	top     key.Binding
	cancel  key.Binding
	refresh key.Binding
	yes     key.Binding
	no      key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		advance: key.NewBinding(key.WithKeys("a", "enter"), key.WithHelp("a", "advance")),
		top:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "move to top")),
		cancel:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "cancel request")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.advance, k.top, k.cancel, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.advance, k.top, k.cancel},
		{k.refresh, k.quit},
	}
}
