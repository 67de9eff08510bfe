package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	nextPage key.Binding
	prevPage key.Binding
	add      key.Binding
	del      key.Binding
	open     key.Binding
	refresh  key.Binding
	yes      key.Binding
	no       key.Binding
	logout   key.Binding
	signup   key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		nextPage: key.NewBinding(key.WithKeys("right", "n"), key.WithHelp("→/n", "next page")),
		prevPage: key.NewBinding(key.WithKeys("left", "p"), key.WithHelp("←/p", "prev page")),
		add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add movie")),
		del:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open poster")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		logout:   key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "logout")),
		signup:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "sign up")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.prevPage, k.nextPage, k.add},
		{k.del, k.open, k.back},
		{k.logout, k.quit},
	}
}
