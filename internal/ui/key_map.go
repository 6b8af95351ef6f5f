package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	tab     key.Binding
	enter   key.Binding
	back    key.Binding
	upload  key.Binding
	report  key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		upload:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
		report:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "report")),
		refresh: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.tab, k.refresh, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.tab, k.enter, k.back},
		{k.upload, k.report, k.refresh},
		{k.quit},
	}
}
