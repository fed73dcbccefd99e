package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	New       key.Binding
	Delete    key.Binding
	All       key.Binding
	Completed key.Binding
	Pending   key.Binding
	Reload    key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "space", "x"), key.WithHelp("space", "toggle")),
		New:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		All:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all")),
		Completed: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "completed")),
		Pending:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pending")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.New, k.Delete, k.All, k.Completed, k.Pending, k.Reload, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.New, k.Delete},
		{k.All, k.Completed, k.Pending, k.Reload, k.Quit},
	}
}
