package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Search     key.Binding
	Down       key.Binding
	Up         key.Binding
	Toggle     key.Binding
	SelectAll  key.Binding
	Clear      key.Binding
	MarkRead   key.Binding
	MarkUnread key.Binding
	MarkAll    key.Binding
	Delete     key.Binding
	Action     key.Binding
	Open       key.Binding
	Filter     key.Binding
	Refresh    key.Binding
	Retry      key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		SelectAll:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
		Clear:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		MarkRead:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "read")),
		MarkUnread: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unread")),
		MarkAll:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "all read")),
		Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Action:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "action")),
		Open:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		Filter:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Refresh:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "refresh")),
		Retry:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "retry")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{
		k.Search, k.Toggle, k.SelectAll, k.MarkRead, k.MarkUnread, k.MarkAll,
		k.Delete, k.Action, k.Filter, k.Refresh, k.Quit,
	}
}
