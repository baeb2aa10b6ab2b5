package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Quit     key.Binding
	Search   key.Binding
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	New      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	View     key.Binding
	Lift     key.Binding
	Refresh  key.Binding
	Dismiss  key.Binding
	Save     key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "column")),
	Right:    key.NewBinding(key.WithKeys("right", "l")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "card")),
	Down:     key.NewBinding(key.WithKeys("down", "j")),
	PrevPage: key.NewBinding(key.WithKeys("["), key.WithHelp("[/]", "page")),
	NextPage: key.NewBinding(key.WithKeys("]")),
	New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	Edit:     key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
	Delete:   key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
	View:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view")),
	Lift:     key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "move")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Dismiss:  key.NewBinding(key.WithKeys("esc")),
	Save:     key.NewBinding(key.WithKeys("ctrl+s")),
}

// boardHelp is the footer hint on the main board.
func boardHelp() []key.Binding {
	return []key.Binding{keys.Left, keys.Up, keys.PrevPage, keys.New, keys.Edit, keys.Delete, keys.Lift, keys.View, keys.Search, keys.Refresh, keys.Quit}
}
