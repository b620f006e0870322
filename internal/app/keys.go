package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds the bindings of the file list.
type keyMap struct {
	Up, Down       key.Binding
	Stage          key.Binding
	StageAll       key.Binding
	Diff           key.Binding
	DiffView       key.Binding
	More           key.Binding
	Edit           key.Binding
	Commit         key.Binding
	Amend          key.Binding
	Stash          key.Binding
	Discard        key.Binding
	DiscardAll     key.Binding
	Ignore         key.Binding
	Resolve        key.Binding
	Continue       key.Binding
	Abort          key.Binding
	Refresh        key.Binding
	CopyPath       key.Binding
	Quit           key.Binding
	NextField      key.Binding
	Leave          key.Binding
	ToggleFooter   key.Binding
	ScrollDiffDown key.Binding
	ScrollDiffUp   key.Binding
	NarrowList     key.Binding
	WidenList      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:             key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:           key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Stage:          key.NewBinding(key.WithKeys(" ", "s"), key.WithHelp("space", "stage")),
		StageAll:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle all")),
		Diff:           key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "diff")),
		DiffView:       key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "split")),
		More:           key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "more")),
		Edit:           key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "message")),
		Commit:         key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("^s", "commit")),
		Amend:          key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "amend")),
		Stash:          key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "stash")),
		Discard:        key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "discard")),
		DiscardAll:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "discard all")),
		Ignore:         key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "ignore")),
		Resolve:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "resolve")),
		Continue:       key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "continue")),
		Abort:          key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "abort")),
		Refresh:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		CopyPath:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy path")),
		Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NextField:      key.NewBinding(key.WithKeys("tab", "shift+tab")),
		Leave:          key.NewBinding(key.WithKeys("esc")),
		ToggleFooter:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "hints")),
		ScrollDiffDown: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("^d", "scroll")),
		ScrollDiffUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		NarrowList:     key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "narrow")),
		WidenList:      key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "widen")),
	}
}

// footerHints returns the bindings shown in the footer for the current state.
func (m *Model) footerHints() []key.Binding {
	k := m.keys
	k.StageAll.SetHelp("a", strings.ToLower(m.session.ToggleAllLabel()))
	hints := []key.Binding{k.Stage, k.StageAll, k.Diff, k.DiffView, k.Edit}
	switch {
	case m.session.InRebase() || m.session.InMerge():
		hints = append(hints, k.Continue, k.Abort, k.Resolve)
	default:
		hints = append(hints, k.Commit, k.Amend, k.Stash)
	}
	return append(hints, k.Discard, k.Ignore, k.CopyPath, k.Refresh, k.Quit)
}
