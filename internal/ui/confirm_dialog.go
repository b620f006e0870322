package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/stagehand/internal/styles"
)

// ModalWidthMedium is the default confirm dialog width.
const ModalWidthMedium = 50

// Dialog actions returned by HandleKey.
const (
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
)

var dialogKeys = struct {
	Next, Prev, Left, Right, Select, Yes, No, Cancel key.Binding
}{
	Next:   key.NewBinding(key.WithKeys("tab")),
	Prev:   key.NewBinding(key.WithKeys("shift+tab")),
	Left:   key.NewBinding(key.WithKeys("left", "h")),
	Right:  key.NewBinding(key.WithKeys("right", "l")),
	Select: key.NewBinding(key.WithKeys("enter", " ")),
	Yes:    key.NewBinding(key.WithKeys("y")),
	No:     key.NewBinding(key.WithKeys("n")),
	Cancel: key.NewBinding(key.WithKeys("esc", "q")),
}

// ConfirmDialog is a confirmation modal with a confirm and a cancel button.
type ConfirmDialog struct {
	Title        string
	Message      string
	ConfirmLabel string // e.g., " Confirm ", " Discard ", " Yes "
	CancelLabel  string // e.g., " Cancel ", " No "
	Danger       bool   // render the confirm button in danger colors
	Width        int    // Modal width (default 50)

	cancelFocused bool
}

// NewConfirmDialog creates a dialog with sensible defaults.
func NewConfirmDialog(title, message string) *ConfirmDialog {
	return &ConfirmDialog{
		Title:        title,
		Message:      message,
		ConfirmLabel: " Confirm ",
		CancelLabel:  " Cancel ",
		Width:        ModalWidthMedium,
	}
}

// HandleKey processes a key press and returns ActionConfirm, ActionCancel
// or "" when the dialog stays open.
func (d *ConfirmDialog) HandleKey(msg tea.KeyMsg) string {
	switch {
	case key.Matches(msg, dialogKeys.Cancel), key.Matches(msg, dialogKeys.No):
		return ActionCancel
	case key.Matches(msg, dialogKeys.Yes):
		return ActionConfirm
	case key.Matches(msg, dialogKeys.Next), key.Matches(msg, dialogKeys.Prev):
		d.cancelFocused = !d.cancelFocused
	case key.Matches(msg, dialogKeys.Left):
		d.cancelFocused = false
	case key.Matches(msg, dialogKeys.Right):
		d.cancelFocused = true
	case key.Matches(msg, dialogKeys.Select):
		if d.cancelFocused {
			return ActionCancel
		}
		return ActionConfirm
	}
	return ""
}

// Focused returns the action of the focused button.
func (d *ConfirmDialog) Focused() string {
	if d.cancelFocused {
		return ActionCancel
	}
	return ActionConfirm
}

// View renders the dialog box.
func (d *ConfirmDialog) View() string {
	width := d.Width
	if width <= 0 {
		width = ModalWidthMedium
	}
	inner := width - styles.ModalBox.GetHorizontalFrameSize()

	confirm, cancel := styles.Button, styles.Button
	if d.Danger {
		confirm = styles.ButtonDanger
	}
	if d.cancelFocused {
		cancel = styles.ButtonFocused
	} else if d.Danger {
		confirm = styles.ButtonDangerFocused
	} else {
		confirm = styles.ButtonFocused
	}

	var b strings.Builder
	b.WriteString(styles.ModalTitle.Render(d.Title))
	b.WriteString("\n")
	if d.Message != "" {
		b.WriteString(styles.Body.Width(inner).Render(d.Message))
		b.WriteString("\n\n")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		confirm.Render(d.ConfirmLabel), "  ", cancel.Render(d.CancelLabel)))

	box := styles.ModalBox.Width(inner + styles.ModalBox.GetHorizontalPadding())
	if d.Danger {
		box = box.BorderForeground(styles.Error)
	}
	return box.Render(b.String())
}
