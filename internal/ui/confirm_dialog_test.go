package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewConfirmDialog(t *testing.T) {
	d := NewConfirmDialog("Test Title", "Test message")

	if d.Title != "Test Title" {
		t.Errorf("expected title 'Test Title', got %q", d.Title)
	}
	if d.Message != "Test message" {
		t.Errorf("expected message 'Test message', got %q", d.Message)
	}
	if d.ConfirmLabel != " Confirm " {
		t.Errorf("expected default confirm label ' Confirm ', got %q", d.ConfirmLabel)
	}
	if d.CancelLabel != " Cancel " {
		t.Errorf("expected default cancel label ' Cancel ', got %q", d.CancelLabel)
	}
	if d.Width != ModalWidthMedium {
		t.Errorf("expected width %d, got %d", ModalWidthMedium, d.Width)
	}
	if d.Focused() != ActionConfirm {
		t.Errorf("confirm should be focused first, got %q", d.Focused())
	}
}

func TestConfirmDialog_View(t *testing.T) {
	d := NewConfirmDialog("Discard changes?", "This operation cannot be undone.")
	d.ConfirmLabel = " Discard "
	d.Danger = true

	output := d.View()
	for _, want := range []string{"Discard changes?", "cannot be undone", "Discard", "Cancel"} {
		if !strings.Contains(output, want) {
			t.Errorf("render should contain %q", want)
		}
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConfirmDialog_HandleKey(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want string
	}{
		{"enter confirms", []string{"enter"}, ActionConfirm},
		{"esc cancels", []string{"esc"}, ActionCancel},
		{"y confirms", []string{"y"}, ActionConfirm},
		{"n cancels", []string{"n"}, ActionCancel},
		{"tab then enter cancels", []string{"tab", "enter"}, ActionCancel},
		{"tab twice then enter confirms", []string{"tab", "tab", "enter"}, ActionConfirm},
		{"right then enter cancels", []string{"right", "enter"}, ActionCancel},
		{"right left enter confirms", []string{"right", "left", "enter"}, ActionConfirm},
		{"other keys ignored", []string{"x"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewConfirmDialog("Test", "Message")
			var got string
			for _, k := range tt.keys {
				got = d.HandleKey(keyMsg(k))
			}
			if got != tt.want {
				t.Errorf("action = %q, want %q", got, tt.want)
			}
		})
	}
}
