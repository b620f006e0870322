package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/stagehand/internal/event"
)

type (
	// TickMsg is sent on each clock tick.
	TickMsg time.Time

	// ToastMsg displays a temporary message.
	ToastMsg struct {
		Message  string
		Duration time.Duration
		IsError  bool
	}

	// hostEventMsg carries a bus notification addressed to the host.
	hostEventMsg struct {
		event event.Event
		ok    bool
	}
)

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// ShowToast returns a command to show a toast message.
func ShowToast(msg string, d time.Duration, isError bool) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{Message: msg, Duration: d, IsError: isError}
	}
}
