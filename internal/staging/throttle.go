package staging

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultThrottleWindow is the coalescing window for refreshes triggered by
// working-tree notifications.
const DefaultThrottleWindow = 400 * time.Millisecond

// throttle coalesces bursts of calls into a single run on the trailing edge
// of the window. The first call arms a tick; calls made while it is pending
// are absorbed. The operation runs once when the tick is handled, against
// the state current at that moment.
type throttle struct {
	name   string
	window time.Duration
	armed  bool
}

// throttleFiredMsg is delivered when a throttle window closes.
type throttleFiredMsg struct {
	session *Session
	name    string
}

func (t *throttle) trigger(s *Session) tea.Cmd {
	if t.armed {
		return nil
	}
	t.armed = true
	name := t.name
	return tea.Tick(t.window, func(time.Time) tea.Msg {
		return throttleFiredMsg{session: s, name: name}
	})
}

// fire disarms the throttle and reports whether it was armed.
func (t *throttle) fire() bool {
	if !t.armed {
		return false
	}
	t.armed = false
	return true
}
