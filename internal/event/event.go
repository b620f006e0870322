// Package event provides the program-wide notification bus shared by the
// staging session, the working-tree watcher and the host UI.
package event

import (
	"context"
	"sync"
)

// Topic names a kind of notification.
type Topic string

const (
	// RequestAppContentRefresh asks every view to reload immediately.
	RequestAppContentRefresh Topic = "request-app-content-refresh"
	// WorkingTreeChanged reports that files in the working tree changed.
	WorkingTreeChanged Topic = "working-tree-changed"
	// RequestShowDialog asks the host to present Event.Dialog.
	RequestShowDialog Topic = "request-show-dialog"
	// InitTooltip asks the host to (re)bind tooltips after a list changed.
	InitTooltip Topic = "init-tooltip"
	// RequestNavigateAway asks the host to leave the current view.
	RequestNavigateAway Topic = "request-navigate-away"
)

// Event is a single notification.
type Event struct {
	Topic  Topic
	Dialog *Confirmation // set for RequestShowDialog
	Source string        // optional, e.g. the repo path that emitted it
}

// Confirmation is a yes/no question presented by the host. The asking side
// waits on it; the host resolves it exactly once.
type Confirmation struct {
	Title   string
	Details string

	once   sync.Once
	done   chan struct{}
	result bool
}

// NewConfirmation creates an unresolved confirmation.
func NewConfirmation(title, details string) *Confirmation {
	return &Confirmation{
		Title:   title,
		Details: details,
		done:    make(chan struct{}),
	}
}

// Resolve records the answer and closes the confirmation. Later calls are
// ignored.
func (c *Confirmation) Resolve(ok bool) {
	c.once.Do(func() {
		c.result = ok
		close(c.done)
	})
}

// Closed returns a channel closed once the confirmation is resolved.
func (c *Confirmation) Closed() <-chan struct{} { return c.done }

// Wait blocks until the confirmation is resolved and returns the answer.
// A cancelled context counts as "no".
func (c *Confirmation) Wait(ctx context.Context) bool {
	select {
	case <-c.done:
		return c.result
	case <-ctx.Done():
		return false
	}
}
