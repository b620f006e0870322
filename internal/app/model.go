// Package app hosts a staging session in a bubbletea program.
package app

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/stagehand/internal/config"
	"github.com/marcus/stagehand/internal/event"
	"github.com/marcus/stagehand/internal/progress"
	"github.com/marcus/stagehand/internal/staging"
	"github.com/marcus/stagehand/internal/ui"
)

// focus identifies the widget receiving key presses.
type focus int

const (
	focusFiles focus = iota
	focusTitle
	focusBody
)

// Options configures the host model.
type Options struct {
	Session  *staging.Session
	Bus      staging.Bus
	Tracker  *progress.Tracker
	Config   *config.Config
	RepoName string
	Logger   *slog.Logger
}

// Model is the root bubbletea model. It forwards every message to the
// staging session and presents the dialogs the session asks for.
type Model struct {
	session  *staging.Session
	bus      staging.Bus
	sub      *event.Subscription
	tracker  *progress.Tracker
	log      *slog.Logger
	repoName string

	keys  keyMap
	focus focus

	title   textinput.Model
	body    textarea.Model
	spinner spinner.Model

	cursor     int
	diffScroll int

	dialog  *ui.ConfirmDialog
	pending *event.Confirmation
	queued  []*event.Confirmation

	width, height int
	showFooter    bool
	ready         bool

	statusMsg     string
	statusExpiry  time.Time
	statusIsError bool
}

// New creates the host model.
func New(opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}

	title := textinput.New()
	title.Placeholder = "Commit title"
	title.Prompt = ""
	title.CharLimit = 0

	body := textarea.New()
	body.Placeholder = "Description"
	body.ShowLineNumbers = false
	body.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
	body.SetHeight(3)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return &Model{
		session:    opts.Session,
		bus:        opts.Bus,
		tracker:    opts.Tracker,
		log:        opts.Logger,
		repoName:   opts.RepoName,
		keys:       defaultKeyMap(),
		title:      title,
		body:       body,
		spinner:    sp,
		showFooter: opts.Config.UI.ShowFooter,
	}
}

// Init subscribes to host notifications and starts the session.
func (m *Model) Init() tea.Cmd {
	if m.bus != nil && m.sub == nil {
		m.sub = m.bus.Subscribe(event.RequestShowDialog, event.RequestNavigateAway, event.InitTooltip)
	}
	return tea.Batch(m.session.Init(), m.listen(), m.spinner.Tick, tickCmd())
}

// Close releases the session and the host subscription.
func (m *Model) Close() {
	m.session.Close()
	if m.sub != nil {
		m.sub.Unsubscribe()
		m.sub = nil
	}
	// Unblock a session command waiting on a dialog.
	if m.pending != nil {
		m.pending.Resolve(false)
	}
	for _, c := range m.queued {
		c.Resolve(false)
	}
}

func (m *Model) listen() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	ch := m.sub.C()
	return func() tea.Msg {
		e, ok := <-ch
		return hostEventMsg{event: e, ok: ok}
	}
}

// selected returns the entry under the cursor, or nil.
func (m *Model) selected() *staging.FileEntry {
	files := m.session.Files()
	if m.cursor < 0 || m.cursor >= len(files) {
		return nil
	}
	return files[m.cursor]
}

func (m *Model) clampCursor() {
	n := len(m.session.Files())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// ShowToast displays msg in the footer for d.
func (m *Model) ShowToast(msg string, d time.Duration, isError bool) {
	m.statusMsg = msg
	m.statusExpiry = time.Now().Add(d)
	m.statusIsError = isError
}

// ClearToast drops an expired toast.
func (m *Model) ClearToast() {
	if m.statusMsg != "" && time.Now().After(m.statusExpiry) {
		m.statusMsg = ""
		m.statusIsError = false
	}
}

// syncInputs copies the session's message fields into the editors. The
// session changes them on its own when a merge starts, amend is toggled or
// a commit succeeds.
func (m *Model) syncInputs() {
	if t := m.session.CommitTitle(); m.title.Value() != t {
		m.title.SetValue(t)
	}
	if b := m.session.CommitBody(); m.body.Value() != b {
		m.body.SetValue(b)
	}
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	m.title.Blur()
	m.body.Blur()
	switch f {
	case focusTitle:
		m.title.Focus()
	case focusBody:
		m.body.Focus()
	}
}
