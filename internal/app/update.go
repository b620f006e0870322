package app

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/stagehand/internal/api"
	"github.com/marcus/stagehand/internal/diff"
	"github.com/marcus/stagehand/internal/event"
	"github.com/marcus/stagehand/internal/staging"
	"github.com/marcus/stagehand/internal/state"
	"github.com/marcus/stagehand/internal/ui"
)

const toastDuration = 3 * time.Second

// Update handles all messages and returns the updated model and commands.
// Every message is also offered to the session, which ignores what it does
// not own.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		m.syncInputs()
		m.clampCursor()
		return m, cmd

	case hostEventMsg:
		if !msg.ok {
			return m, nil
		}
		cmds = append(cmds, m.handleHostEvent(msg.event), m.listen())
		return m, tea.Batch(cmds...)

	case TickMsg:
		m.ClearToast()
		return m, tickCmd()

	case ToastMsg:
		m.ShowToast(msg.Message, msg.Duration, msg.IsError)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case staging.CommandDoneMsg:
		cmds = append(cmds, m.commandFinished(msg))
	}

	cmds = append(cmds, m.session.Update(msg))
	m.syncInputs()
	m.clampCursor()
	return m, tea.Batch(cmds...)
}

// commandFinished reports failures and asks for a refresh after a
// successful mutation.
func (m *Model) commandFinished(msg staging.CommandDoneMsg) tea.Cmd {
	switch {
	case msg.Err == nil:
		if m.bus != nil {
			m.bus.Publish(event.Event{Topic: event.WorkingTreeChanged, Source: m.session.RepoPath()})
		}
	case api.IsInactiveRepo(msg.Err), msg.Op == staging.OpIgnore && api.IsAlreadyIgnored(msg.Err):
	default:
		m.ShowToast(msg.Op+" failed: "+msg.Err.Error(), toastDuration, true)
	}
	return nil
}

func (m *Model) handleHostEvent(e event.Event) tea.Cmd {
	switch e.Topic {
	case event.RequestShowDialog:
		if e.Dialog == nil {
			return nil
		}
		if m.pending != nil {
			m.queued = append(m.queued, e.Dialog)
			return nil
		}
		m.openDialog(e.Dialog)
	case event.RequestNavigateAway:
		return tea.Quit
	case event.InitTooltip:
		m.clampCursor()
	}
	return nil
}

func (m *Model) openDialog(c *event.Confirmation) {
	m.pending = c
	m.dialog = ui.NewConfirmDialog(c.Title, c.Details)
	m.dialog.ConfirmLabel = " Yes "
	m.dialog.CancelLabel = " No "
	m.dialog.Danger = true
	m.dialog.Width = 64
}

func (m *Model) resolveDialog(ok bool) {
	m.pending.Resolve(ok)
	m.pending, m.dialog = nil, nil
	if len(m.queued) > 0 {
		next := m.queued[0]
		m.queued = m.queued[1:]
		m.openDialog(next)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.dialog != nil {
		switch m.dialog.HandleKey(msg) {
		case ui.ActionConfirm:
			m.resolveDialog(true)
		case ui.ActionCancel:
			m.resolveDialog(false)
		}
		return nil
	}

	switch m.focus {
	case focusTitle, focusBody:
		return m.handleEditorKey(msg)
	}
	return m.handleFileKey(msg)
}

func (m *Model) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Leave):
		m.setFocus(focusFiles)
		return nil
	case key.Matches(msg, m.keys.NextField):
		if m.focus == focusTitle {
			m.setFocus(focusBody)
		} else {
			m.setFocus(focusFiles)
		}
		return nil
	case key.Matches(msg, m.keys.Commit):
		return m.commit()
	}

	var cmd tea.Cmd
	if m.focus == focusTitle {
		if msg.Type == tea.KeyEnter {
			m.setFocus(focusBody)
			return nil
		}
		m.title, cmd = m.title.Update(msg)
		m.session.SetCommitTitle(m.title.Value())
	} else {
		m.body, cmd = m.body.Update(msg)
		m.session.SetCommitBody(m.body.Value())
	}
	return cmd
}

func (m *Model) handleFileKey(msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	s := m.session
	entry := m.selected()

	switch {
	case key.Matches(msg, k.Quit):
		return tea.Quit
	case key.Matches(msg, k.Down):
		if m.cursor < len(s.Files())-1 {
			m.cursor++
			m.diffScroll = 0
		}
	case key.Matches(msg, k.Up):
		if m.cursor > 0 {
			m.cursor--
			m.diffScroll = 0
		}
	case key.Matches(msg, k.Stage):
		if entry != nil {
			s.ToggleStaged(entry.Path)
		}
	case key.Matches(msg, k.StageAll):
		s.ToggleAllStaged()
	case key.Matches(msg, k.Diff):
		if entry != nil {
			m.diffScroll = 0
			return s.ToggleDiffs(entry.Path)
		}
	case key.Matches(msg, k.DiffView):
		return m.toggleDiffView()
	case key.Matches(msg, k.More):
		if entry != nil {
			if e, ok := entry.Diff().(diff.Expander); ok && e.HasMore() {
				e.ShowMore()
			}
		}
	case key.Matches(msg, k.ScrollDiffDown):
		m.diffScroll += max(m.height/2, 1)
	case key.Matches(msg, k.ScrollDiffUp):
		m.diffScroll = max(m.diffScroll-max(m.height/2, 1), 0)
	case key.Matches(msg, k.Edit):
		m.setFocus(focusTitle)
	case key.Matches(msg, k.Commit):
		return m.commit()
	case key.Matches(msg, k.Amend):
		if s.CanAmend() {
			s.ToggleAmend()
		}
	case key.Matches(msg, k.Stash):
		if s.CanStashAll() {
			return s.StashAll()
		}
	case key.Matches(msg, k.Discard):
		if entry != nil {
			return s.DiscardFile(entry.Path)
		}
	case key.Matches(msg, k.DiscardAll):
		return s.DiscardAllChanges()
	case key.Matches(msg, k.Ignore):
		if entry != nil {
			return s.IgnoreFile(entry.Path)
		}
	case key.Matches(msg, k.Resolve):
		if entry != nil && entry.Conflict {
			return s.ResolveConflict(entry.Path)
		}
	case key.Matches(msg, k.Continue):
		switch {
		case s.InRebase():
			return s.RebaseContinue()
		case s.InMerge():
			return s.MergeContinue()
		}
	case key.Matches(msg, k.Abort):
		switch {
		case s.InRebase():
			return s.RebaseAbort()
		case s.InMerge():
			return s.MergeAbort()
		}
	case key.Matches(msg, k.Refresh):
		if m.bus != nil {
			m.bus.Publish(event.Event{Topic: event.RequestAppContentRefresh, Source: s.RepoPath()})
		}
	case key.Matches(msg, k.CopyPath):
		if entry != nil {
			return copyPath(entry.Path)
		}
	case key.Matches(msg, k.ToggleFooter):
		m.showFooter = !m.showFooter
	case key.Matches(msg, k.NarrowList):
		m.resizeFileList(-fileListStep)
	case key.Matches(msg, k.WidenList):
		m.resizeFileList(fileListStep)
	}
	return nil
}

// resizeFileList changes the saved file list width by delta percent.
func (m *Model) resizeFileList(delta int) {
	pct := min(max(fileListPercent()+delta, minFileListWidth), maxFileListWidth)
	if err := state.SetFileListWidth(pct); err != nil {
		m.log.Warn("save file list width", "err", err)
	}
}

// commit runs the commit when nothing blocks it, otherwise it reports why.
func (m *Model) commit() tea.Cmd {
	if !m.session.CommitButtonVisible() {
		return nil
	}
	if b := m.session.CommitValidation(); b != staging.BlockerNone {
		m.ShowToast(string(b), toastDuration, true)
		return nil
	}
	m.setFocus(focusFiles)
	return m.session.Commit()
}

// toggleDiffView switches between unified and side-by-side diffs and
// remembers the choice.
func (m *Model) toggleDiffView() tea.Cmd {
	next := diff.ViewSideBySide
	if m.session.DiffView() == diff.ViewSideBySide {
		next = diff.ViewDefault
	}
	if err := state.SetDiffView(next.String()); err != nil {
		m.log.Warn("save diff view", "err", err)
	}
	return m.session.SetDiffView(next)
}

func copyPath(path string) tea.Cmd {
	if err := clipboard.WriteAll(path); err != nil {
		return ShowToast("Copy failed: "+err.Error(), toastDuration, true)
	}
	return ShowToast("Copied: "+path, toastDuration, false)
}
