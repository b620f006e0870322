package staging

import (
	"context"
	"fmt"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/stagehand/internal/api"
	"github.com/marcus/stagehand/internal/diff"
	"github.com/marcus/stagehand/internal/event"
)

// Command names, also used as progress key prefixes.
const (
	OpCommit         = "committing"
	OpRebaseContinue = "rebase-continue"
	OpRebaseAbort    = "rebase-abort"
	OpMergeContinue  = "merge-continue"
	OpMergeAbort     = "merge-abort"
	OpStash          = "stash"
	OpDiscard        = "discard"
	OpIgnore         = "ignore"
	OpResolve        = "resolve-conflict"
)

// tracked reports whether op shows a progress indicator.
func tracked(op string) bool {
	switch op {
	case OpCommit, OpRebaseContinue, OpRebaseAbort, OpMergeContinue, OpMergeAbort, OpStash:
		return true
	}
	return false
}

// post runs fn against the server and reports the outcome as a
// CommandDoneMsg.
func (s *Session) post(op string, fn func(ctx context.Context) error) tea.Cmd {
	if tracked(op) {
		s.progress.Start(s.progressKey(op))
	}
	ctx := s.ctx
	return func() tea.Msg {
		return CommandDoneMsg{Op: op, Err: fn(ctx), session: s}
	}
}

func (s *Session) commandDone(msg CommandDoneMsg) tea.Cmd {
	if tracked(msg.Op) {
		s.progress.Stop(s.progressKey(msg.Op))
	}
	if msg.Err != nil {
		switch {
		case msg.Op == OpIgnore && api.IsAlreadyIgnored(msg.Err):
			s.log.Debug("file already ignored, forcing refresh")
			s.publish(event.Event{Topic: event.WorkingTreeChanged})
		case api.IsInactiveRepo(msg.Err):
			s.log.Debug("command on inactive repository", "op", msg.Op, "err", msg.Err)
		default:
			s.log.Warn("command failed", "op", msg.Op, "err", msg.Err)
		}
		return nil
	}

	if msg.Op == OpCommit {
		s.commitTitle = ""
		s.commitBody = ""
		s.amend = false
		// The index is kept so files left out of the commit come back with
		// their staged choice on the next refresh.
		s.files = nil
	}
	return nil
}

// commitMessage joins title and body with a blank line. An empty body is
// left out.
func (s *Session) commitMessage() string {
	msg := s.commitTitle
	if s.commitBody != "" {
		msg += "\n\n" + s.commitBody
	}
	return msg
}

// Commit posts the staged files with the current message. It returns nil
// when CommitValidation blocks the commit.
func (s *Session) Commit() tea.Cmd {
	if s.CommitValidation() != BlockerNone {
		return nil
	}
	req := api.CommitRequest{
		RepoPath: s.repoPath,
		Message:  s.commitMessage(),
		Files:    s.StagedPaths(),
		Amend:    s.amend,
	}
	server := s.server
	return s.post(OpCommit, func(ctx context.Context) error {
		return server.Commit(ctx, req)
	})
}

// ToggleAmend switches amend mode. Enabling it with an empty title loads
// the HEAD message; disabling it clears the message if it was left as the
// HEAD message.
func (s *Session) ToggleAmend() {
	switch {
	case !s.amend && s.commitTitle == "":
		if s.head != nil {
			s.commitTitle = s.head.Title
			s.commitBody = s.head.Body
		}
	case s.amend:
		if s.head != nil && s.commitTitle == s.head.Title && s.commitBody == s.head.Body {
			s.commitTitle = ""
			s.commitBody = ""
		}
	}
	s.amend = !s.amend
}

func (s *Session) RebaseContinue() tea.Cmd {
	server, repo := s.server, s.repoPath
	return s.post(OpRebaseContinue, func(ctx context.Context) error {
		return server.RebaseContinue(ctx, repo)
	})
}

func (s *Session) RebaseAbort() tea.Cmd {
	server, repo := s.server, s.repoPath
	return s.post(OpRebaseAbort, func(ctx context.Context) error {
		return server.RebaseAbort(ctx, repo)
	})
}

// MergeContinue concludes the merge with the current message.
func (s *Session) MergeContinue() tea.Cmd {
	server, repo, msg := s.server, s.repoPath, s.commitMessage()
	return s.post(OpMergeContinue, func(ctx context.Context) error {
		return server.MergeContinue(ctx, repo, msg)
	})
}

func (s *Session) MergeAbort() tea.Cmd {
	server, repo := s.server, s.repoPath
	return s.post(OpMergeAbort, func(ctx context.Context) error {
		return server.MergeAbort(ctx, repo)
	})
}

// StashAll stashes every change using the commit title as stash message.
func (s *Session) StashAll() tea.Cmd {
	server, repo, msg := s.server, s.repoPath, s.commitTitle
	return s.post(OpStash, func(ctx context.Context) error {
		return server.Stash(ctx, repo, msg)
	})
}

// DiscardAllChanges asks for confirmation and then discards every change.
func (s *Session) DiscardAllChanges() tea.Cmd {
	return s.confirmDiscard("Are you sure you want to discard all changes?",
		api.DiscardRequest{RepoPath: s.repoPath, All: true})
}

// DiscardFile asks for confirmation and then discards the changes of path.
func (s *Session) DiscardFile(path string) tea.Cmd {
	return s.confirmDiscard("Are you sure you want to discard these changes?",
		api.DiscardRequest{RepoPath: s.repoPath, File: path})
}

func (s *Session) confirmDiscard(title string, req api.DiscardRequest) tea.Cmd {
	conf := event.NewConfirmation(title, "This operation cannot be undone.")
	s.publish(event.Event{Topic: event.RequestShowDialog, Dialog: conf})

	ctx, server := s.ctx, s.server
	return func() tea.Msg {
		if !conf.Wait(ctx) {
			return nil
		}
		return CommandDoneMsg{Op: OpDiscard, Err: server.DiscardChanges(ctx, req), session: s}
	}
}

// IgnoreFile adds path to .gitignore.
func (s *Session) IgnoreFile(path string) tea.Cmd {
	server, repo := s.server, s.repoPath
	return s.post(OpIgnore, func(ctx context.Context) error {
		return server.IgnoreFile(ctx, repo, path)
	})
}

// ResolveConflict marks path as resolved.
func (s *Session) ResolveConflict(path string) tea.Cmd {
	server, repo := s.server, s.repoPath
	return s.post(OpResolve, func(ctx context.Context) error {
		return server.ResolveConflicts(ctx, repo, []string{path})
	})
}

// ToggleAllStaged sets every entry's staged flag to the toggle state and
// then flips the toggle, so successive calls alternate between unstaging
// and staging everything.
func (s *Session) ToggleAllStaged() {
	for _, f := range s.files {
		f.Staged = s.allStageFlag
	}
	s.allStageFlag = !s.allStageFlag
}

// ToggleStaged flips the staged flag of path. It reports whether path is
// a current entry.
func (s *Session) ToggleStaged(path string) bool {
	f := s.entry(path)
	if f == nil {
		return false
	}
	f.Staged = !f.Staged
	return true
}

// ToggleDiffs shows or hides the diff of path. Showing always fetches.
func (s *Session) ToggleDiffs(path string) tea.Cmd {
	f := s.entry(path)
	if f == nil {
		return nil
	}
	if f.ShowingDiffs {
		f.ShowingDiffs = false
		return nil
	}
	f.ShowingDiffs = true
	return s.invalidateEntry(f)
}

// SetDiffView changes the text diff preference. Every entry gets a new
// handle and open diffs are fetched again.
func (s *Session) SetDiffView(v diff.View) tea.Cmd {
	if v == s.diffView {
		return nil
	}
	s.diffView = v
	cmds := make([]tea.Cmd, 0, len(s.files))
	for _, f := range s.files {
		f.syncHandle(s.build, v, true)
		cmds = append(cmds, s.invalidateEntry(f))
	}
	return tea.Batch(cmds...)
}

func (s *Session) SetCommitTitle(title string) { s.commitTitle = title }
func (s *Session) SetCommitBody(body string)   { s.commitBody = body }

func (s *Session) entry(path string) *FileEntry {
	for _, f := range s.files {
		if f.Path == path {
			return f
		}
	}
	return nil
}

// Files returns the entries in server order. The slice must not be
// modified.
func (s *Session) Files() []*FileEntry { return s.files }

// StagedPaths returns the paths of the staged entries in order.
func (s *Session) StagedPaths() []string {
	var paths []string
	for _, f := range s.files {
		if f.Staged {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

func (s *Session) RepoPath() string      { return s.repoPath }
func (s *Session) Head() *Message        { return s.head }
func (s *Session) InRebase() bool        { return s.inRebase }
func (s *Session) InMerge() bool         { return s.inMerge }
func (s *Session) Amend() bool           { return s.amend }
func (s *Session) CommitTitle() string   { return s.commitTitle }
func (s *Session) CommitBody() string    { return s.commitBody }
func (s *Session) DiffView() diff.View   { return s.diffView }
func (s *Session) LoadAnyway() bool      { return s.loadAnyway }
func (s *Session) DialogOpen() bool      { return s.dialogOpen }
func (s *Session) Abandoned() bool       { return s.abandoned }
func (s *Session) FileDisplayLimit() int { return s.fileDisplayLimit }

// Stats summarises the entries, e.g. "3 files, 2 to be committed".
func (s *Session) Stats() string {
	return fmt.Sprintf("%d files, %d to be committed", len(s.files), len(s.StagedPaths()))
}

// TitleLength is the commit title length in characters.
func (s *Session) TitleLength() int { return utf8.RuneCountInString(s.commitTitle) }

// CommitButtonVisible reports whether a plain commit is offered. During a
// rebase or merge the continue/abort actions replace it.
func (s *Session) CommitButtonVisible() bool { return !s.inRebase && !s.inMerge }

func (s *Session) CanAmend() bool    { return s.head != nil && !s.inRebase && !s.inMerge }
func (s *Session) CanStashAll() bool { return !s.amend }

// ShowNux reports whether the empty-state hint should be shown.
func (s *Session) ShowNux() bool { return len(s.files) == 0 && !s.amend && !s.inRebase }

// ToggleAllLabel describes what ToggleAllStaged will do next.
func (s *Session) ToggleAllLabel() string {
	if s.allStageFlag {
		return "Stage all"
	}
	return "Unstage all"
}
