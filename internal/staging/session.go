// Package staging keeps a local model of a repository's working tree in
// sync with its backend.
//
// A Session mirrors the changed files, the HEAD commit and the rebase/merge
// state. It refreshes on bus notifications, reconciles each snapshot into
// its file entries without losing the user's staged choices, open diffs or
// commit message, and posts commands whose effects come back through the
// next refresh.
//
// Session follows the bubbletea model: every operation returns a tea.Cmd,
// and all state changes happen in Update. It is not safe for concurrent use.
package staging

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/stagehand/internal/api"
	"github.com/marcus/stagehand/internal/diff"
	"github.com/marcus/stagehand/internal/event"
)

// DefaultFileDisplayLimit is how many files are loaded before the user is
// asked to confirm.
const DefaultFileDisplayLimit = 50

const (
	throttleRefresh = "refresh"
	throttleDiffs   = "diffs"
)

// Options configures a Session.
type Options struct {
	Server   Server
	Bus      Bus
	Progress Progress
	RepoPath string

	// HandleFactory builds diff handles. When nil and Server implements
	// diff.Source, handles read their content from Server.
	HandleFactory HandleFactory
	// InitialDiffLines caps the lines a text diff shows before "show more".
	InitialDiffLines int

	FileDisplayLimit int
	ThrottleWindow   time.Duration
	DiffView         diff.View
	Logger           *slog.Logger
}

// Message is a commit message split into title and body.
type Message struct {
	Title string
	Body  string
}

// splitMessage returns the first line as the title and the lines from
// bodyFrom onward as the body.
func splitMessage(msg string, bodyFrom int) Message {
	lines := strings.Split(msg, "\n")
	m := Message{Title: lines[0]}
	if bodyFrom < len(lines) {
		m.Body = strings.Join(lines[bodyFrom:], "\n")
	}
	return m
}

// Session is the staging view model for one repository.
type Session struct {
	server   Server
	bus      Bus
	progress Progress
	build    HandleFactory
	log      *slog.Logger
	repoPath string

	ctx    context.Context
	cancel context.CancelFunc
	sub    *event.Subscription

	files []*FileEntry
	index map[string]*FileEntry

	head        *Message
	inRebase    bool
	inMerge     bool
	commitTitle string
	commitBody  string
	amend       bool

	fileDisplayLimit int
	loadAnyway       bool
	dialogOpen       bool
	abandoned        bool

	allStageFlag bool
	diffView     diff.View

	refreshThrottle throttle
	diffThrottle    throttle
}

// New creates a session. Call Init to subscribe to the bus and load the
// first snapshot.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Progress == nil {
		opts.Progress = noProgress{}
	}
	if opts.FileDisplayLimit <= 0 {
		opts.FileDisplayLimit = DefaultFileDisplayLimit
	}
	if opts.ThrottleWindow <= 0 {
		opts.ThrottleWindow = DefaultThrottleWindow
	}
	if opts.HandleFactory == nil {
		src, _ := opts.Server.(diff.Source)
		opts.HandleFactory = func(kind diff.Kind, file string) diff.Handle {
			return diff.New(kind, diff.Options{
				Source:       src,
				RepoPath:     opts.RepoPath,
				File:         file,
				InitialLines: opts.InitialDiffLines,
				Logger:       opts.Logger,
			})
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		server:           opts.Server,
		bus:              opts.Bus,
		progress:         opts.Progress,
		build:            opts.HandleFactory,
		log:              opts.Logger.With("repo", opts.RepoPath),
		repoPath:         opts.RepoPath,
		ctx:              ctx,
		cancel:           cancel,
		index:            make(map[string]*FileEntry),
		fileDisplayLimit: opts.FileDisplayLimit,
		diffView:         opts.DiffView,
		refreshThrottle:  throttle{name: throttleRefresh, window: opts.ThrottleWindow},
		diffThrottle:     throttle{name: throttleDiffs, window: opts.ThrottleWindow},
	}
}

// Init subscribes to refresh notifications and starts the first refresh.
func (s *Session) Init() tea.Cmd {
	if s.bus != nil && s.sub == nil {
		s.sub = s.bus.Subscribe(event.RequestAppContentRefresh, event.WorkingTreeChanged)
	}
	return tea.Batch(s.listen(), s.RefreshContent(nil))
}

// Close releases the bus subscription and cancels in-flight requests.
func (s *Session) Close() {
	s.cancel()
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
}

func (s *Session) listen() tea.Cmd {
	if s.sub == nil {
		return nil
	}
	ch := s.sub.C()
	return func() tea.Msg {
		e, ok := <-ch
		return busEventMsg{session: s, event: e, ok: ok}
	}
}

// Update applies a message produced by one of the session's commands.
// Messages belonging to other sessions are ignored.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case busEventMsg:
		if msg.session != s || !msg.ok {
			return nil
		}
		return tea.Batch(s.HandleEvent(msg.event), s.listen())

	case throttleFiredMsg:
		if msg.session != s {
			return nil
		}
		switch msg.name {
		case throttleRefresh:
			if s.refreshThrottle.fire() {
				return s.RefreshContent(nil)
			}
		case throttleDiffs:
			if s.diffThrottle.fire() {
				return s.InvalidateDiffs()
			}
		}

	case headLoadedMsg:
		if msg.session != s {
			return nil
		}
		s.applyHead(msg)

	case statusLoadedMsg:
		if msg.session != s {
			return nil
		}
		return s.applyStatus(msg)

	case tooManyFilesMsg:
		if msg.session != s {
			return nil
		}
		return s.resolveTooManyFiles(msg)

	case diffLoadedMsg:
		if msg.session != s {
			return nil
		}
		s.progress.Stop(s.progressKey("diffs"))
		if lm, ok := msg.inner.(diff.LoadedMsg); ok && lm.Handle != nil {
			lm.Handle.Apply(lm)
		}

	case CommandDoneMsg:
		if msg.session != s {
			return nil
		}
		return s.commandDone(msg)
	}
	return nil
}

// HandleEvent reacts to a bus notification. Explicit refresh requests run
// at once; working-tree changes are throttled.
func (s *Session) HandleEvent(e event.Event) tea.Cmd {
	if s.abandoned {
		return nil
	}
	switch e.Topic {
	case event.RequestAppContentRefresh:
		return tea.Batch(s.RefreshContent(nil), s.InvalidateDiffs())
	case event.WorkingTreeChanged:
		return tea.Batch(s.refreshThrottle.trigger(s), s.diffThrottle.trigger(s))
	}
	return nil
}

// refresh tracks the two fetches of one RefreshContent call.
type refresh struct {
	pending int
	errs    []error
	done    func(error)
}

func (r *refresh) finish(err error) {
	if err != nil {
		r.errs = append(r.errs, err)
	}
	r.pending--
	if r.pending == 0 && r.done != nil {
		r.done(errors.Join(r.errs...))
	}
}

// RefreshContent fetches HEAD and the working-tree status. done, when set,
// is called once from Update after both results have been applied, with
// any failure that is not an inactive-repository error. Failed refreshes
// are not retried.
func (s *Session) RefreshContent(done func(error)) tea.Cmd {
	if s.abandoned {
		if done != nil {
			done(nil)
		}
		return nil
	}
	req := &refresh{pending: 2, done: done}
	ctx, server, repo := s.ctx, s.server, s.repoPath
	limit := s.fileDisplayLimit
	if s.loadAnyway {
		limit = 0
	}
	return tea.Batch(
		func() tea.Msg {
			log, err := server.Head(ctx, repo, 1)
			return headLoadedMsg{session: s, req: req, log: log, err: err}
		},
		func() tea.Msg {
			st, err := server.Status(ctx, repo, limit)
			return statusLoadedMsg{session: s, req: req, status: st, err: err}
		},
	)
}

func (s *Session) fetchFailed(req *refresh, what string, err error) {
	if api.IsInactiveRepo(err) {
		s.log.Debug("repository not active", "fetch", what, "err", err)
		req.finish(nil)
		return
	}
	s.log.Warn("refresh failed", "fetch", what, "err", err)
	req.finish(err)
}

func (s *Session) applyHead(msg headLoadedMsg) {
	if msg.err != nil {
		s.fetchFailed(msg.req, "head", msg.err)
		return
	}
	if !s.abandoned {
		if len(msg.log) > 0 {
			h := splitMessage(msg.log[0].Message, 2)
			s.head = &h
		} else {
			s.head = nil
		}
	}
	msg.req.finish(nil)
}

func (s *Session) applyStatus(msg statusLoadedMsg) tea.Cmd {
	if msg.err != nil {
		s.fetchFailed(msg.req, "status", msg.err)
		return nil
	}
	defer msg.req.finish(nil)
	if s.abandoned || msg.status == nil {
		return nil
	}

	st := msg.status
	var cmd tea.Cmd
	if st.FileCount() > s.fileDisplayLimit && !s.loadAnyway && !s.dialogOpen {
		cmd = s.confirmTooManyFiles(st)
	} else {
		cmd = s.loadStatus(st)
	}
	s.setRepoState(st)
	return cmd
}

func (s *Session) confirmTooManyFiles(st *api.Status) tea.Cmd {
	s.dialogOpen = true
	conf := event.NewConfirmation("Too many unstaged files",
		"It is recommended to use command line as stagehand may be too slow.")
	s.publish(event.Event{Topic: event.RequestShowDialog, Dialog: conf})

	ctx := s.ctx
	return func() tea.Msg {
		return tooManyFilesMsg{session: s, status: st, confirmed: conf.Wait(ctx)}
	}
}

func (s *Session) resolveTooManyFiles(msg tooManyFilesMsg) tea.Cmd {
	s.dialogOpen = false
	if s.ctx.Err() != nil {
		return nil
	}
	if !msg.confirmed {
		s.log.Info("too many files, leaving staging view", "files", msg.status.FileCount())
		s.abandoned = true
		s.publish(event.Event{Topic: event.RequestNavigateAway})
		return nil
	}
	s.loadAnyway = true
	cmd := s.loadStatus(msg.status)
	s.setRepoState(msg.status)
	if msg.status.FileCount() > len(msg.status.Files) {
		// The held snapshot was cut at the display limit.
		cmd = tea.Batch(cmd, s.RefreshContent(nil))
	}
	return cmd
}

// loadStatus reconciles the snapshot into the entries and refetches the
// diffs that are open.
func (s *Session) loadStatus(st *api.Status) tea.Cmd {
	s.files, s.index = Reconcile(s.index, st.Files, s.build, s.diffView)
	cmds := make([]tea.Cmd, 0, len(s.files))
	for _, f := range s.files {
		cmds = append(cmds, s.invalidateEntry(f))
	}
	s.publish(event.Event{Topic: event.InitTooltip})
	return tea.Batch(cmds...)
}

func (s *Session) setRepoState(st *api.Status) {
	s.inRebase = st.InRebase
	s.inMerge = st.InMerge
	if st.InMerge {
		m := splitMessage(st.CommitMessage, 1)
		s.commitTitle = m.Title
		s.commitBody = m.Body
	}
}

// InvalidateDiffs refetches every open diff.
func (s *Session) InvalidateDiffs() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(s.files))
	for _, f := range s.files {
		cmds = append(cmds, s.invalidateEntry(f))
	}
	return tea.Batch(cmds...)
}

func (s *Session) invalidateEntry(f *FileEntry) tea.Cmd {
	cmd := f.invalidate(s.ctx)
	if cmd == nil {
		return nil
	}
	s.progress.Start(s.progressKey("diffs"))
	return func() tea.Msg {
		return diffLoadedMsg{session: s, inner: cmd()}
	}
}

func (s *Session) publish(e event.Event) {
	if s.bus == nil {
		return
	}
	if e.Source == "" {
		e.Source = s.repoPath
	}
	s.bus.Publish(e)
}

func (s *Session) progressKey(op string) string {
	return op + "-" + s.repoPath
}
