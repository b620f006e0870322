package staging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/stagehand/internal/api"
	"github.com/marcus/stagehand/internal/diff"
	"github.com/marcus/stagehand/internal/event"
)

// fakeServer is an in-memory backend. It also serves diff content so the
// default handle factory can be used.
type fakeServer struct {
	mu sync.Mutex

	status    *api.Status
	statusErr error
	log       []api.LogEntry
	headErr   error
	cmdErr    error

	statusCalls int
	headCalls   int
	lastLimit   int
	diffCalls   int
	blobCalls   int

	commits   []api.CommitRequest
	discards  []api.DiscardRequest
	merges    []string
	stashes   []string
	ignored   []string
	resolved  [][]string
	rebaseOps []string
}

func (f *fakeServer) Status(_ context.Context, _ string, limit int) (*api.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	f.lastLimit = limit
	return f.status, f.statusErr
}

func (f *fakeServer) Head(_ context.Context, _ string, _ int) ([]api.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headCalls++
	return f.log, f.headErr
}

func (f *fakeServer) Commit(_ context.Context, req api.CommitRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits = append(f.commits, req)
	return f.cmdErr
}

func (f *fakeServer) RebaseContinue(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebaseOps = append(f.rebaseOps, "continue")
	return f.cmdErr
}

func (f *fakeServer) RebaseAbort(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebaseOps = append(f.rebaseOps, "abort")
	return f.cmdErr
}

func (f *fakeServer) MergeContinue(_ context.Context, _ string, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merges = append(f.merges, message)
	return f.cmdErr
}

func (f *fakeServer) MergeAbort(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merges = append(f.merges, "<abort>")
	return f.cmdErr
}

func (f *fakeServer) Stash(_ context.Context, _ string, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stashes = append(f.stashes, message)
	return f.cmdErr
}

func (f *fakeServer) DiscardChanges(_ context.Context, req api.DiscardRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discards = append(f.discards, req)
	return f.cmdErr
}

func (f *fakeServer) IgnoreFile(_ context.Context, _ string, file string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ignored = append(f.ignored, file)
	return f.cmdErr
}

func (f *fakeServer) ResolveConflicts(_ context.Context, _ string, files []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, files)
	return f.cmdErr
}

func (f *fakeServer) Diff(context.Context, string, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diffCalls++
	return "--- a/f\n+++ b/f\n@@ -1 +1 @@\n-a\n+b\n", nil
}

func (f *fakeServer) Blob(context.Context, string, string, diff.Revision) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobCalls++
	return []byte{1, 2, 3}, nil
}

func (f *fakeServer) counts() (status, head, diffs, blobs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls, f.headCalls, f.diffCalls, f.blobCalls
}

// fakeBus records published events and answers confirmations with answer
// when it is set.
type fakeBus struct {
	*event.Dispatcher

	mu        sync.Mutex
	published []event.Event
	answer    *bool
}

func newFakeBus(answer *bool) *fakeBus {
	return &fakeBus{Dispatcher: event.New(), answer: answer}
}

func (b *fakeBus) Publish(e event.Event) {
	b.mu.Lock()
	b.published = append(b.published, e)
	b.mu.Unlock()
	if e.Dialog != nil && b.answer != nil {
		e.Dialog.Resolve(*b.answer)
	}
	b.Dispatcher.Publish(e)
}

func (b *fakeBus) topics(t event.Topic) []event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []event.Event
	for _, e := range b.published {
		if e.Topic == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeProgress struct {
	started map[string]int
	stopped map[string]int
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{started: map[string]int{}, stopped: map[string]int{}}
}

func (p *fakeProgress) Start(key string) { p.started[key]++ }
func (p *fakeProgress) Stop(key string)  { p.stopped[key]++ }

func boolPtr(b bool) *bool { return &b }

func textFiles(paths ...string) []api.FileStatus {
	out := make([]api.FileStatus, len(paths))
	for i, p := range paths {
		out[i] = api.FileStatus{Path: p, Type: api.FileTypeText}
	}
	return out
}

func newTestSession(t *testing.T, server *fakeServer, bus *fakeBus) *Session {
	t.Helper()
	opts := Options{
		Server:         server,
		RepoPath:       "/repo",
		ThrottleWindow: 20 * time.Millisecond,
	}
	if bus != nil {
		opts.Bus = bus
	}
	s := New(opts)
	t.Cleanup(s.Close)
	return s
}

// runOnce executes cmd, expanding batches, feeds every resulting message to
// s and returns the commands Update produced without running them.
func runOnce(s *Session, cmd tea.Cmd) []tea.Cmd {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Cmd
		for _, c := range batch {
			out = append(out, runOnce(s, c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	if next := s.Update(msg); next != nil {
		return []tea.Cmd{next}
	}
	return nil
}

// drain runs cmd and everything it leads to until no commands remain.
func drain(s *Session, cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		queue = append(queue, runOnce(s, c)...)
	}
}

func load(t *testing.T, s *Session, files []api.FileStatus) {
	t.Helper()
	srv := s.server.(*fakeServer)
	srv.mu.Lock()
	srv.status = &api.Status{Files: files}
	srv.mu.Unlock()
	var got error
	drain(s, s.RefreshContent(func(err error) { got = err }))
	if got != nil {
		t.Fatalf("refresh failed: %v", got)
	}
}

var errBoom = errors.New("boom")
