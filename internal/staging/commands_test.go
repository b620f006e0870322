package staging

import (
	"reflect"
	"testing"

	"github.com/marcus/stagehand/internal/api"
	"github.com/marcus/stagehand/internal/event"
)

func TestCommitValidation(t *testing.T) {
	tests := []struct {
		name     string
		files    []api.FileStatus
		unstage  bool
		amend    bool
		title    string
		inRebase bool
		want     Blocker
	}{
		{"nothing staged", textFiles("a.txt"), true, false, "x", false, BlockerNoFiles},
		{"no files", nil, false, false, "x", false, BlockerNoFiles},
		{"nothing staged but amending", textFiles("a.txt"), true, true, "x", false, BlockerNone},
		{"conflict beats title", []api.FileStatus{{Path: "a.txt", Conflict: true}}, false, false, "", false, BlockerConflicts},
		{"missing title", textFiles("a.txt"), false, false, "", false, BlockerTitleMissing},
		{"missing title during rebase", textFiles("a.txt"), false, false, "", true, BlockerNone},
		{"ok", textFiles("a.txt"), false, false, "x", false, BlockerNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := &fakeServer{}
			s := newTestSession(t, srv, nil)
			srv.status = &api.Status{Files: tc.files, InRebase: tc.inRebase}
			drain(s, s.RefreshContent(nil))
			if tc.unstage {
				for _, f := range s.Files() {
					f.Staged = false
				}
			}
			s.amend = tc.amend
			s.SetCommitTitle(tc.title)

			if got := s.CommitValidation(); got != tc.want {
				t.Errorf("CommitValidation() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCommit_Flow(t *testing.T) {
	srv := &fakeServer{}
	p := newFakeProgress()
	s := New(Options{Server: srv, RepoPath: "/repo", Progress: p})
	t.Cleanup(s.Close)
	load(t, s, textFiles("a.txt", "b.txt"))
	s.ToggleStaged("b.txt")
	s.SetCommitTitle("Fix bug")
	s.SetCommitBody("details")

	drain(s, s.Commit())

	if len(srv.commits) != 1 {
		t.Fatalf("commits = %d, want 1", len(srv.commits))
	}
	req := srv.commits[0]
	if req.Message != "Fix bug\n\ndetails" {
		t.Errorf("message = %q", req.Message)
	}
	if !reflect.DeepEqual(req.Files, []string{"a.txt"}) {
		t.Errorf("files = %v, want [a.txt]", req.Files)
	}
	if req.Amend || req.RepoPath != "/repo" {
		t.Errorf("request = %+v", req)
	}
	if s.CommitTitle() != "" || s.CommitBody() != "" || s.Amend() {
		t.Error("message and amend should reset after commit")
	}
	if len(s.Files()) != 0 {
		t.Errorf("len(Files) = %d, want 0 after commit", len(s.Files()))
	}
	if p.started["committing-/repo"] != 1 || p.stopped["committing-/repo"] != 1 {
		t.Errorf("progress = %v / %v", p.started, p.stopped)
	}

	// Files left out of the commit keep their choice when they reappear.
	load(t, s, textFiles("b.txt"))
	if s.Files()[0].Staged {
		t.Error("b.txt should still be unstaged")
	}
}

func TestCommit_TitleOnly(t *testing.T) {
	srv := &fakeServer{}
	s := newTestSession(t, srv, nil)
	load(t, s, textFiles("a.txt"))
	s.SetCommitTitle("Only title")

	drain(s, s.Commit())
	if srv.commits[0].Message != "Only title" {
		t.Errorf("message = %q", srv.commits[0].Message)
	}
}

func TestCommit_Blocked(t *testing.T) {
	srv := &fakeServer{}
	s := newTestSession(t, srv, nil)
	load(t, s, textFiles("a.txt"))

	if s.Commit() != nil {
		t.Error("commit without title should not be dispatched")
	}
}

func TestCommit_FailureKeepsState(t *testing.T) {
	srv := &fakeServer{cmdErr: errBoom}
	p := newFakeProgress()
	s := New(Options{Server: srv, RepoPath: "/repo", Progress: p})
	t.Cleanup(s.Close)
	load(t, s, textFiles("a.txt"))
	s.SetCommitTitle("Fix bug")

	drain(s, s.Commit())
	if s.CommitTitle() != "Fix bug" || len(s.Files()) != 1 {
		t.Error("failed commit should keep message and files")
	}
	if p.stopped["committing-/repo"] != 1 {
		t.Error("progress should stop on failure")
	}
}

func TestToggleAmend(t *testing.T) {
	srv := &fakeServer{log: []api.LogEntry{{Message: "Head title\n\nHead body"}}}
	s := newTestSession(t, srv, nil)
	load(t, s, textFiles("a.txt"))
	if !s.CanAmend() {
		t.Fatal("CanAmend should be true with a HEAD commit")
	}

	s.ToggleAmend()
	if !s.Amend() || s.CommitTitle() != "Head title" || s.CommitBody() != "Head body" {
		t.Errorf("amend=%v title=%q body=%q", s.Amend(), s.CommitTitle(), s.CommitBody())
	}
	if s.CanStashAll() {
		t.Error("stash should be unavailable while amending")
	}

	s.ToggleAmend()
	if s.Amend() || s.CommitTitle() != "" || s.CommitBody() != "" {
		t.Error("untouched HEAD message should be cleared when amend is turned off")
	}

	s.ToggleAmend()
	s.SetCommitBody("edited")
	s.ToggleAmend()
	if s.CommitTitle() != "Head title" || s.CommitBody() != "edited" {
		t.Error("edited message should be kept when amend is turned off")
	}

	s.SetCommitTitle("mine")
	s.ToggleAmend()
	if s.CommitTitle() != "mine" {
		t.Error("existing title should not be replaced when amend is turned on")
	}
}

func TestToggleAmend_NoHead(t *testing.T) {
	s := newTestSession(t, &fakeServer{}, nil)
	load(t, s, nil)

	s.ToggleAmend()
	if !s.Amend() || s.CommitTitle() != "" {
		t.Errorf("amend=%v title=%q", s.Amend(), s.CommitTitle())
	}
	if s.CanAmend() {
		t.Error("CanAmend should be false without commits")
	}
}

func TestRepositoryCommands(t *testing.T) {
	srv := &fakeServer{}
	p := newFakeProgress()
	s := New(Options{Server: srv, RepoPath: "/repo", Progress: p})
	t.Cleanup(s.Close)
	s.SetCommitTitle("Merge it")
	s.SetCommitBody("because")

	drain(s, s.RebaseContinue())
	drain(s, s.RebaseAbort())
	drain(s, s.MergeContinue())
	drain(s, s.MergeAbort())
	drain(s, s.StashAll())
	drain(s, s.ResolveConflict("c.txt"))

	if !reflect.DeepEqual(srv.rebaseOps, []string{"continue", "abort"}) {
		t.Errorf("rebase ops = %v", srv.rebaseOps)
	}
	if !reflect.DeepEqual(srv.merges, []string{"Merge it\n\nbecause", "<abort>"}) {
		t.Errorf("merges = %v", srv.merges)
	}
	if !reflect.DeepEqual(srv.stashes, []string{"Merge it"}) {
		t.Errorf("stashes = %v", srv.stashes)
	}
	if !reflect.DeepEqual(srv.resolved, [][]string{{"c.txt"}}) {
		t.Errorf("resolved = %v", srv.resolved)
	}
	for _, key := range []string{"rebase-continue-/repo", "rebase-abort-/repo", "merge-continue-/repo", "merge-abort-/repo", "stash-/repo"} {
		if p.started[key] != 1 || p.stopped[key] != 1 {
			t.Errorf("%s: started %d stopped %d", key, p.started[key], p.stopped[key])
		}
	}
	if _, ok := p.started["resolve-conflict-/repo"]; ok {
		t.Error("resolve conflict has no progress indicator")
	}
}

func TestDiscard(t *testing.T) {
	tests := []struct {
		name   string
		answer bool
		all    bool
		want   []api.DiscardRequest
	}{
		{"all confirmed", true, true, []api.DiscardRequest{{RepoPath: "/repo", All: true}}},
		{"file confirmed", true, false, []api.DiscardRequest{{RepoPath: "/repo", File: "a.txt"}}},
		{"declined", false, true, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := &fakeServer{}
			bus := newFakeBus(boolPtr(tc.answer))
			s := newTestSession(t, srv, bus)

			if tc.all {
				drain(s, s.DiscardAllChanges())
			} else {
				drain(s, s.DiscardFile("a.txt"))
			}

			dialogs := bus.topics(event.RequestShowDialog)
			if len(dialogs) != 1 || dialogs[0].Dialog.Details != "This operation cannot be undone." {
				t.Fatalf("dialogs = %+v", dialogs)
			}
			if !reflect.DeepEqual(srv.discards, tc.want) {
				t.Errorf("discards = %+v, want %+v", srv.discards, tc.want)
			}
		})
	}
}

func TestIgnoreFile(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantRefresh bool
	}{
		{"ignored", nil, false},
		{"already ignored", &api.Error{Code: api.CodeFileAlreadyGitIgnored}, true},
		{"other failure", errBoom, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := &fakeServer{cmdErr: tc.err}
			bus := newFakeBus(nil)
			s := newTestSession(t, srv, bus)

			drain(s, s.IgnoreFile("build/"))
			if !reflect.DeepEqual(srv.ignored, []string{"build/"}) {
				t.Errorf("ignored = %v", srv.ignored)
			}
			got := len(bus.topics(event.WorkingTreeChanged)) == 1
			if got != tc.wantRefresh {
				t.Errorf("working-tree-changed published = %v, want %v", got, tc.wantRefresh)
			}
		})
	}
}

func TestToggleAllStaged(t *testing.T) {
	s := newTestSession(t, &fakeServer{}, nil)
	load(t, s, textFiles("a.txt", "b.txt"))
	s.ToggleStaged("a.txt")

	if s.ToggleAllLabel() != "Unstage all" {
		t.Errorf("label = %q", s.ToggleAllLabel())
	}
	s.ToggleAllStaged()
	if len(s.StagedPaths()) != 0 {
		t.Errorf("staged = %v, want none", s.StagedPaths())
	}
	if s.ToggleAllLabel() != "Stage all" {
		t.Errorf("label = %q", s.ToggleAllLabel())
	}
	s.ToggleAllStaged()
	if len(s.StagedPaths()) != 2 {
		t.Errorf("staged = %v, want all", s.StagedPaths())
	}
}

func TestToggleStaged_Unknown(t *testing.T) {
	s := newTestSession(t, &fakeServer{}, nil)
	if s.ToggleStaged("missing") {
		t.Error("unknown path should report false")
	}
}

func TestDerivedFlags(t *testing.T) {
	srv := &fakeServer{}
	s := newTestSession(t, srv, nil)
	load(t, s, nil)
	if !s.ShowNux() {
		t.Error("empty working tree should show the hint")
	}

	srv.status = &api.Status{Files: textFiles("a.txt"), InRebase: true}
	drain(s, s.RefreshContent(nil))
	if s.ShowNux() || s.CommitButtonVisible() || s.CanAmend() {
		t.Errorf("nux=%v commit=%v amend=%v", s.ShowNux(), s.CommitButtonVisible(), s.CanAmend())
	}

	s.SetCommitTitle("héllo")
	if s.TitleLength() != 5 {
		t.Errorf("TitleLength() = %d, want 5", s.TitleLength())
	}
}
