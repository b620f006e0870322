package localgit

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcus/stagehand/internal/api"
	"github.com/marcus/stagehand/internal/diff"
)

// newRepo creates a repository with one commit containing a.txt and c.txt.
func newRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	gitCmd(t, dir, "init", "-q")
	gitCmd(t, dir, "symbolic-ref", "HEAD", "refs/heads/main")
	gitCmd(t, dir, "config", "user.name", "Test")
	gitCmd(t, dir, "config", "user.email", "test@example.com")
	gitCmd(t, dir, "config", "commit.gpgsign", "false")
	writeFile(t, dir, "a.txt", "base\n")
	writeFile(t, dir, "c.txt", "gone soon\n")
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "commit", "-q", "-m", "Initial commit\n\nWith a body\nof two lines")
	return dir
}

func gitCmd(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
	return string(out)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func pngData(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestParsePorcelain(t *testing.T) {
	out := strings.Join([]string{
		"1 .M N... 100644 100644 100644 abc abc src/z.go",
		"2 R. N... 100644 100644 100644 abc abc R100 new.go",
		"old.go",
		"u UU N... 100644 100644 100644 100644 abc def ghi conflict.go",
		"? notes.md",
		"1 D. N... 100644 000000 000000 abc 000 removed.go",
		"",
	}, "\x00")

	recs := parsePorcelain([]byte(out))
	if len(recs) != 5 {
		t.Fatalf("len = %d, want 5", len(recs))
	}

	want := map[string]api.FileStatus{
		"conflict.go": {Path: "conflict.go", Conflict: true},
		"new.go":      {Path: "new.go", OldPath: "old.go", IsNew: true},
		"notes.md":    {Path: "notes.md", IsNew: true},
		"removed.go":  {Path: "removed.go", Removed: true},
		"src/z.go":    {Path: "src/z.go"},
	}
	for i, r := range recs {
		if i > 0 && recs[i-1].path > r.path {
			t.Error("records should be sorted by path")
		}
		if got := r.toFileStatus(); got != want[r.path] {
			t.Errorf("%s: got %+v, want %+v", r.path, got, want[r.path])
		}
	}
	if recs[1].origPath != "old.go" {
		t.Errorf("origPath = %q, want old.go", recs[1].origPath)
	}
}

func TestCleanMessage(t *testing.T) {
	in := "Merge branch 'topic'\n\n# Conflicts:\n#\ta.txt\n\n"
	if got := cleanMessage(in); got != "Merge branch 'topic'" {
		t.Errorf("cleanMessage() = %q", got)
	}
}

func TestStatus(t *testing.T) {
	dir := newRepo(t)
	writeFile(t, dir, "a.txt", "changed\n")
	writeFile(t, dir, "b.txt", "new\n")
	writeFile(t, dir, "logo.png", pngData(t))
	writeFile(t, dir, "blob.dat", "\x00\x01\x02binary")
	if err := os.Remove(filepath.Join(dir, "c.txt")); err != nil {
		t.Fatal(err)
	}

	b := New(nil)
	st, err := b.Status(context.Background(), dir, 0)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	want := []api.FileStatus{
		{Path: "a.txt", Type: api.FileTypeText},
		{Path: "b.txt", Type: api.FileTypeText, IsNew: true},
		{Path: "blob.dat", Type: api.FileTypeBinary, IsNew: true},
		{Path: "c.txt", Type: api.FileTypeText, Removed: true},
		{Path: "logo.png", Type: api.FileTypeImage, IsNew: true},
	}
	if len(st.Files) != len(want) {
		t.Fatalf("files = %+v", st.Files)
	}
	for i := range want {
		if st.Files[i] != want[i] {
			t.Errorf("file %d = %+v, want %+v", i, st.Files[i], want[i])
		}
	}
	if st.InMerge || st.InRebase {
		t.Error("clean repository should not be in a merge or rebase")
	}

	limited, err := b.Status(context.Background(), dir, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited.Files) != 2 || limited.FileCount() != 5 {
		t.Errorf("limited: %d files, count %d", len(limited.Files), limited.FileCount())
	}
}

func TestStatus_InactiveRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	b := New(nil)

	_, err := b.Status(context.Background(), filepath.Join(t.TempDir(), "missing"), 0)
	if api.CodeOf(err) != api.CodeNoSuchPath {
		t.Errorf("missing path: err = %v", err)
	}
	_, err = b.Status(context.Background(), t.TempDir(), 0)
	if !api.IsInactiveRepo(err) {
		t.Errorf("plain directory: err = %v", err)
	}
}

func TestHead(t *testing.T) {
	dir := newRepo(t)
	b := New(nil)

	log, err := b.Head(context.Background(), dir, 1)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if len(log) != 1 {
		t.Fatalf("len = %d, want 1", len(log))
	}
	if log[0].Message != "Initial commit\n\nWith a body\nof two lines" {
		t.Errorf("message = %q", log[0].Message)
	}

	empty := t.TempDir()
	gitCmd(t, empty, "init", "-q")
	log, err = b.Head(context.Background(), empty, 1)
	if err != nil || len(log) != 0 {
		t.Errorf("empty repo: log=%v err=%v", log, err)
	}
}

func TestCommit_OnlyRequestedFiles(t *testing.T) {
	dir := newRepo(t)
	writeFile(t, dir, "a.txt", "changed\n")
	writeFile(t, dir, "b.txt", "new\n")
	b := New(nil)

	err := b.Commit(context.Background(), api.CommitRequest{
		RepoPath: dir,
		Message:  "Fix bug\n\ndetails",
		Files:    []string{"b.txt"},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if got := strings.TrimSpace(gitCmd(t, dir, "log", "-1", "--format=%B")); got != "Fix bug\n\ndetails" {
		t.Errorf("message = %q", got)
	}
	files := gitCmd(t, dir, "show", "--name-only", "--format=", "HEAD")
	if strings.TrimSpace(files) != "b.txt" {
		t.Errorf("committed files = %q, want b.txt", files)
	}
	st, err := b.Status(context.Background(), dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Files) != 1 || st.Files[0].Path != "a.txt" {
		t.Errorf("remaining = %+v, want a.txt", st.Files)
	}

	err = b.Commit(context.Background(), api.CommitRequest{RepoPath: dir, Message: "Reworded", Amend: true})
	if err != nil {
		t.Fatalf("amend: %v", err)
	}
	if got := strings.TrimSpace(gitCmd(t, dir, "rev-list", "--count", "HEAD")); got != "2" {
		t.Errorf("commit count = %s, want 2 after amend", got)
	}
}

func TestCommit_StagedRename(t *testing.T) {
	dir := newRepo(t)
	gitCmd(t, dir, "mv", "c.txt", "moved.txt")
	b := New(nil)
	ctx := context.Background()

	st, err := b.Status(ctx, dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Files) != 1 || st.Files[0].Path != "moved.txt" || st.Files[0].OldPath != "c.txt" {
		t.Fatalf("status = %+v, want moved.txt renamed from c.txt", st.Files)
	}

	err = b.Commit(ctx, api.CommitRequest{RepoPath: dir, Message: "Move c", Files: []string{"moved.txt"}})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := gitCmd(t, dir, "ls-tree", "--name-only", "HEAD"); got != "a.txt\nmoved.txt\n" {
		t.Errorf("HEAD tree = %q, want a.txt and moved.txt", got)
	}
	if got := gitCmd(t, dir, "status", "--porcelain"); got != "" {
		t.Errorf("status after commit = %q, want clean", got)
	}
}

func TestCommit_AmendWithoutFilesKeepsContent(t *testing.T) {
	dir := newRepo(t)
	writeFile(t, dir, "a.txt", "changed\n")
	gitCmd(t, dir, "add", "a.txt")
	b := New(nil)

	err := b.Commit(context.Background(), api.CommitRequest{RepoPath: dir, Message: "Reworded", Amend: true})
	if err != nil {
		t.Fatalf("amend: %v", err)
	}
	if got := strings.TrimSpace(gitCmd(t, dir, "log", "-1", "--format=%B")); got != "Reworded" {
		t.Errorf("message = %q, want Reworded", got)
	}
	if got := gitCmd(t, dir, "show", "HEAD:a.txt"); got != "base\n" {
		t.Errorf("HEAD:a.txt = %q, want base", got)
	}
	if got := gitCmd(t, dir, "status", "--porcelain"); got != "M  a.txt\n" {
		t.Errorf("status = %q, want a.txt still staged", got)
	}
}

func TestIgnoreFile(t *testing.T) {
	dir := newRepo(t)
	writeFile(t, dir, "build.log", "x\n")
	b := New(nil)

	if err := b.IgnoreFile(context.Background(), dir, "build.log"); err != nil {
		t.Fatalf("IgnoreFile: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if string(data) != "build.log\n" {
		t.Errorf(".gitignore = %q", data)
	}

	err := b.IgnoreFile(context.Background(), dir, "build.log")
	if !api.IsAlreadyIgnored(err) {
		t.Errorf("second ignore: err = %v, want already ignored", err)
	}
}

func TestDiscardChanges(t *testing.T) {
	dir := newRepo(t)
	writeFile(t, dir, "a.txt", "changed\n")
	writeFile(t, dir, "b.txt", "new\n")
	b := New(nil)
	ctx := context.Background()

	if err := b.DiscardChanges(ctx, api.DiscardRequest{RepoPath: dir, File: "a.txt"}); err != nil {
		t.Fatalf("discard tracked: %v", err)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "a.txt")); string(data) != "base\n" {
		t.Errorf("a.txt = %q, want restored", data)
	}
	if err := b.DiscardChanges(ctx, api.DiscardRequest{RepoPath: dir, File: "b.txt"}); err != nil {
		t.Fatalf("discard untracked: %v", err)
	}
	if exists(filepath.Join(dir, "b.txt")) {
		t.Error("untracked file should be deleted")
	}

	writeFile(t, dir, "a.txt", "again\n")
	writeFile(t, dir, "d/e.txt", "nested\n")
	if err := b.DiscardChanges(ctx, api.DiscardRequest{RepoPath: dir, All: true}); err != nil {
		t.Fatalf("discard all: %v", err)
	}
	st, err := b.Status(ctx, dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Files) != 0 {
		t.Errorf("files after discard all = %+v", st.Files)
	}
}

func TestDiscardChanges_StagedRename(t *testing.T) {
	dir := newRepo(t)
	gitCmd(t, dir, "mv", "c.txt", "moved.txt")
	b := New(nil)

	if err := b.DiscardChanges(context.Background(), api.DiscardRequest{RepoPath: dir, File: "moved.txt"}); err != nil {
		t.Fatalf("discard rename: %v", err)
	}
	if exists(filepath.Join(dir, "moved.txt")) {
		t.Error("rename target should be removed")
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "c.txt")); string(data) != "gone soon\n" {
		t.Errorf("c.txt = %q, want restored", data)
	}
	if got := gitCmd(t, dir, "status", "--porcelain"); got != "" {
		t.Errorf("status after discard = %q, want clean", got)
	}
}

func TestStash(t *testing.T) {
	dir := newRepo(t)
	writeFile(t, dir, "b.txt", "new\n")
	b := New(nil)

	if err := b.Stash(context.Background(), dir, "wip title"); err != nil {
		t.Fatalf("Stash: %v", err)
	}
	if list := gitCmd(t, dir, "stash", "list"); !strings.Contains(list, "wip title") {
		t.Errorf("stash list = %q", list)
	}
	if exists(filepath.Join(dir, "b.txt")) {
		t.Error("untracked file should be stashed")
	}
}

func TestDiffAndBlob(t *testing.T) {
	dir := newRepo(t)
	writeFile(t, dir, "a.txt", "changed\n")
	writeFile(t, dir, "b.txt", "brand new\n")
	writeFile(t, dir, "logo.png", pngData(t))
	b := New(nil)
	ctx := context.Background()

	out, err := b.Diff(ctx, dir, "a.txt")
	if err != nil {
		t.Fatalf("Diff tracked: %v", err)
	}
	parsed, err := diff.ParseUnifiedDiff(out)
	if err != nil || parsed.LineCount() != 2 {
		t.Errorf("tracked diff = %q", out)
	}

	out, err = b.Diff(ctx, dir, "b.txt")
	if err != nil {
		t.Fatalf("Diff untracked: %v", err)
	}
	if !strings.Contains(out, "+brand new") {
		t.Errorf("untracked diff = %q", out)
	}

	old, err := b.Blob(ctx, dir, "a.txt", diff.RevHead)
	if err != nil || string(old) != "base\n" {
		t.Errorf("HEAD blob = %q, %v", old, err)
	}
	cur, err := b.Blob(ctx, dir, "a.txt", diff.RevWorkingTree)
	if err != nil || string(cur) != "changed\n" {
		t.Errorf("working tree blob = %q, %v", cur, err)
	}
	missing, err := b.Blob(ctx, dir, "logo.png", diff.RevHead)
	if err != nil || missing != nil {
		t.Errorf("new file at HEAD = %v, %v; want nil", missing, err)
	}
}

func TestMergeState(t *testing.T) {
	dir := newRepo(t)
	gitCmd(t, dir, "checkout", "-q", "-b", "topic")
	writeFile(t, dir, "a.txt", "topic\n")
	gitCmd(t, dir, "commit", "-q", "-am", "topic change")
	gitCmd(t, dir, "checkout", "-q", "main")
	writeFile(t, dir, "a.txt", "main\n")
	gitCmd(t, dir, "commit", "-q", "-am", "main change")

	cmd := exec.Command("git", "merge", "topic")
	cmd.Dir = dir
	if err := cmd.Run(); err == nil {
		t.Fatal("merge should conflict")
	}

	b := New(nil)
	ctx := context.Background()
	st, err := b.Status(ctx, dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !st.InMerge {
		t.Fatal("expected InMerge")
	}
	if len(st.Files) != 1 || !st.Files[0].Conflict {
		t.Errorf("files = %+v, want a conflicted a.txt", st.Files)
	}
	if !strings.HasPrefix(st.CommitMessage, "Merge branch 'topic'") {
		t.Errorf("commit message = %q", st.CommitMessage)
	}

	writeFile(t, dir, "a.txt", "resolved\n")
	if err := b.ResolveConflicts(ctx, dir, []string{"a.txt"}); err != nil {
		t.Fatalf("ResolveConflicts: %v", err)
	}
	if err := b.MergeContinue(ctx, dir, st.CommitMessage); err != nil {
		t.Fatalf("MergeContinue: %v", err)
	}
	st, err = b.Status(ctx, dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if st.InMerge || len(st.Files) != 0 {
		t.Errorf("after merge: inMerge=%v files=%+v", st.InMerge, st.Files)
	}
}
