package staging

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/stagehand/internal/api"
	"github.com/marcus/stagehand/internal/diff"
)

// FileEntry is one changed file in the staging view. Path is its identity;
// Staged and ShowingDiffs are local choices that survive refreshes, the
// remaining flags are overwritten by every status snapshot.
type FileEntry struct {
	Path         string
	Type         api.FileType
	Staged       bool
	IsNew        bool
	Removed      bool
	Conflict     bool
	ShowingDiffs bool

	kind diff.Kind
	diff diff.Handle
}

func newFileEntry(path string, typ api.FileType) *FileEntry {
	return &FileEntry{Path: path, Type: typ, Staged: true}
}

// DiffKind returns the kind of the entry's current diff handle.
func (f *FileEntry) DiffKind() diff.Kind { return f.kind }

// Diff returns the entry's diff handle. It is nil only for entries that were
// never reconciled.
func (f *FileEntry) Diff() diff.Handle { return f.diff }

// setState copies the server-owned fields and forwards newness to the
// handle when it cares.
func (f *FileEntry) setState(st api.FileStatus) {
	f.IsNew = st.IsNew
	f.Removed = st.Removed
	f.Conflict = st.Conflict
	if st.Type != "" {
		f.Type = st.Type
	}
	if fs, ok := f.diff.(diff.FlagSetter); ok {
		fs.SetNew(f.IsNew)
		fs.SetRemoved(f.Removed)
	}
}

// syncHandle rebuilds the diff handle when the derived kind changed, or
// unconditionally when rebuild is set. It reports whether a new handle was
// built.
func (f *FileEntry) syncHandle(build HandleFactory, view diff.View, rebuild bool) bool {
	kind := diff.KindFor(f.Path, f.Type, f.IsNew, view)
	if f.diff != nil && kind == f.kind && !rebuild {
		return false
	}
	f.kind = kind
	f.diff = build(kind, f.Path)
	if fs, ok := f.diff.(diff.FlagSetter); ok {
		fs.SetNew(f.IsNew)
		fs.SetRemoved(f.Removed)
	}
	return true
}

// invalidate refetches the diff when it is visible.
func (f *FileEntry) invalidate(ctx context.Context) tea.Cmd {
	if f.diff == nil || !f.ShowingDiffs {
		return nil
	}
	return f.diff.Invalidate(ctx)
}
