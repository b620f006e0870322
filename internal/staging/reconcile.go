package staging

import (
	"github.com/marcus/stagehand/internal/api"
	"github.com/marcus/stagehand/internal/diff"
)

// Reconcile merges a status snapshot into the current entries.
//
// Entries are matched by path. A known path keeps its entry, its Staged and
// ShowingDiffs choices and, unless the diff kind changed, its diff handle;
// an unknown path gets a fresh entry that is staged with diffs hidden.
// Server-reported flags always overwrite the entry. Paths missing from the
// snapshot are dropped. The result follows snapshot order and the returned
// index holds exactly the resulting entries.
func Reconcile(existing map[string]*FileEntry, files []api.FileStatus, build HandleFactory, view diff.View) ([]*FileEntry, map[string]*FileEntry) {
	entries := make([]*FileEntry, 0, len(files))
	index := make(map[string]*FileEntry, len(files))
	for _, st := range files {
		if _, dup := index[st.Path]; dup {
			continue
		}
		f, ok := existing[st.Path]
		if !ok {
			f = newFileEntry(st.Path, st.Type)
		}
		f.setState(st)
		f.syncHandle(build, view, false)
		entries = append(entries, f)
		index[st.Path] = f
	}
	return entries, index
}
