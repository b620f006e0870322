package staging

// Blocker explains why a commit is not allowed. The empty Blocker permits
// the commit.
type Blocker string

const (
	BlockerNone         Blocker = ""
	BlockerNoFiles      Blocker = "No files to commit"
	BlockerConflicts    Blocker = "Files in conflict"
	BlockerTitleMissing Blocker = "Provide a title"
)

// CommitValidation returns the first reason the current state cannot be
// committed.
func (s *Session) CommitValidation() Blocker {
	if !s.amend && !s.anyStaged() {
		return BlockerNoFiles
	}
	for _, f := range s.files {
		if f.Conflict {
			return BlockerConflicts
		}
	}
	if s.commitTitle == "" && !s.inRebase {
		return BlockerTitleMissing
	}
	return BlockerNone
}

func (s *Session) anyStaged() bool {
	for _, f := range s.files {
		if f.Staged {
			return true
		}
	}
	return false
}
