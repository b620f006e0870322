// Package api holds the request and response shapes exchanged between the
// staging session and the repository backend.
package api

// FileType classifies a file for diff rendering.
type FileType string

const (
	FileTypeText   FileType = "text"
	FileTypeImage  FileType = "image"
	FileTypeBinary FileType = "binary"
)

// FileStatus is one path in a status snapshot.
type FileStatus struct {
	Path string `json:"path"`
	// OldPath is the source of a staged rename.
	OldPath  string   `json:"oldPath,omitempty"`
	Type     FileType `json:"type"`
	IsNew    bool     `json:"isNew"`
	Removed  bool     `json:"removed"`
	Conflict bool     `json:"conflict"`
}

// Status is a point-in-time view of a working tree.
type Status struct {
	// Files is ordered as reported by the backend.
	Files []FileStatus `json:"files"`
	// Total is the number of changed files before any file limit was
	// applied. Zero means len(Files).
	Total         int    `json:"total"`
	InRebase      bool   `json:"inRebase"`
	InMerge       bool   `json:"inMerge"`
	CommitMessage string `json:"commitMessage"`
}

// FileCount returns the number of changed files the backend saw.
func (s *Status) FileCount() int {
	if s == nil {
		return 0
	}
	if s.Total > len(s.Files) {
		return s.Total
	}
	return len(s.Files)
}

// LogEntry is one commit from the HEAD log.
type LogEntry struct {
	Hash    string `json:"sha1"`
	Message string `json:"message"`
}

// CommitRequest is the payload of a commit.
type CommitRequest struct {
	RepoPath string   `json:"path"`
	Message  string   `json:"message"`
	Files    []string `json:"files"`
	Amend    bool     `json:"amend"`
}

// DiscardRequest discards either every change or a single file.
type DiscardRequest struct {
	RepoPath string `json:"path"`
	All      bool   `json:"all,omitempty"`
	File     string `json:"file,omitempty"`
}
