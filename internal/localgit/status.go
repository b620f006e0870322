package localgit

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/utils/binary"
	"github.com/marcus/stagehand/internal/api"
)

// imageExts lists extensions shown with the image diff.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
	".ico":  true,
	".psd":  true,
}

// statusRecord is one entry of git status --porcelain=v2 output.
type statusRecord struct {
	path      string
	origPath  string
	x, y      byte
	untracked bool
	unmerged  bool
}

// parsePorcelain parses NUL separated porcelain v2 output and returns the
// records sorted by path.
func parsePorcelain(output []byte) []statusRecord {
	parts := bytes.Split(output, []byte{0})

	var recs []statusRecord
	for i := 0; i < len(parts); i++ {
		line := string(parts[i])
		switch {
		case strings.HasPrefix(line, "1 "):
			// 1 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <path>
			fields := strings.SplitN(line, " ", 9)
			if len(fields) == 9 && len(fields[1]) == 2 {
				recs = append(recs, statusRecord{path: fields[8], x: fields[1][0], y: fields[1][1]})
			}
		case strings.HasPrefix(line, "2 "):
			// 2 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <X><score> <path>, then <origPath>
			fields := strings.SplitN(line, " ", 10)
			if len(fields) == 10 && len(fields[1]) == 2 {
				rec := statusRecord{path: fields[9], x: fields[1][0], y: fields[1][1]}
				if i+1 < len(parts) {
					i++
					rec.origPath = string(parts[i])
				}
				recs = append(recs, rec)
			}
		case strings.HasPrefix(line, "u "):
			// u <XY> <sub> <m1> <m2> <m3> <mW> <h1> <h2> <h3> <path>
			fields := strings.SplitN(line, " ", 11)
			if len(fields) == 11 {
				recs = append(recs, statusRecord{path: fields[10], unmerged: true})
			}
		case strings.HasPrefix(line, "? "):
			recs = append(recs, statusRecord{path: strings.TrimPrefix(line, "? "), untracked: true})
		}
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].path < recs[j].path })
	return recs
}

func (r statusRecord) toFileStatus() api.FileStatus {
	return api.FileStatus{
		Path:     r.path,
		OldPath:  r.origPath,
		IsNew:    r.untracked || r.x == 'A' || r.x == 'R' || r.x == 'C',
		Removed:  r.x == 'D' || r.y == 'D',
		Conflict: r.unmerged,
	}
}

// fileType classifies a working-tree file by extension, then by content.
// Removed files cannot be sniffed and count as text.
func fileType(root string, fs api.FileStatus) api.FileType {
	if imageExts[strings.ToLower(filepath.Ext(fs.Path))] {
		return api.FileTypeImage
	}
	if fs.Removed {
		return api.FileTypeText
	}
	f, err := os.Open(filepath.Join(root, fs.Path))
	if err != nil {
		return api.FileTypeText
	}
	defer f.Close()
	if isBin, err := binary.IsBinary(f); err == nil && isBin {
		return api.FileTypeBinary
	}
	return api.FileTypeText
}

// Status reports the changed files of the working tree. When fileLimit is
// positive only the first fileLimit files are returned and Total records
// how many there were.
func (b *Backend) Status(ctx context.Context, repoPath string, fileLimit int) (*api.Status, error) {
	root, err := b.root(repoPath)
	if err != nil {
		return nil, err
	}
	out, err := b.output(ctx, root, "status", "--porcelain=v2", "-z", "--untracked-files=all")
	if err != nil {
		return nil, err
	}

	recs := parsePorcelain(out)
	st := &api.Status{}
	if fileLimit > 0 && len(recs) > fileLimit {
		st.Total = len(recs)
		recs = recs[:fileLimit]
	}
	st.Files = make([]api.FileStatus, 0, len(recs))
	for _, r := range recs {
		fs := r.toFileStatus()
		fs.Type = fileType(root, fs)
		st.Files = append(st.Files, fs)
	}

	gitDir, err := b.gitDir(ctx, root)
	if err != nil {
		return nil, err
	}
	st.InRebase = exists(filepath.Join(gitDir, "rebase-merge")) || exists(filepath.Join(gitDir, "rebase-apply"))
	st.InMerge = exists(filepath.Join(gitDir, "MERGE_HEAD"))
	if st.InMerge {
		if data, err := os.ReadFile(filepath.Join(gitDir, "MERGE_MSG")); err == nil {
			st.CommitMessage = cleanMessage(string(data))
		}
	}
	return st, nil
}

// cleanMessage drops comment lines and trailing blank lines the way git
// commit does with its default cleanup mode.
func cleanMessage(msg string) string {
	var kept []string
	for _, line := range strings.Split(msg, "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}
	return strings.TrimRight(strings.Join(kept, "\n"), "\n")
}

// fileRecord returns the status record of a single path, if it changed.
// Status runs without a pathspec so a staged rename keeps its source.
func (b *Backend) fileRecord(ctx context.Context, root, file string) (statusRecord, bool, error) {
	out, err := b.output(ctx, root, "status", "--porcelain=v2", "-z", "--untracked-files=all")
	if err != nil {
		return statusRecord{}, false, err
	}
	for _, r := range parsePorcelain(out) {
		if r.path == file {
			return r, true, nil
		}
	}
	return statusRecord{}, false, nil
}

// renameSources returns the source paths of the staged renames among files.
func (b *Backend) renameSources(ctx context.Context, root string, files []string) ([]string, error) {
	out, err := b.output(ctx, root, "status", "--porcelain=v2", "-z", "--untracked-files=no")
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(files))
	for _, f := range files {
		want[f] = true
	}
	var sources []string
	for _, r := range parsePorcelain(out) {
		if r.x == 'R' && r.origPath != "" && want[r.path] && !want[r.origPath] {
			sources = append(sources, r.origPath)
		}
	}
	return sources, nil
}
