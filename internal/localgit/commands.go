package localgit

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcus/stagehand/internal/api"
)

// Commit stages exactly req.Files and commits them with req.Message.
// Changes to other paths stay out of the commit. A staged rename also
// commits the removal of its source. An amend without files rewrites only
// the message.
func (b *Backend) Commit(ctx context.Context, req api.CommitRequest) error {
	root, err := b.root(req.RepoPath)
	if err != nil {
		return err
	}
	files := req.Files
	if len(files) > 0 {
		args := append([]string{"add", "-A", "--"}, files...)
		if err := b.run(ctx, root, nil, args...); err != nil {
			return err
		}
		// Rename sources are gone from the index; commit matches them
		// against HEAD.
		sources, err := b.renameSources(ctx, root, files)
		if err != nil {
			return err
		}
		files = append(append([]string(nil), files...), sources...)
	}

	args := []string{"commit", "--quiet", "-F", "-"}
	if req.Amend {
		args = append(args, "--amend")
	}
	if len(files) > 0 {
		args = append(args, "--")
		args = append(args, files...)
	} else if req.Amend {
		args = append(args, "--only")
	}
	return b.run(ctx, root, strings.NewReader(req.Message), args...)
}

func (b *Backend) RebaseContinue(ctx context.Context, repoPath string) error {
	return b.runIn(ctx, repoPath, "-c", "core.editor=true", "rebase", "--continue")
}

func (b *Backend) RebaseAbort(ctx context.Context, repoPath string) error {
	return b.runIn(ctx, repoPath, "rebase", "--abort")
}

// MergeContinue concludes a merge whose conflicts are resolved.
func (b *Backend) MergeContinue(ctx context.Context, repoPath, message string) error {
	root, err := b.root(repoPath)
	if err != nil {
		return err
	}
	return b.run(ctx, root, strings.NewReader(message), "commit", "--quiet", "-F", "-")
}

func (b *Backend) MergeAbort(ctx context.Context, repoPath string) error {
	return b.runIn(ctx, repoPath, "merge", "--abort")
}

// Stash stashes all changes, untracked files included.
func (b *Backend) Stash(ctx context.Context, repoPath, message string) error {
	args := []string{"stash", "push", "--include-untracked"}
	if message != "" {
		args = append(args, "-m", message)
	}
	return b.runIn(ctx, repoPath, args...)
}

// DiscardChanges resets the whole working tree or restores one file to
// HEAD. Untracked files are deleted. Discarding a staged rename restores
// its source.
func (b *Backend) DiscardChanges(ctx context.Context, req api.DiscardRequest) error {
	root, err := b.root(req.RepoPath)
	if err != nil {
		return err
	}

	if req.All {
		if b.hasHead(ctx, root) {
			if err := b.run(ctx, root, nil, "reset", "--hard", "--quiet", "HEAD"); err != nil {
				return err
			}
		} else if err := b.run(ctx, root, nil, "rm", "-r", "-q", "--cached", "--ignore-unmatch", "--", "."); err != nil {
			return err
		}
		return b.run(ctx, root, nil, "clean", "-f", "-d", "-q")
	}

	rec, ok, err := b.fileRecord(ctx, root, req.File)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	switch {
	case rec.untracked:
		return os.RemoveAll(filepath.Join(root, req.File))
	case rec.x == 'R':
		if err := b.run(ctx, root, nil, "rm", "-q", "-f", "--cached", "--", req.File); err != nil {
			return err
		}
		if err := os.RemoveAll(filepath.Join(root, req.File)); err != nil {
			return err
		}
		return b.run(ctx, root, nil, "checkout", "-q", "HEAD", "--", rec.origPath)
	case rec.x == 'A' || rec.x == 'C':
		if err := b.run(ctx, root, nil, "rm", "-q", "-f", "--cached", "--", req.File); err != nil {
			return err
		}
		return os.RemoveAll(filepath.Join(root, req.File))
	default:
		return b.run(ctx, root, nil, "checkout", "-q", "HEAD", "--", req.File)
	}
}

// IgnoreFile appends file to the repository's .gitignore. A file that is
// already listed fails with api.CodeFileAlreadyGitIgnored.
func (b *Backend) IgnoreFile(ctx context.Context, repoPath, file string) error {
	root, err := b.root(repoPath)
	if err != nil {
		return err
	}
	path := filepath.Join(root, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	entry := filepath.ToSlash(file)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == entry || line == "/"+entry {
			return &api.Error{Code: api.CodeFileAlreadyGitIgnored, Output: entry + " is already in .gitignore"}
		}
	}

	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"
	return os.WriteFile(path, []byte(content), 0o644)
}

// ResolveConflicts marks files as resolved.
func (b *Backend) ResolveConflicts(ctx context.Context, repoPath string, files []string) error {
	return b.runIn(ctx, repoPath, append([]string{"add", "--"}, files...)...)
}

func (b *Backend) runIn(ctx context.Context, repoPath string, args ...string) error {
	root, err := b.root(repoPath)
	if err != nil {
		return err
	}
	return b.run(ctx, root, nil, args...)
}
