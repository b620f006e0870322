package localgit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/marcus/stagehand/internal/api"
	"github.com/marcus/stagehand/internal/diff"
)

// Head returns up to limit commits starting at HEAD, newest first. A
// repository without commits yields an empty log.
func (b *Backend) Head(ctx context.Context, repoPath string, limit int) ([]api.LogEntry, error) {
	repo, _, err := b.open(repoPath)
	if err != nil {
		return nil, err
	}
	ref, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	defer iter.Close()

	var entries []api.LogEntry
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries = append(entries, api.LogEntry{
			Hash:    c.Hash.String(),
			Message: strings.TrimRight(c.Message, "\n"),
		})
		if limit > 0 && len(entries) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Diff returns the unified diff of file against HEAD. Untracked files are
// diffed against an empty file.
func (b *Backend) Diff(ctx context.Context, repoPath, file string) (string, error) {
	root, err := b.root(repoPath)
	if err != nil {
		return "", err
	}

	if !b.isTracked(ctx, root, file) {
		out, err := b.output(ctx, root, "diff", "--no-color", "--no-index", "--", os.DevNull, file)
		// --no-index exits 1 when the files differ.
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			err = nil
		}
		return string(out), err
	}

	args := []string{"diff", "--no-color", "HEAD", "--", file}
	if !b.hasHead(ctx, root) {
		args = []string{"diff", "--no-color", "--cached", "--", file}
	}
	out, err := b.output(ctx, root, args...)
	return string(out), err
}

// Blob returns the content of file at rev. A file missing at rev yields
// nil content and no error.
func (b *Backend) Blob(ctx context.Context, repoPath, file string, rev diff.Revision) ([]byte, error) {
	repo, root, err := b.open(repoPath)
	if err != nil {
		return nil, err
	}

	if rev == diff.RevWorkingTree {
		data, err := os.ReadFile(filepath.Join(root, file))
		if os.IsNotExist(err) {
			return nil, nil
		}
		return data, err
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, err
	}
	f, err := commit.File(filepath.ToSlash(file))
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
