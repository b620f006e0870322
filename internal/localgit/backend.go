// Package localgit implements the staging backend on top of a local git
// checkout. Reads go through go-git where it can serve them; everything that
// changes the repository shells out to git so hooks and config apply.
package localgit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/marcus/stagehand/internal/api"
	"github.com/marcus/stagehand/internal/diff"
	"github.com/marcus/stagehand/internal/staging"
)

var (
	_ staging.Server = (*Backend)(nil)
	_ diff.Source    = (*Backend)(nil)
)

// Backend runs staging operations against repositories on disk.
type Backend struct {
	log *slog.Logger
}

// New creates a backend. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{log: logger}
}

// open resolves repoPath to its repository and worktree root. Paths that do
// not exist or are not inside a working tree are reported with the
// corresponding api error code.
func (b *Backend) open(repoPath string) (*git.Repository, string, error) {
	if _, err := os.Stat(repoPath); err != nil {
		return nil, "", &api.Error{Code: api.CodeNoSuchPath, Err: err}
	}
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, "", &api.Error{Code: api.CodeMustBeInWorkingTree, Err: err}
		}
		return nil, "", fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, "", &api.Error{Code: api.CodeMustBeInWorkingTree, Err: err}
	}
	return repo, wt.Filesystem.Root(), nil
}

func (b *Backend) root(repoPath string) (string, error) {
	_, root, err := b.open(repoPath)
	return root, err
}

func (b *Backend) command(ctx context.Context, dir string, stdin io.Reader, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdin = stdin
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_EDITOR=true")
	b.log.Debug("git", "dir", dir, "args", args)
	return cmd
}

// run executes a mutating git command. Failures carry the combined output.
func (b *Backend) run(ctx context.Context, dir string, stdin io.Reader, args ...string) error {
	out, err := b.command(ctx, dir, stdin, args...).CombinedOutput()
	if err != nil {
		return &api.Error{Output: string(out), Err: fmt.Errorf("git %s: %w", args[0], err)}
	}
	return nil
}

// output executes a read-only git command and returns stdout. stderr is
// kept apart so it cannot corrupt machine-readable output.
func (b *Backend) output(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := b.command(ctx, dir, nil, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, &api.Error{Output: stderr.String(), Err: fmt.Errorf("git %s: %w", args[0], err)}
	}
	return out, nil
}

func (b *Backend) hasHead(ctx context.Context, root string) bool {
	_, err := b.output(ctx, root, "rev-parse", "--verify", "-q", "HEAD")
	return err == nil
}

func (b *Backend) isTracked(ctx context.Context, root, file string) bool {
	_, err := b.output(ctx, root, "ls-files", "--error-unmatch", "--", file)
	return err == nil
}

func (b *Backend) gitDir(ctx context.Context, root string) (string, error) {
	out, err := b.output(ctx, root, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
