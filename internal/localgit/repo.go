package localgit

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Root returns the working tree root containing repoPath.
func (b *Backend) Root(repoPath string) (string, error) {
	return b.root(repoPath)
}

// RepoName names the repository after its origin remote, falling back to
// the working tree directory name.
func (b *Backend) RepoName(repoPath string) (string, error) {
	repo, root, err := b.open(repoPath)
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote("origin")
	switch {
	case err == nil:
		if urls := remote.Config().URLs; len(urls) > 0 {
			if name := repoNameFromURL(urls[0]); name != "" {
				return name, nil
			}
		}
	case !errors.Is(err, git.ErrRemoteNotFound):
		b.log.Debug("read origin remote", "path", repoPath, "err", err)
	}
	return filepath.Base(root), nil
}

// repoNameFromURL extracts the repository name from an SSH or HTTPS remote.
func repoNameFromURL(url string) string {
	url = strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndex(url, ":"); i != -1 && !strings.Contains(url, "://") {
		url = url[i+1:]
	}
	if i := strings.LastIndex(url, "/"); i != -1 {
		return url[i+1:]
	}
	return url
}
