package api

import (
	"errors"
	"strings"
)

// Error codes reported by the backend.
const (
	CodeMustBeInWorkingTree   = "must-be-in-working-tree"
	CodeNoSuchPath            = "no-such-path"
	CodeFileAlreadyGitIgnored = "file-already-git-ignored"
)

// Error is a backend failure carrying an optional classification code and
// the output of the failed git invocation.
type Error struct {
	Code   string
	Output string
	Err    error
}

func (e *Error) Error() string {
	if out := strings.TrimSpace(e.Output); out != "" {
		return out
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the classification code of err, or "".
func CodeOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// IsInactiveRepo reports whether err means the path is not a usable
// working tree. Such errors are never surfaced to the user.
func IsInactiveRepo(err error) bool {
	switch CodeOf(err) {
	case CodeMustBeInWorkingTree, CodeNoSuchPath:
		return true
	}
	return false
}

// IsAlreadyIgnored reports whether err means the file is already listed in
// .gitignore.
func IsAlreadyIgnored(err error) bool {
	return CodeOf(err) == CodeFileAlreadyGitIgnored
}
