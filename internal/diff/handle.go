package diff

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultInitialLines is how many diff lines a text handle shows before
// ShowMore is called.
const DefaultInitialLines = 50

// Revision selects which side of an image diff to read.
type Revision string

const (
	RevHead        Revision = "HEAD"
	RevWorkingTree Revision = ""
)

// Source fetches raw diff content from the repository backend.
type Source interface {
	// Diff returns the unified diff of file against HEAD.
	Diff(ctx context.Context, repoPath, file string) (string, error)
	// Blob returns file contents at rev.
	Blob(ctx context.Context, repoPath, file string, rev Revision) ([]byte, error)
}

// Handle fetches and holds the diff of one file.
//
// Invalidate returns a command that refetches the diff; its LoadedMsg must
// be passed back to Apply on the update loop. Responses older than the
// latest Invalidate are ignored.
type Handle interface {
	Kind() Kind
	File() string
	Invalidate(ctx context.Context) tea.Cmd
	Apply(msg LoadedMsg)
	Loaded() bool
	Err() error
}

// FlagSetter is implemented by handles that render new and removed files
// differently.
type FlagSetter interface {
	SetNew(bool)
	SetRemoved(bool)
}

// Expander is implemented by handles that truncate long diffs.
type Expander interface {
	HasMore() bool
	ShowMore()
}

// Pairer is implemented by handles that lay out rows side by side.
type Pairer interface {
	Pairs() []LinePair
}

// LoadedMsg carries a fetch result back to its handle.
type LoadedMsg struct {
	Handle Handle
	Seq    uint64
	Raw    string
	Old    []byte
	New    []byte
	Err    error
}

// Options configures a handle.
type Options struct {
	Source       Source
	RepoPath     string
	File         string
	InitialLines int
	Logger       *slog.Logger
}

// New builds the handle for kind.
func New(kind Kind, opts Options) Handle {
	if opts.InitialLines <= 0 {
		opts.InitialLines = DefaultInitialLines
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	switch kind {
	case KindImage:
		return newImageHandle(opts)
	case KindSideBySide:
		return newTextHandle(opts, true)
	default:
		return newTextHandle(opts, false)
	}
}
