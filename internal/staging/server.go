package staging

import (
	"context"

	"github.com/marcus/stagehand/internal/api"
	"github.com/marcus/stagehand/internal/diff"
	"github.com/marcus/stagehand/internal/event"
)

// Server is the repository backend the session talks to. Implementations
// classify failures with *api.Error codes.
type Server interface {
	Status(ctx context.Context, repoPath string, fileLimit int) (*api.Status, error)
	Head(ctx context.Context, repoPath string, limit int) ([]api.LogEntry, error)
	Commit(ctx context.Context, req api.CommitRequest) error
	RebaseContinue(ctx context.Context, repoPath string) error
	RebaseAbort(ctx context.Context, repoPath string) error
	MergeContinue(ctx context.Context, repoPath, message string) error
	MergeAbort(ctx context.Context, repoPath string) error
	Stash(ctx context.Context, repoPath, message string) error
	DiscardChanges(ctx context.Context, req api.DiscardRequest) error
	IgnoreFile(ctx context.Context, repoPath, file string) error
	ResolveConflicts(ctx context.Context, repoPath string, files []string) error
}

// Bus is the notification channel shared with the rest of the program.
type Bus interface {
	Publish(e event.Event)
	Subscribe(topics ...event.Topic) *event.Subscription
}

// Progress tracks long-running operations by key.
type Progress interface {
	Start(key string)
	Stop(key string)
}

// HandleFactory builds the diff handle of kind for file.
type HandleFactory func(kind diff.Kind, file string) diff.Handle

type noProgress struct{}

func (noProgress) Start(string) {}
func (noProgress) Stop(string)  {}
