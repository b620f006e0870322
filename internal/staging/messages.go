package staging

import (
	"github.com/marcus/stagehand/internal/api"
	"github.com/marcus/stagehand/internal/event"
)

// headLoadedMsg carries the HEAD log fetched by a refresh.
type headLoadedMsg struct {
	session *Session
	req     *refresh
	log     []api.LogEntry
	err     error
}

// statusLoadedMsg carries the working-tree snapshot fetched by a refresh.
type statusLoadedMsg struct {
	session *Session
	req     *refresh
	status  *api.Status
	err     error
}

// tooManyFilesMsg carries the answer to the too-many-files dialog along with
// the snapshot that was held back while it was open.
type tooManyFilesMsg struct {
	session   *Session
	status    *api.Status
	confirmed bool
}

// busEventMsg delivers one notification from the subscription.
type busEventMsg struct {
	session *Session
	event   event.Event
	ok      bool
}

// diffLoadedMsg wraps a diff handle result so the session can stop the diff
// progress indicator before handing it to the handle.
type diffLoadedMsg struct {
	session *Session
	inner   any
}

// CommandDoneMsg is sent when a command posted to the server finishes. Err
// is nil on success. Hosts may inspect it to surface failures; the session
// itself only logs them.
type CommandDoneMsg struct {
	Op  string
	Err error

	session *Session
}
