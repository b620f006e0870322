package diff

import (
	"context"

	"github.com/cespare/xxhash/v2"
	tea "github.com/charmbracelet/bubbletea"
)

// textHandle serves both the unified and the side-by-side kinds; they share
// the fetch and only differ in how lines are exposed.
type textHandle struct {
	opts       Options
	sideBySide bool

	seq         uint64
	fingerprint uint64
	loaded      bool
	parsed      *ParsedDiff
	limit       int
	err         error
}

func newTextHandle(opts Options, sideBySide bool) *textHandle {
	return &textHandle{opts: opts, sideBySide: sideBySide, limit: opts.InitialLines}
}

func (h *textHandle) Kind() Kind {
	if h.sideBySide {
		return KindSideBySide
	}
	return KindText
}

func (h *textHandle) File() string { return h.opts.File }
func (h *textHandle) Loaded() bool { return h.loaded }
func (h *textHandle) Err() error   { return h.err }

// Parsed returns the last successfully parsed diff.
func (h *textHandle) Parsed() *ParsedDiff { return h.parsed }

func (h *textHandle) Invalidate(ctx context.Context) tea.Cmd {
	if h.opts.Source == nil {
		return nil
	}
	h.seq++
	seq := h.seq
	src, repoPath, file := h.opts.Source, h.opts.RepoPath, h.opts.File
	return func() tea.Msg {
		raw, err := src.Diff(ctx, repoPath, file)
		return LoadedMsg{Handle: h, Seq: seq, Raw: raw, Err: err}
	}
}

func (h *textHandle) Apply(msg LoadedMsg) {
	if msg.Handle != Handle(h) || msg.Seq != h.seq {
		return
	}
	h.loaded = true
	if msg.Err != nil {
		h.err = msg.Err
		h.opts.Logger.Debug("diff fetch failed", "file", h.opts.File, "err", msg.Err)
		return
	}
	h.err = nil

	sum := xxhash.Sum64String(msg.Raw)
	if h.parsed != nil && sum == h.fingerprint {
		return
	}
	parsed, err := ParseUnifiedDiff(msg.Raw)
	if err != nil {
		h.err = err
		return
	}
	h.parsed = parsed
	h.fingerprint = sum
}

// Lines returns the visible lines of the unified view.
func (h *textHandle) Lines() []DiffLine {
	if h.parsed == nil {
		return nil
	}
	var out []DiffLine
	for _, hunk := range h.parsed.Hunks {
		for _, l := range hunk.Lines {
			if len(out) >= h.limit {
				return out
			}
			out = append(out, l)
		}
	}
	return out
}

// Pairs returns the visible rows of the side-by-side view.
func (h *textHandle) Pairs() []LinePair {
	if h.parsed == nil {
		return nil
	}
	var out []LinePair
	for _, hunk := range h.parsed.Hunks {
		for _, p := range groupLinesForSideBySide(hunk.Lines) {
			if len(out) >= h.limit {
				return out
			}
			out = append(out, p)
		}
	}
	return out
}

// HasMore reports whether lines beyond the display limit exist.
func (h *textHandle) HasMore() bool {
	return h.parsed.LineCount() > h.limit
}

// ShowMore raises the display limit by the initial line count.
func (h *textHandle) ShowMore() {
	h.limit += h.opts.InitialLines
}
