package diff

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/cespare/xxhash/v2"
	tea "github.com/charmbracelet/bubbletea"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageInfo describes one side of an image diff.
type ImageInfo struct {
	Present bool
	Format  string // empty when the content is not a decodable image
	Width   int
	Height  int
	Size    int
	Hash    uint64
}

type imageHandle struct {
	opts Options

	isNew     bool
	isRemoved bool

	seq    uint64
	loaded bool
	old    ImageInfo
	cur    ImageInfo
	err    error
}

func newImageHandle(opts Options) *imageHandle {
	return &imageHandle{opts: opts}
}

func (h *imageHandle) Kind() Kind        { return KindImage }
func (h *imageHandle) File() string      { return h.opts.File }
func (h *imageHandle) Loaded() bool      { return h.loaded }
func (h *imageHandle) Err() error        { return h.err }
func (h *imageHandle) SetNew(v bool)     { h.isNew = v }
func (h *imageHandle) SetRemoved(v bool) { h.isRemoved = v }

// Old returns the HEAD side. Present is false for new files.
func (h *imageHandle) Old() ImageInfo { return h.old }

// New returns the working-tree side. Present is false for removed files.
func (h *imageHandle) New() ImageInfo { return h.cur }

// Changed reports whether both sides exist and differ.
func (h *imageHandle) Changed() bool {
	return h.old.Present && h.cur.Present && h.old.Hash != h.cur.Hash
}

func (h *imageHandle) Invalidate(ctx context.Context) tea.Cmd {
	if h.opts.Source == nil {
		return nil
	}
	h.seq++
	seq := h.seq
	src, repoPath, file := h.opts.Source, h.opts.RepoPath, h.opts.File
	wantOld, wantNew := !h.isNew, !h.isRemoved
	return func() tea.Msg {
		msg := LoadedMsg{Handle: h, Seq: seq}
		if wantOld {
			msg.Old, msg.Err = src.Blob(ctx, repoPath, file, RevHead)
			if msg.Err != nil {
				return msg
			}
		}
		if wantNew {
			msg.New, msg.Err = src.Blob(ctx, repoPath, file, RevWorkingTree)
		}
		return msg
	}
}

func (h *imageHandle) Apply(msg LoadedMsg) {
	if msg.Handle != Handle(h) || msg.Seq != h.seq {
		return
	}
	h.loaded = true
	h.err = msg.Err
	if msg.Err != nil {
		h.opts.Logger.Debug("image diff fetch failed", "file", h.opts.File, "err", msg.Err)
		return
	}
	h.old = describeImage(msg.Old, msg.Old != nil)
	h.cur = describeImage(msg.New, msg.New != nil)
}

func describeImage(data []byte, present bool) ImageInfo {
	if !present {
		return ImageInfo{}
	}
	info := ImageInfo{
		Present: true,
		Size:    len(data),
		Hash:    xxhash.Sum64(data),
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		info.Format = format
		info.Width = cfg.Width
		info.Height = cfg.Height
	}
	return info
}
