// Package diff implements the per-file diff handles used by the staging
// view: a unified text diff, a side-by-side text diff and an image diff.
package diff

import "github.com/marcus/stagehand/internal/api"

// Kind selects which handle renders a file.
type Kind int

const (
	KindText       Kind = iota // unified text diff
	KindSideBySide             // two-column text diff
	KindImage                  // old/new image metadata
)

func (k Kind) String() string {
	switch k {
	case KindSideBySide:
		return "sidebysidediff"
	case KindImage:
		return "imagediff"
	default:
		return "textdiff"
	}
}

// View is the session-wide text diff preference.
type View int

const (
	ViewDefault View = iota
	ViewSideBySide
)

// ParseView maps a persisted preference string to a View. Unknown values
// fall back to the default view.
func ParseView(s string) View {
	switch s {
	case "side-by-side", "sidebyside":
		return ViewSideBySide
	}
	return ViewDefault
}

func (v View) String() string {
	if v == ViewSideBySide {
		return "side-by-side"
	}
	return "default"
}

// KindFor picks the diff kind for a file. Side-by-side is not offered for
// newly added text files since there is nothing to put on the left.
func KindFor(file string, fileType api.FileType, isNew bool, view View) Kind {
	if file == "" {
		return KindText
	}
	if fileType == api.FileTypeImage || fileType == api.FileTypeBinary {
		return KindImage
	}
	if isNew {
		return KindText
	}
	if view == ViewSideBySide {
		return KindSideBySide
	}
	return KindText
}
