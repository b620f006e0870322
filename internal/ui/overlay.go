// Package ui provides the dialog and overlay helpers of the staging view.
package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/stagehand/internal/styles"
)

// box is a rendered block and the cell where its top-left corner lands.
type box struct {
	lines  []string
	width  int
	x, y   int
	height int
}

func newBox(s string) box {
	lines := strings.Split(s, "\n")
	w := 0
	for _, l := range lines {
		w = max(w, ansi.StringWidth(l))
	}
	return box{lines: lines, width: w, height: len(lines)}
}

// center positions b inside a width x height area, clamped to the top-left.
func (b box) center(width, height int) box {
	b.x = max((width-b.width)/2, 0)
	b.y = max((height-b.height)/2, 0)
	return b
}

// dim strips colors from s and renders it in the subtle text color.
func dim(s string) string {
	if s == "" {
		return ""
	}
	return styles.Subtle.Render(ansi.Strip(s))
}

// spliceRow places fg over bg starting at column x. Background cells left
// and right of fg are dimmed; a short background is padded with spaces.
func spliceRow(bg, fg string, x, fgWidth int) string {
	plain := ansi.Strip(bg)
	bgWidth := ansi.StringWidth(plain)

	var sb strings.Builder
	if x > 0 {
		left := ansi.Truncate(plain, x, "")
		sb.WriteString(dim(left))
		if pad := x - ansi.StringWidth(left); pad > 0 {
			sb.WriteString(strings.Repeat(" ", pad))
		}
	}
	sb.WriteString(fg)
	if end := x + fgWidth; bgWidth > end {
		sb.WriteString(dim(ansi.Cut(plain, end, bgWidth)))
	}
	return sb.String()
}

// OverlayModal draws modal centered over a dimmed background of the given
// size. The result always has height lines.
func OverlayModal(background, modal string, width, height int) string {
	bg := strings.Split(background, "\n")
	fg := newBox(modal).center(width, height)

	out := make([]string, height)
	for y := range out {
		var row string
		if y < len(bg) {
			row = bg[y]
		}
		if i := y - fg.y; i >= 0 && i < fg.height {
			out[y] = spliceRow(row, fg.lines[i], fg.x, fg.width)
			continue
		}
		out[y] = dim(row)
	}
	return strings.Join(out, "\n")
}
