package diff

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/marcus/stagehand/internal/styles"
	"github.com/mattn/go-runewidth"
)

// Render draws h at the given width. Handles that have not loaded yet render
// a placeholder.
func Render(h Handle, width int) string {
	if h == nil {
		return styles.Muted.Render("No diff content")
	}
	if err := h.Err(); err != nil {
		return styles.StatusDeleted.Render("Diff failed: " + err.Error())
	}
	if !h.Loaded() {
		return styles.Muted.Render("Loading diff...")
	}
	switch h := h.(type) {
	case *textHandle:
		if h.sideBySide {
			return renderSideBySide(h, width)
		}
		return renderUnified(h, width)
	case *imageHandle:
		return renderImage(h)
	}
	return ""
}

func renderUnified(h *textHandle, width int) string {
	if h.parsed == nil || len(h.parsed.Hunks) == 0 {
		if h.parsed != nil && h.parsed.Binary {
			return styles.Muted.Render("Binary file changed")
		}
		return styles.Muted.Render("No diff content")
	}
	hl := newHighlighter(h.opts.File)
	contentWidth := max(width-8, 10)

	var sb strings.Builder
	for _, l := range h.Lines() {
		content := hl.line(truncateLine(expandTabs(l.Content), contentWidth))
		switch l.Type {
		case LineAdd:
			sb.WriteString(styles.DiffAdd.Render(fmt.Sprintf("%4d + ", l.NewLineNo)))
		case LineRemove:
			sb.WriteString(styles.DiffRemove.Render(fmt.Sprintf("%4d - ", l.OldLineNo)))
		default:
			sb.WriteString(styles.DiffContext.Render(fmt.Sprintf("%4d   ", l.NewLineNo)))
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	if h.HasMore() {
		sb.WriteString(styles.Muted.Render(fmt.Sprintf("... %d more lines", h.parsed.LineCount()-h.limit)))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderSideBySide(h *textHandle, width int) string {
	if h.parsed == nil || len(h.parsed.Hunks) == 0 {
		return styles.Muted.Render("No diff content")
	}
	colWidth := max((width-3)/2, 10)
	textWidth := max(colWidth-6, 4)

	var sb strings.Builder
	for _, p := range h.Pairs() {
		sb.WriteString(renderSide(p.Left, textWidth, true))
		sb.WriteString(styles.Muted.Render(" │ "))
		sb.WriteString(renderSide(p.Right, textWidth, false))
		sb.WriteString("\n")
	}
	if h.HasMore() {
		sb.WriteString(styles.Muted.Render("... more lines"))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderSide(l *DiffLine, width int, left bool) string {
	if l == nil {
		return strings.Repeat(" ", width+5)
	}
	no := l.NewLineNo
	if left {
		no = l.OldLineNo
	}
	text := padRight(truncateLine(expandTabs(l.Content), width), width)
	row := fmt.Sprintf("%4d %s", no, text)
	switch l.Type {
	case LineAdd:
		return styles.DiffAdd.Render(row)
	case LineRemove:
		return styles.DiffRemove.Render(row)
	}
	return styles.DiffContext.Render(row)
}

func renderImage(h *imageHandle) string {
	var sb strings.Builder
	sb.WriteString(styles.DiffHeader.Render(h.opts.File))
	sb.WriteString("\n")
	sb.WriteString("old: " + describeSide(h.old, "(none)"))
	sb.WriteString("\n")
	sb.WriteString("new: " + describeSide(h.cur, "(removed)"))
	if h.Changed() {
		sb.WriteString("\n")
		sb.WriteString(styles.StatusModified.Render("content changed"))
	}
	return sb.String()
}

func describeSide(info ImageInfo, absent string) string {
	if !info.Present {
		return styles.Muted.Render(absent)
	}
	if info.Format == "" {
		return fmt.Sprintf("binary, %d bytes", info.Size)
	}
	return fmt.Sprintf("%s %dx%d, %d bytes", info.Format, info.Width, info.Height, info.Size)
}

// truncateLine cuts s to maxWidth cells, ending in "..." when there is room
// for it.
func truncateLine(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// padRight pads s with spaces to width cells. Wider strings are returned as is.
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

// highlighter colours diff content by the file's language. Files without a
// known lexer pass through unchanged.
type highlighter struct {
	lexer string
}

func newHighlighter(file string) highlighter {
	l := lexers.Match(file)
	if l == nil {
		return highlighter{}
	}
	return highlighter{lexer: l.Config().Name}
}

func (h highlighter) line(s string) string {
	if h.lexer == "" || s == "" {
		return s
	}
	var sb strings.Builder
	if err := quick.Highlight(&sb, s, h.lexer, "terminal256", styles.CurrentSyntaxTheme); err != nil {
		return s
	}
	return strings.TrimRight(sb.String(), "\n")
}
