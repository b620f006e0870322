package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/stagehand/internal/diff"
	"github.com/marcus/stagehand/internal/staging"
	"github.com/marcus/stagehand/internal/state"
	"github.com/marcus/stagehand/internal/styles"
	"github.com/marcus/stagehand/internal/ui"
)

// File list widths are percentages of the screen.
const (
	defaultFileListWidth = 35
	minFileListWidth     = 20
	maxFileListWidth     = 70
	fileListStep         = 5
	commitPanelHeight    = 8
)

// layout sizes the editors after a resize.
func (m *Model) layout() {
	w := max(m.width-6, 20)
	m.title.Width = w
	m.body.SetWidth(w)
}

// fileListPercent returns the saved file list width, or the default when
// none is saved or it is out of range.
func fileListPercent() int {
	pct := state.GetFileListWidth()
	if pct < minFileListWidth || pct > maxFileListWidth {
		return defaultFileListWidth
	}
	return pct
}

func (m *Model) fileListWidth() int {
	return max(m.width*fileListPercent()/100, 20)
}

// View renders the whole screen.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	commit := m.renderCommitPanel()

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer) - lipgloss.Height(commit)
	bodyHeight = max(bodyHeight, 3)

	listWidth := m.fileListWidth()
	diffWidth := max(m.width-listWidth, 10)
	list := m.renderFileList(listWidth, bodyHeight)
	diffPane := m.renderDiffPane(diffWidth, bodyHeight)

	screen := lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, list, diffPane),
		commit,
		footer,
	)

	if m.dialog != nil {
		return ui.OverlayModal(screen, m.dialog.View(), m.width, m.height)
	}
	return screen
}

func (m *Model) renderHeader() string {
	s := m.session
	parts := []string{styles.Title.Render(m.repoName)}
	switch {
	case s.InRebase():
		parts = append(parts, styles.StatusModified.Render("REBASING"))
	case s.InMerge():
		parts = append(parts, styles.StatusModified.Render("MERGING"))
	}
	if h := s.Head(); h != nil {
		parts = append(parts, styles.Muted.Render("HEAD: "+h.Title))
	}
	parts = append(parts, styles.Muted.Render(s.Stats()))
	line := strings.Join(parts, "  ")
	return styles.Header.Width(m.width).Render(ansi.Truncate(line, m.width, "…"))
}

// statusGlyph returns the one-letter marker of a file's state.
func statusGlyph(f *staging.FileEntry) string {
	switch {
	case f.Conflict:
		return styles.StatusConflict.Render("U")
	case f.IsNew:
		return styles.StatusUntracked.Render("A")
	case f.Removed:
		return styles.StatusDeleted.Render("D")
	default:
		return styles.StatusModified.Render("M")
	}
}

func (m *Model) renderFileList(width, height int) string {
	s := m.session
	inner := width - styles.PanelActive.GetHorizontalFrameSize()
	rows := height - styles.PanelActive.GetVerticalFrameSize()

	var lines []string
	if s.ShowNux() {
		lines = append(lines, styles.Muted.Render("No changes. Edit files to stage them here."))
	}

	files := s.Files()
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	for i := start; i < len(files) && len(lines) < rows; i++ {
		f := files[i]
		check := "[ ]"
		if f.Staged {
			check = styles.StatusStaged.Render("[x]")
		}
		cursor := " "
		style := styles.ListItemNormal
		if i == m.cursor {
			cursor = styles.ListCursor.Render(">")
			if m.focus == focusFiles {
				style = styles.ListItemSelected
			}
		}
		name := ansi.Truncate(f.Path, max(inner-8, 4), "…")
		lines = append(lines, fmt.Sprintf("%s %s %s %s", cursor, check, statusGlyph(f), style.Render(name)))
	}

	panel := styles.PanelInactive
	if m.focus == focusFiles {
		panel = styles.PanelActive
	}
	return panel.Width(inner).Height(rows).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderDiffPane(width, height int) string {
	inner := width - styles.PanelInactive.GetHorizontalFrameSize()
	rows := height - styles.PanelInactive.GetVerticalFrameSize()

	var content string
	f := m.selected()
	switch {
	case f == nil:
		content = styles.Muted.Render("No file selected")
	case !f.ShowingDiffs:
		content = styles.Muted.Render("Press enter to show the diff of " + f.Path)
	default:
		content = diff.Render(f.Diff(), inner)
		if e, ok := f.Diff().(diff.Expander); ok && e.HasMore() {
			content += "\n" + styles.Muted.Render("m: show more")
		}
	}

	lines := strings.Split(content, "\n")
	scroll := min(m.diffScroll, max(len(lines)-rows, 0))
	lines = lines[scroll:]
	if len(lines) > rows {
		lines = lines[:rows]
	}
	return styles.PanelInactive.Width(inner).Height(rows).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderCommitPanel() string {
	s := m.session
	var b strings.Builder

	switch {
	case s.InRebase():
		b.WriteString(styles.StatusModified.Render("Rebase in progress: P continue, X abort"))
	case s.InMerge():
		b.WriteString(styles.StatusModified.Render("Merge in progress: P commit merge, X abort"))
	default:
		label := "Commit"
		if s.Amend() {
			label = "Amend"
		}
		b.WriteString(styles.Title.Render(label))
		b.WriteString(styles.Muted.Render(fmt.Sprintf("  %d", s.TitleLength())))
		if blocker := s.CommitValidation(); blocker != staging.BlockerNone {
			b.WriteString("  " + styles.Muted.Render(string(blocker)))
		}
	}
	b.WriteString("\n")
	b.WriteString(m.title.View())
	b.WriteString("\n")
	b.WriteString(m.body.View())

	if line := m.renderProgress(); line != "" {
		b.WriteString("\n" + line)
	}

	panel := styles.PanelInactive
	if m.focus != focusFiles {
		panel = styles.PanelActive
	}
	return panel.Width(m.width - panel.GetHorizontalFrameSize()).Render(b.String())
}

// renderProgress lists running operations with their predicted completion.
func (m *Model) renderProgress() string {
	if m.tracker == nil {
		return ""
	}
	ops := m.tracker.Active()
	if len(ops) == 0 {
		return ""
	}
	now := time.Now()
	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		name, _, _ := strings.Cut(op.Key, "-"+m.session.RepoPath())
		if f := op.Fraction(now); f >= 0 {
			name = fmt.Sprintf("%s %d%%", name, int(f*100))
		}
		parts = append(parts, name)
	}
	return styles.StatusInProgress.Render(m.spinner.View() + " " + strings.Join(parts, ", "))
}

func (m *Model) renderFooter() string {
	if m.statusMsg != "" {
		style := styles.StatusStaged
		if m.statusIsError {
			style = styles.ToastError
		}
		return styles.Footer.Width(m.width).Render(style.Render(m.statusMsg))
	}
	if !m.showFooter {
		return ""
	}
	var hints []string
	for _, k := range m.footerHints() {
		h := k.Help()
		hints = append(hints, styles.KeyHint.Render(h.Key)+" "+h.Desc)
	}
	return styles.Footer.Width(m.width).Render(ansi.Truncate(strings.Join(hints, "  "), m.width, "…"))
}
