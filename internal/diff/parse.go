package diff

import (
	"bufio"
	"strconv"
	"strings"
)

// LineType classifies a diff line.
type LineType int

const (
	LineContext LineType = iota
	LineAdd
	LineRemove
)

// DiffLine is one line of a hunk.
type DiffLine struct {
	Type      LineType
	OldLineNo int // 0 for added lines
	NewLineNo int // 0 for removed lines
	Content   string
}

// Hunk is one "@@" section.
type Hunk struct {
	Header   string
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []DiffLine
}

// ParsedDiff is a parsed single-file unified diff.
type ParsedDiff struct {
	OldFile string
	NewFile string
	Binary  bool
	Hunks   []Hunk
}

// LineCount returns the number of hunk lines, headers excluded.
func (d *ParsedDiff) LineCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, h := range d.Hunks {
		n += len(h.Lines)
	}
	return n
}

// ParseUnifiedDiff parses git's unified diff output for a single file.
// Empty input yields an empty diff.
func ParseUnifiedDiff(raw string) (*ParsedDiff, error) {
	d := &ParsedDiff{}
	var cur *Hunk
	oldNo, newNo := 0, 0

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "@@"):
			h, ok := parseHunkHeader(line)
			if !ok {
				continue
			}
			d.Hunks = append(d.Hunks, h)
			cur = &d.Hunks[len(d.Hunks)-1]
			oldNo, newNo = h.OldStart, h.NewStart
			continue
		case cur == nil && strings.HasPrefix(line, "--- "):
			d.OldFile = trimDiffPath(line[4:])
			continue
		case cur == nil && strings.HasPrefix(line, "+++ "):
			d.NewFile = trimDiffPath(line[4:])
			continue
		case strings.HasPrefix(line, "Binary files ") || line == "GIT binary patch":
			d.Binary = true
			continue
		case strings.HasPrefix(line, "diff --git "):
			cur = nil
			continue
		}

		if cur == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "+"):
			cur.Lines = append(cur.Lines, DiffLine{Type: LineAdd, NewLineNo: newNo, Content: line[1:]})
			newNo++
		case strings.HasPrefix(line, "-"):
			cur.Lines = append(cur.Lines, DiffLine{Type: LineRemove, OldLineNo: oldNo, Content: line[1:]})
			oldNo++
		case strings.HasPrefix(line, " "):
			cur.Lines = append(cur.Lines, DiffLine{Type: LineContext, OldLineNo: oldNo, NewLineNo: newNo, Content: line[1:]})
			oldNo++
			newNo++
		case line == "":
			cur.Lines = append(cur.Lines, DiffLine{Type: LineContext, OldLineNo: oldNo, NewLineNo: newNo})
			oldNo++
			newNo++
		}
		// "\ No newline at end of file" and anything else is dropped.
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// parseHunkHeader parses "@@ -a,b +c,d @@ section".
func parseHunkHeader(line string) (Hunk, bool) {
	end := strings.Index(line[2:], "@@")
	if end < 0 {
		return Hunk{}, false
	}
	fields := strings.Fields(line[2 : end+2])
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "-") || !strings.HasPrefix(fields[1], "+") {
		return Hunk{}, false
	}
	h := Hunk{Header: line}
	h.OldStart, h.OldCount = parseRange(fields[0][1:])
	h.NewStart, h.NewCount = parseRange(fields[1][1:])
	return h, true
}

func parseRange(s string) (start, count int) {
	count = 1
	if i := strings.IndexByte(s, ','); i >= 0 {
		count, _ = strconv.Atoi(s[i+1:])
		s = s[:i]
	}
	start, _ = strconv.Atoi(s)
	return start, count
}

func trimDiffPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		return p[2:]
	}
	return p
}

// LinePair is one row of a side-by-side diff. A nil side is blank.
type LinePair struct {
	Left  *DiffLine
	Right *DiffLine
}

// groupLinesForSideBySide pairs runs of removed lines with the added lines
// that follow them. Context lines appear on both sides.
func groupLinesForSideBySide(lines []DiffLine) []LinePair {
	var pairs []LinePair
	i := 0
	for i < len(lines) {
		if lines[i].Type == LineContext {
			l := &lines[i]
			pairs = append(pairs, LinePair{Left: l, Right: l})
			i++
			continue
		}

		var removes, adds []*DiffLine
		for i < len(lines) && lines[i].Type == LineRemove {
			removes = append(removes, &lines[i])
			i++
		}
		for i < len(lines) && lines[i].Type == LineAdd {
			adds = append(adds, &lines[i])
			i++
		}

		n := max(len(removes), len(adds))
		for j := 0; j < n; j++ {
			var p LinePair
			if j < len(removes) {
				p.Left = removes[j]
			}
			if j < len(adds) {
				p.Right = adds[j]
			}
			pairs = append(pairs, p)
		}
	}
	return pairs
}
