// Package transcript appends clipboard captures to per-day, per-flow
// markdown files and tracks running section tallies for reporting.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hnakai/screenflow/internal/engine"
)

// previewRunes bounds the sanitized snippet preview used in file names.
const previewRunes = 20

// Writer is the engine's transcript sink. One mutex serializes appends so
// concurrent runs of the tool against the same output dir don't interleave
// blocks.
type Writer struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

var _ engine.Transcript = (*Writer)(nil)

// NewWriter returns a sink writing under dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Append writes one timestamped, delimited block to the file keyed by
// (today, group, snippet preview) and returns the flow section's running
// tallies.
func (w *Writer) Append(flowName, groupName, snippetText, content string) (engine.TranscriptStats, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return engine.TranscriptStats{}, err
	}

	now := w.now()
	name := FileName(now, groupName, snippetText)
	path := filepath.Join(w.dir, name)

	// an empty flow label would produce a "## []" header that the section
	// tally could never match
	flow := flowName
	if flow == "" {
		flow = "default"
	}

	block := fmt.Sprintf("## [%s] %s\n\n%s\n\n---\n\n", flow, now.Format("15:04:05"), content)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return engine.TranscriptStats{}, err
	}
	if _, err := f.WriteString(block); err != nil {
		f.Close()
		return engine.TranscriptStats{}, err
	}
	if err := f.Close(); err != nil {
		return engine.TranscriptStats{}, err
	}

	chars, lines, err := sectionTally(path, flow)
	if err != nil {
		return engine.TranscriptStats{}, err
	}
	return engine.TranscriptStats{File: name, SectionChars: chars, SectionLines: lines}, nil
}

// FileName computes the per-day, per-flow file name from the group label and
// a sanitized snippet preview.
func FileName(day time.Time, groupName, snippetText string) string {
	group := Sanitize(groupName)
	if group == "" {
		group = "default"
	}
	preview := Sanitize(truncate(snippetText, previewRunes))
	if preview == "" {
		preview = "untitled"
	}
	return fmt.Sprintf("%s_%s_%s.md", day.Format("2006-01-02"), group, preview)
}

// Sanitize reduces a label to a safe file-name fragment: runs of anything
// outside letters, digits, '-' and '_' collapse to a single underscore.
func Sanitize(s string) string {
	var b strings.Builder
	lastUnderscore := true // trim leading underscores too
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// sectionTally sums characters and lines of every block belonging to the
// given flow in the file.
func sectionTally(path, flowName string) (chars, lines int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	header := "## [" + flowName + "]"
	inSection := false
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "## [") {
			inSection = strings.HasPrefix(line, header)
			continue
		}
		if !inSection || line == "---" {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines++
		chars += len([]rune(line))
	}
	return chars, lines, nil
}
