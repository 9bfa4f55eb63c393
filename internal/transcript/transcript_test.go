package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedTime(t *testing.T) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, "2026-03-15T14:30:05Z")
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestSanitize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"hello world", "hello_world"},
		{"Tell me a story!", "Tell_me_a_story"},
		{"already-safe_name", "already-safe_name"},
		{"  spaces  everywhere  ", "spaces_everywhere"},
		{"a///b", "a_b"},
		{"___", ""},
		{"", ""},
		{"émoji 🎉 text", "moji_text"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFileName(t *testing.T) {
	day := fixedTime(t)

	got := FileName(day, "ai chat", "Tell me about Go concurrency patterns")
	want := "2026-03-15_ai_chat_Tell_me_about_Go_con.md"
	if got != want {
		t.Errorf("FileName() = %q, want %q", got, want)
	}
}

func TestFileName_Fallbacks(t *testing.T) {
	day := fixedTime(t)

	got := FileName(day, "", "!!!")
	if got != "2026-03-15_default_untitled.md" {
		t.Errorf("FileName() = %q, want fallback labels", got)
	}
}

func TestAppend_WritesDelimitedBlock(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	w.now = func() time.Time { return fixedTime(t) }

	stats, err := w.Append("normal", "ai", "the prompt", "line one\nline two")
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, stats.File))
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.HasPrefix(got, "## [normal] 14:30:05\n\nline one\nline two\n\n---\n\n") {
		t.Errorf("unexpected block:\n%s", got)
	}
	if stats.SectionLines != 2 {
		t.Errorf("SectionLines = %d, want 2", stats.SectionLines)
	}
	if stats.SectionChars != len("line one")+len("line two") {
		t.Errorf("SectionChars = %d", stats.SectionChars)
	}
}

func TestAppend_SameKeyAppendsToSameFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	w.now = func() time.Time { return fixedTime(t) }

	first, err := w.Append("normal", "ai", "the prompt", "reply one")
	if err != nil {
		t.Fatal(err)
	}
	second, err := w.Append("normal", "ai", "the prompt", "reply two")
	if err != nil {
		t.Fatal(err)
	}

	if first.File != second.File {
		t.Fatalf("appends split across %q and %q", first.File, second.File)
	}
	if second.SectionLines != 2 {
		t.Errorf("SectionLines = %d, want cumulative 2", second.SectionLines)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d files, want 1", len(entries))
	}
}

func TestAppend_EmptyFlowGetsDefaultLabel(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	w.now = func() time.Time { return fixedTime(t) }

	stats, err := w.Append("", "ai", "the prompt", "the reply")
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, stats.File))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "## [default] ") {
		t.Errorf("header missing default flow label:\n%s", data)
	}
	// the tally matches the fallback header
	if stats.SectionLines != 1 {
		t.Errorf("SectionLines = %d, want 1", stats.SectionLines)
	}
}

func TestAppend_TalliesPerFlowSection(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	w.now = func() time.Time { return fixedTime(t) }

	if _, err := w.Append("normal", "ai", "the prompt", "normal reply"); err != nil {
		t.Fatal(err)
	}
	stats, err := w.Append("detailed", "ai", "the prompt", "detailed reply")
	if err != nil {
		t.Fatal(err)
	}

	// the tally covers only the detailed flow's blocks
	if stats.SectionLines != 1 {
		t.Errorf("SectionLines = %d, want 1", stats.SectionLines)
	}
	if stats.SectionChars != len("detailed reply") {
		t.Errorf("SectionChars = %d, want %d", stats.SectionChars, len("detailed reply"))
	}
}
