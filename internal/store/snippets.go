// Package store provides the JSON-file persisted collaborators the engine
// consumes: text snippets, named flows, and template images.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Snippet is one stored text with its opaque id.
type Snippet struct {
	ID   string `yaml:"id"   json:"id"`
	Text string `yaml:"text" json:"text"`
}

// SnippetStore persists snippets as a JSON map in a single file.
type SnippetStore struct {
	mu       sync.Mutex
	path     string
	snippets map[string]string
}

// NewSnippetStore loads the store from path, starting empty if the file does
// not exist yet.
func NewSnippetStore(path string) (*SnippetStore, error) {
	s := &SnippetStore{path: path, snippets: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read snippets: %w", err)
	}
	if err := json.Unmarshal(data, &s.snippets); err != nil {
		return nil, fmt.Errorf("parse snippets %s: %w", path, err)
	}
	return s, nil
}

// Add stores a new snippet and returns its id. Empty text is rejected.
func (s *SnippetStore) Add(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("snippet text is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.snippets[id] = text
	if err := s.save(); err != nil {
		delete(s.snippets, id)
		return "", err
	}
	return id, nil
}

// Get returns the snippet text for id.
func (s *SnippetStore) Get(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.snippets[id]
	return text, ok
}

// Update replaces the text of an existing snippet.
func (s *SnippetStore) Update(id, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("snippet text is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snippets[id]; !ok {
		return fmt.Errorf("snippet not found: %s", id)
	}
	s.snippets[id] = text
	return s.save()
}

// Delete removes a snippet.
func (s *SnippetStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snippets[id]; !ok {
		return fmt.Errorf("snippet not found: %s", id)
	}
	delete(s.snippets, id)
	return s.save()
}

// List returns all snippets sorted by id for stable output.
func (s *SnippetStore) List() []Snippet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Snippet, 0, len(s.snippets))
	for id, text := range s.snippets {
		out = append(out, Snippet{ID: id, Text: text})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// save writes atomically: temp file in the same dir, then rename.
// Caller holds the lock.
func (s *SnippetStore) save() error {
	data, err := json.MarshalIndent(s.snippets, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
