package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/hnakai/screenflow/internal/action"
)

// Flow is a named, reusable action sequence with its transcript group label.
type Flow struct {
	Actions []action.Action `yaml:"actions" json:"actions"`
	Group   string          `yaml:"group"   json:"group"`
}

// FlowStore persists named flows as a JSON object in a single file.
type FlowStore struct {
	mu    sync.Mutex
	path  string
	flows map[string]Flow
}

// NewFlowStore loads the store from path, starting empty if absent.
func NewFlowStore(path string) (*FlowStore, error) {
	s := &FlowStore{path: path, flows: make(map[string]Flow)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read flows: %w", err)
	}
	if err := json.Unmarshal(data, &s.flows); err != nil {
		return nil, fmt.Errorf("parse flows %s: %w", path, err)
	}
	return s, nil
}

// Save stores or replaces a named flow after validating its actions.
func (s *FlowStore) Save(name string, flow Flow) error {
	if name == "" {
		return fmt.Errorf("flow name is empty")
	}
	if err := action.ValidateAll(flow.Actions); err != nil {
		return fmt.Errorf("flow %s: %w", name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[name] = flow
	return s.save()
}

// Get returns a flow by name.
func (s *FlowStore) Get(name string) (Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[name]
	return f, ok
}

// Delete removes a flow.
func (s *FlowStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flows[name]; !ok {
		return fmt.Errorf("flow not found: %s", name)
	}
	delete(s.flows, name)
	return s.save()
}

// Names returns all flow names, sorted.
func (s *FlowStore) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.flows))
	for name := range s.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *FlowStore) save() error {
	data, err := json.MarshalIndent(s.flows, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}
