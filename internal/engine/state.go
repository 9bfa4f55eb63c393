package engine

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrRunActive is returned when a claim is attempted while a run is running.
var ErrRunActive = errors.New("a run is already active")

// State is the single-slot run tracker shared between the background worker
// and pollers. One mutex guards every field so pollers always see a
// consistent snapshot and appends are never partially visible.
//
// Lifecycle: created empty at startup, claimed when a run starts (the claim
// fails if one is active), mutated by the executor during the run, marked
// completed when the run ends. It is reset for reuse by the next claim,
// never destroyed.
type State struct {
	mu         sync.Mutex
	running    bool
	runID      string
	stepIndex  int
	totalSteps int
	outcomes   []Outcome
	completed  bool
	aborted    bool
}

// Snapshot is a consistent copy of the state for pollers.
type Snapshot struct {
	Running    bool      `yaml:"is_running"   json:"is_running"`
	RunID      string    `yaml:"run_id"       json:"run_id"`
	StepIndex  int       `yaml:"current_step" json:"current_step"`
	TotalSteps int       `yaml:"total_steps"  json:"total_steps"`
	Outcomes   []Outcome `yaml:"results"      json:"results"`
	Completed  bool      `yaml:"completed"    json:"completed"`
	Aborted    bool      `yaml:"aborted"      json:"aborted"`
	Succeeded  int       `yaml:"succeeded"    json:"succeeded"`
}

// NewState returns an idle state slot.
func NewState() *State {
	return &State{}
}

// Claim takes the slot for a new run of totalSteps actions and returns the
// run id. It fails with ErrRunActive when a run is in progress; the active
// run's state is left untouched in that case.
func (s *State) Claim(totalSteps int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return "", ErrRunActive
	}
	s.running = true
	s.runID = uuid.NewString()
	s.stepIndex = 0
	s.totalSteps = totalSteps
	s.outcomes = nil
	s.completed = false
	s.aborted = false
	return s.runID, nil
}

// Append records one outcome. stepIndex always equals the log length.
func (s *State) Append(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, o)
	s.stepIndex = len(s.outcomes)
}

// Finish marks the run completed and releases the slot. The abort flag keeps
// whatever value it had; the next claim resets it.
func (s *State) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.completed = true
}

// Abort requests cancellation of the active run. It reports whether a run
// was active; when none is, it is a no-op.
func (s *State) Abort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.aborted = true
	return true
}

// AbortRequested is the cooperative cancellation checkpoint read.
func (s *State) AbortRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

// Snapshot returns a copy of the state for an external poller.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Outcome, len(s.outcomes))
	copy(out, s.outcomes)
	succeeded := 0
	for _, o := range out {
		if o.Status == StatusSuccess {
			succeeded++
		}
	}
	return Snapshot{
		Running:    s.running,
		RunID:      s.runID,
		StepIndex:  s.stepIndex,
		TotalSteps: s.totalSteps,
		Outcomes:   out,
		Completed:  s.completed,
		Aborted:    s.aborted,
		Succeeded:  succeeded,
	}
}
