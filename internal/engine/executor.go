package engine

import (
	"bytes"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/hnakai/screenflow/internal/action"
	"github.com/hnakai/screenflow/internal/screen"
)

// SnippetSource resolves opaque snippet ids to stored text.
type SnippetSource interface {
	Get(id string) (string, bool)
}

// TemplateSource resolves a template image name to a file path.
type TemplateSource interface {
	Resolve(name string) (string, error)
}

// TranscriptStats reports the target file and the flow section's running
// tallies after an append.
type TranscriptStats struct {
	File         string
	SectionChars int
	SectionLines int
}

// Transcript appends one clipboard capture to the per-day, per-flow file.
type Transcript interface {
	Append(flowName, groupName, snippetText, content string) (TranscriptStats, error)
}

// Executor runs action sequences one at a time on a background goroutine.
// Exactly one run may be active; Start rejects a second one.
type Executor struct {
	state      *State
	probe      screen.Probe
	search     *screen.Search
	snippets   SnippetSource
	templates  TemplateSource
	transcript Transcript
	log        *zap.Logger

	// sleep applies the run pacing (start delay, inter-action interval);
	// swapped out in tests.
	sleep func(time.Duration)
}

// New wires an executor. A nil logger disables logging.
func New(probe screen.Probe, snippets SnippetSource, templates TemplateSource, transcript Transcript, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		state:      NewState(),
		probe:      probe,
		search:     screen.NewSearch(probe, log),
		snippets:   snippets,
		templates:  templates,
		transcript: transcript,
		log:        log,
		sleep:      time.Sleep,
	}
}

// State exposes the run tracker for pollers.
func (e *Executor) State() *State {
	return e.state
}

// Start claims the run slot and launches the run on a background goroutine.
// It returns the run id immediately; callers poll State for progress. A
// second start while a run is active fails with ErrRunActive.
func (e *Executor) Start(actions []action.Action, cfg action.RunConfig) (string, error) {
	if len(actions) == 0 {
		return "", fmt.Errorf("no actions provided")
	}
	runID, err := e.state.Claim(len(actions))
	if err != nil {
		return "", err
	}
	go e.run(runID, actions, cfg)
	return runID, nil
}

// Cancel requests cancellation of the active run. The flag takes effect at
// the run's next checkpoint; a handler blocked in a single system call
// finishes that call first. No-op when idle.
func (e *Executor) Cancel() bool {
	return e.state.Abort()
}

func (e *Executor) run(runID string, actions []action.Action, cfg action.RunConfig) {
	defer e.state.Finish()

	e.log.Info("run started",
		zap.String("run_id", runID),
		zap.Int("actions", len(actions)),
		zap.Float64("confidence", cfg.Confidence),
		zap.Float64("min_confidence", cfg.MinConfidence))

	if cfg.StartDelay > 0 {
		if e.state.AbortRequested() {
			e.state.Append(aborted("run aborted before start"))
			return
		}
		e.sleep(cfg.StartDelayDuration())
	}

	succeeded := 0
	for i, a := range actions {
		if e.state.AbortRequested() {
			e.state.Append(aborted(fmt.Sprintf("run aborted at step %d/%d", i+1, len(actions))))
			e.log.Info("run aborted", zap.String("run_id", runID), zap.Int("step", i+1))
			return
		}

		outcome := e.executeSafe(a, cfg)
		e.state.Append(outcome)
		e.log.Debug("action finished",
			zap.String("run_id", runID),
			zap.Int("step", i+1),
			zap.String("action", a.Describe()),
			zap.String("status", string(outcome.Status)))

		if outcome.Status == StatusAborted {
			e.log.Info("run aborted", zap.String("run_id", runID), zap.Int("step", i+1))
			return
		}
		if outcome.Status == StatusSuccess {
			succeeded++
			if i < len(actions)-1 {
				e.sleep(cfg.IntervalDuration())
			}
		}
	}

	e.log.Info("run completed",
		zap.String("run_id", runID),
		zap.String("result", fmt.Sprintf("%d/%d actions succeeded", succeeded, len(actions))))
}

// executeSafe dispatches one action and converts a handler panic into an
// Error outcome so a single bad action cannot take down the run.
func (e *Executor) executeSafe(a action.Action, cfg action.RunConfig) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = errorf("%s panicked: %v%s", a.Type, r, panicSite())
			e.log.Error("handler panic", zap.String("action", a.Describe()), zap.Any("panic", r))
		}
	}()

	if err := a.Validate(); err != nil {
		return errorf("%v", err)
	}

	switch a.Type {
	case action.KindClick:
		return e.doClick(a, cfg)
	case action.KindClickAny:
		return e.doClickAny(a, cfg)
	case action.KindPaste:
		return e.doPaste(a, cfg)
	case action.KindWait:
		return e.doWaitAppear(a, cfg)
	case action.KindWaitGone:
		return e.doWaitGone(a, cfg)
	case action.KindSleep:
		return e.doSleep(a, cfg)
	case action.KindScroll:
		return e.doScroll(a, cfg)
	case action.KindSaveToFile:
		return e.doSaveToFile(a, cfg)
	case action.KindLoopClick:
		return e.doLoopClick(a, cfg)
	default:
		return errorf("unknown action type %q", a.Type)
	}
}

// panicSite extracts the first in-module frame from the panic stack as a
// source-location hint for the Error outcome.
func panicSite() string {
	for _, line := range bytes.Split(debug.Stack(), []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if !bytes.Contains(trimmed, []byte("internal/engine")) || !bytes.Contains(trimmed, []byte(".go:")) {
			continue
		}
		// skip the recovery machinery's own frames
		if bytes.Contains(trimmed, []byte("executor.go")) {
			continue
		}
		if i := bytes.IndexByte(trimmed, ' '); i > 0 {
			trimmed = trimmed[:i]
		}
		return " at " + string(trimmed)
	}
	return ""
}
