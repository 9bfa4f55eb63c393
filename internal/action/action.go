// Package action defines the declarative action model that runs are built
// from, plus the shared per-run configuration.
package action

import (
	"fmt"
	"time"
)

// Kind identifies one action variant.
type Kind string

const (
	KindClick      Kind = "click"
	KindClickAny   Kind = "click_any"
	KindPaste      Kind = "paste"
	KindWait       Kind = "wait"
	KindWaitGone   Kind = "wait_gone"
	KindSleep      Kind = "sleep"
	KindScroll     Kind = "scroll"
	KindSaveToFile Kind = "save_to_file"
	KindLoopClick  Kind = "loop_click"
)

// Action is one step of a run. Which fields are meaningful depends on Type;
// Validate enforces the per-kind requirements. Actions are immutable once
// submitted to the engine.
type Action struct {
	Type Kind `yaml:"type"                        json:"type"`

	// Template image name(s), resolved through the template store.
	Image  string   `yaml:"image,omitempty"      json:"image,omitempty"`
	Images []string `yaml:"images,omitempty"     json:"images,omitempty"`

	// Snippet id for paste and save_to_file.
	TextID string `yaml:"text_id,omitempty"      json:"text_id,omitempty"`

	// Sleep duration / loop_click inter-click interval, in seconds.
	Seconds         float64 `yaml:"seconds,omitempty"  json:"seconds,omitempty"`
	IntervalSeconds float64 `yaml:"interval,omitempty" json:"interval,omitempty"`

	// Scroll page-down count / loop_click repeat count.
	Count int `yaml:"count,omitempty"             json:"count,omitempty"`

	// Transcript labels for save_to_file.
	FlowName  string `yaml:"flow_name,omitempty"  json:"flow_name,omitempty"`
	GroupName string `yaml:"group_name,omitempty" json:"group_name,omitempty"`
}

// Validate checks that the fields required by the action's kind are present.
func (a Action) Validate() error {
	switch a.Type {
	case KindClick, KindWait, KindWaitGone:
		if a.Image == "" {
			return fmt.Errorf("%s: image is required", a.Type)
		}
	case KindClickAny:
		if len(a.Images) == 0 {
			return fmt.Errorf("%s: images is required", a.Type)
		}
	case KindPaste:
		if a.TextID == "" {
			return fmt.Errorf("%s: text_id is required", a.Type)
		}
	case KindSleep:
		if a.Seconds <= 0 {
			return fmt.Errorf("%s: seconds must be > 0", a.Type)
		}
	case KindScroll:
		// count defaults to 1 at execution time
	case KindSaveToFile:
		if a.TextID == "" {
			return fmt.Errorf("%s: text_id is required", a.Type)
		}
	case KindLoopClick:
		if a.Image == "" {
			return fmt.Errorf("%s: image is required", a.Type)
		}
		if a.Count <= 0 {
			return fmt.Errorf("%s: count must be > 0", a.Type)
		}
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}

// Describe returns a short human-readable label for log lines.
func (a Action) Describe() string {
	switch a.Type {
	case KindClick, KindWait, KindWaitGone, KindLoopClick:
		return fmt.Sprintf("%s %s", a.Type, a.Image)
	case KindClickAny:
		return fmt.Sprintf("%s %v", a.Type, a.Images)
	case KindPaste, KindSaveToFile:
		return fmt.Sprintf("%s %s", a.Type, a.TextID)
	default:
		return string(a.Type)
	}
}

// RunConfig is shared, read-only, across every action of one run.
type RunConfig struct {
	// Confidence is the top of the match-threshold ladder; MinConfidence is
	// the floor below which a looser match is no longer accepted.
	Confidence    float64 `yaml:"confidence"     json:"confidence"`
	MinConfidence float64 `yaml:"min_confidence" json:"min_confidence"`

	// Interval is the pause applied between actions, after a success.
	Interval float64 `yaml:"interval"            json:"interval"`

	// WaitTimeout bounds each wait-style action, in seconds.
	WaitTimeout float64 `yaml:"wait_timeout"     json:"wait_timeout"`

	// CursorSpeed is the pointer-move duration in seconds.
	CursorSpeed float64 `yaml:"cursor_speed"     json:"cursor_speed"`

	// StartDelay is applied once before the first action, in seconds.
	StartDelay float64 `yaml:"start_delay"       json:"start_delay"`
}

// Defaults matching the original server settings.
const (
	DefaultConfidence    = 0.8
	DefaultMinConfidence = 0.7
	DefaultInterval      = 2.0
	DefaultWaitTimeout   = 30.0
	DefaultCursorSpeed   = 0.5
)

// ApplyDefaults fills zero-valued fields with the standard defaults.
func (c *RunConfig) ApplyDefaults() {
	if c.Confidence <= 0 {
		c.Confidence = DefaultConfidence
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = DefaultMinConfidence
	}
	if c.MinConfidence > c.Confidence {
		c.MinConfidence = c.Confidence
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = DefaultWaitTimeout
	}
	if c.CursorSpeed <= 0 {
		c.CursorSpeed = DefaultCursorSpeed
	}
	if c.StartDelay < 0 {
		c.StartDelay = 0
	}
}

// IntervalDuration returns the inter-action pause as a time.Duration.
func (c RunConfig) IntervalDuration() time.Duration {
	return time.Duration(c.Interval * float64(time.Second))
}

// WaitTimeoutDuration returns the per-wait timeout as a time.Duration.
func (c RunConfig) WaitTimeoutDuration() time.Duration {
	return time.Duration(c.WaitTimeout * float64(time.Second))
}

// StartDelayDuration returns the pre-run delay as a time.Duration.
func (c RunConfig) StartDelayDuration() time.Duration {
	return time.Duration(c.StartDelay * float64(time.Second))
}

// ValidateAll validates a whole action list, reporting the first offending
// step by its 1-based position.
func ValidateAll(actions []Action) error {
	if len(actions) == 0 {
		return fmt.Errorf("no actions provided")
	}
	for i, a := range actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}
