package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/hnakai/screenflow/internal/action"
	"github.com/hnakai/screenflow/internal/screen"
)

const (
	// click retries the full threshold ladder this many extra times.
	clickRetries      = 2
	clickRetryBackoff = time.Second

	// wait poll cadence: short for appearance, longer for disappearance.
	appearPollInterval    = 100 * time.Millisecond
	disappearPollInterval = 500 * time.Millisecond

	// pointer is nudged every nudgeEvery polls while waiting, and parked
	// this far above a matched template.
	nudgeEvery = 10
	parkOffset = 40

	scrollKeyDelay = 200 * time.Millisecond

	// loop_click emits an Info progress outcome every progressEvery
	// iterations (plus the first and the last).
	progressEvery = 5

	previewRunes = 30
)

func (e *Executor) doClick(a action.Action, cfg action.RunConfig) Outcome {
	path, err := e.templates.Resolve(a.Image)
	if err != nil {
		return errorf("template not found: %s", a.Image)
	}

	var last screen.MatchAttempt
	for attempt := 0; attempt <= clickRetries; attempt++ {
		if attempt > 0 {
			if e.state.AbortRequested() {
				return aborted(fmt.Sprintf("click %s aborted during retry %d", a.Image, attempt))
			}
			time.Sleep(clickRetryBackoff)
		}
		m := e.search.Find(path, cfg.Confidence, cfg.MinConfidence)
		if m.Found {
			return e.clickAt(a.Image, m, cfg)
		}
		last = m
	}
	return notFound(fmt.Sprintf("no match for %s after %d attempts (%s)",
		a.Image, clickRetries+1, last.DescribeBest()))
}

func (e *Executor) doClickAny(a action.Action, cfg action.RunConfig) Outcome {
	paths := make([]string, len(a.Images))
	for i, name := range a.Images {
		p, err := e.templates.Resolve(name)
		if err != nil {
			return errorf("template not found: %s", name)
		}
		paths[i] = p
	}

	var diags []screen.MatchAttempt
	for attempt := 0; attempt <= clickRetries; attempt++ {
		if attempt > 0 {
			if e.state.AbortRequested() {
				return aborted(fmt.Sprintf("click_any aborted during retry %d", attempt))
			}
			time.Sleep(clickRetryBackoff)
		}
		idx, m, d := e.search.FindAny(paths, cfg.Confidence, cfg.MinConfidence)
		if idx >= 0 {
			return e.clickAt(a.Images[idx], m, cfg)
		}
		diags = d
	}

	parts := make([]string, len(a.Images))
	for i, name := range a.Images {
		parts[i] = fmt.Sprintf("%s: %s", name, diags[i].DescribeBest())
	}
	return notFound("no match for any template: " + strings.Join(parts, "; "))
}

// clickAt moves to a confirmed match and clicks it.
func (e *Executor) clickAt(name string, m screen.MatchAttempt, cfg action.RunConfig) Outcome {
	if err := e.probe.MoveSmooth(m.Point.X, m.Point.Y, cfg.CursorSpeed); err != nil {
		return errorf("pointer move failed: %v", err)
	}
	if err := e.probe.Click(); err != nil {
		return errorf("click failed: %v", err)
	}
	detail := fmt.Sprintf("clicked %s at %s (confidence %.2f)", name, m.Point, m.Confidence)
	if m.SteppedDown {
		detail += " [stepped down]"
	}
	return success(detail)
}

func (e *Executor) doPaste(a action.Action, cfg action.RunConfig) Outcome {
	text, ok := e.snippets.Get(a.TextID)
	if !ok {
		return errorf("unknown snippet: %s", a.TextID)
	}
	if err := e.probe.WriteClipboard(text); err != nil {
		return errorf("clipboard write failed: %v", err)
	}
	if err := e.probe.KeyTap("v", screen.PasteModifier()); err != nil {
		return errorf("paste keystroke failed: %v", err)
	}
	return success(fmt.Sprintf("pasted %q", preview(text)))
}

func (e *Executor) doWaitAppear(a action.Action, cfg action.RunConfig) Outcome {
	path, err := e.templates.Resolve(a.Image)
	if err != nil {
		return errorf("template not found: %s", a.Image)
	}

	start := time.Now()
	deadline := start.Add(cfg.WaitTimeoutDuration())
	nudge := 1
	for poll := 0; ; poll++ {
		if e.state.AbortRequested() {
			return aborted(fmt.Sprintf("wait for %s aborted after %s", a.Image, elapsed(start)))
		}

		pt, found, probeErr := e.probe.Locate(path, cfg.Confidence)
		if probeErr == nil && found {
			// park above the match so the pointer doesn't cover it
			_ = e.probe.MoveSmooth(pt.X, pt.Y-parkOffset, cfg.CursorSpeed)
			return success(fmt.Sprintf("detected %s at %s after %s", a.Image, pt, elapsed(start)))
		}

		if time.Now().After(deadline) {
			diag := e.search.Diagnose(path)
			return timeout(fmt.Sprintf("%s not seen within %.0fs (%s)",
				a.Image, cfg.WaitTimeout, diag.DescribeBest()))
		}

		// alive indicator: wiggle the pointer back and forth now and then
		if poll%nudgeEvery == nudgeEvery-1 {
			_ = e.probe.MoveRelative(nudge, 0)
			nudge = -nudge
		}
		time.Sleep(appearPollInterval)
	}
}

func (e *Executor) doWaitGone(a action.Action, cfg action.RunConfig) Outcome {
	path, err := e.templates.Resolve(a.Image)
	if err != nil {
		return errorf("template not found: %s", a.Image)
	}

	_, present, probeErr := e.probe.Locate(path, cfg.Confidence)
	if probeErr == nil && !present {
		return success(fmt.Sprintf("%s already absent", a.Image))
	}

	start := time.Now()
	deadline := start.Add(cfg.WaitTimeoutDuration())
	nudge := 1
	for poll := 0; ; poll++ {
		if e.state.AbortRequested() {
			return aborted(fmt.Sprintf("wait_gone for %s aborted after %s", a.Image, elapsed(start)))
		}

		time.Sleep(disappearPollInterval)
		_, present, probeErr = e.probe.Locate(path, cfg.Confidence)
		if probeErr == nil && !present {
			return success(fmt.Sprintf("%s disappeared after %s", a.Image, elapsed(start)))
		}

		if time.Now().After(deadline) {
			return timeout(fmt.Sprintf("%s still visible after %.0fs", a.Image, cfg.WaitTimeout))
		}

		if poll%nudgeEvery == nudgeEvery-1 {
			_ = e.probe.MoveRelative(nudge, 0)
			nudge = -nudge
		}
	}
}

// doSleep blocks for the full duration. Deliberately not cancellation-aware:
// a plain sleep is fixed pacing, and the abort flag is honored at the next
// inter-action checkpoint.
func (e *Executor) doSleep(a action.Action, cfg action.RunConfig) Outcome {
	if a.Seconds <= 0 {
		return errorf("sleep requires seconds > 0")
	}
	time.Sleep(time.Duration(a.Seconds * float64(time.Second)))
	return success(fmt.Sprintf("slept %gs", a.Seconds))
}

func (e *Executor) doScroll(a action.Action, cfg action.RunConfig) Outcome {
	count := a.Count
	if count <= 0 {
		count = 1
	}
	// focusing click at the current pointer position so the key presses land
	if err := e.probe.Click(); err != nil {
		return errorf("focus click failed: %v", err)
	}
	for i := 0; i < count; i++ {
		if i > 0 {
			time.Sleep(scrollKeyDelay)
		}
		if err := e.probe.KeyTap("pagedown"); err != nil {
			return errorf("page_down failed: %v", err)
		}
	}
	return success(fmt.Sprintf("scrolled page_down x%d", count))
}

func (e *Executor) doSaveToFile(a action.Action, cfg action.RunConfig) Outcome {
	snippet, ok := e.snippets.Get(a.TextID)
	if !ok {
		return errorf("unknown snippet: %s", a.TextID)
	}
	clip, err := e.probe.ReadClipboard()
	if err != nil {
		return errorf("clipboard read failed: %v", err)
	}
	if strings.TrimSpace(clip) == "" {
		return errorf("clipboard is empty; copy the reply before saving")
	}
	if clip == snippet {
		return errorf("clipboard still holds the pasted prompt; copy the reply before saving")
	}

	stats, err := e.transcript.Append(a.FlowName, a.GroupName, snippet, clip)
	if err != nil {
		return errorf("transcript write failed: %v", err)
	}
	return success(fmt.Sprintf("saved %d chars to %s (flow section now %d lines, %d chars)",
		len(clip), stats.File, stats.SectionLines, stats.SectionChars))
}

func (e *Executor) doLoopClick(a action.Action, cfg action.RunConfig) Outcome {
	path, err := e.templates.Resolve(a.Image)
	if err != nil {
		return errorf("template not found: %s", a.Image)
	}

	interval := time.Duration(a.IntervalSeconds * float64(time.Second))
	hits, misses := 0, 0
	for i := 1; i <= a.Count; i++ {
		if e.state.AbortRequested() {
			return aborted(fmt.Sprintf("loop_click %s aborted at %d/%d (hits %d, misses %d)",
				a.Image, i-1, a.Count, hits, misses))
		}

		m := e.search.Find(path, cfg.Confidence, cfg.MinConfidence)
		if m.Found {
			if e.probe.MoveSmooth(m.Point.X, m.Point.Y, cfg.CursorSpeed) == nil &&
				e.probe.Click() == nil {
				hits++
			} else {
				misses++
			}
		} else {
			misses++
		}

		if i == 1 || i%progressEvery == 0 || i == a.Count {
			e.state.Append(info(fmt.Sprintf("loop_click %s %d/%d (hits %d, misses %d)",
				a.Image, i, a.Count, hits, misses)))
		}
		if i < a.Count {
			time.Sleep(interval)
		}
	}
	return success(fmt.Sprintf("loop_click %s completed %d/%d (hits %d, misses %d)",
		a.Image, a.Count, a.Count, hits, misses))
}

// preview truncates text for outcome details.
func preview(text string) string {
	r := []rune(strings.ReplaceAll(text, "\n", " "))
	if len(r) <= previewRunes {
		return string(r)
	}
	return string(r[:previewRunes]) + "..."
}

func elapsed(start time.Time) string {
	return fmt.Sprintf("%.1fs", time.Since(start).Seconds())
}
