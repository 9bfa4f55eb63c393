package screen

import (
	"go.uber.org/zap"
)

// ladderStep is how far each probe threshold drops below the previous one.
const ladderStep = 0.02

// floatTolerance absorbs accumulated float error at the ladder floor.
const floatTolerance = 1e-9

// diagnosticLadder is the coarse pass used only to report how close a failed
// search came, so operators can recalibrate template images.
var diagnosticLadder = []float64{0.7, 0.6, 0.5, 0.4, 0.3}

// Search is the confidence-stepping policy over a Probe. Screen rendering is
// non-deterministic, so a single rigid threshold is fragile; the search walks
// a descending ladder and reports when it had to step down.
type Search struct {
	probe Probe
	log   *zap.Logger
}

// NewSearch wraps a probe. A nil logger disables logging.
func NewSearch(probe Probe, log *zap.Logger) *Search {
	if log == nil {
		log = zap.NewNop()
	}
	return &Search{probe: probe, log: log}
}

// Find probes at target confidence, then steps down by 0.02 until the floor
// (inclusive). The returned attempt carries the first (highest) threshold at
// which the template matched; a found result never has Confidence < min.
// When nothing matches down to the floor, the attempt carries diagnostic
// best-confidence information instead.
func (s *Search) Find(templatePath string, target, min float64) MatchAttempt {
	var lastErr error
	for level := target; level >= min-floatTolerance; level -= ladderStep {
		pt, found, err := s.probe.Locate(templatePath, level)
		if err != nil {
			lastErr = err
			s.log.Debug("probe failed", zap.String("template", templatePath), zap.Float64("level", level), zap.Error(err))
			continue
		}
		if found {
			if level < target {
				s.log.Debug("matched below target",
					zap.String("template", templatePath),
					zap.Float64("level", level),
					zap.Float64("target", target))
			}
			return MatchAttempt{
				Found:       true,
				Confidence:  level,
				Point:       pt,
				SteppedDown: level < target-floatTolerance,
			}
		}
	}
	attempt := s.Diagnose(templatePath)
	attempt.ProbeErr = lastErr
	return attempt
}

// FindAny walks the same ladder but tries every template in order at each
// level, returning the index of the first hit. The full ladder is exhausted
// for all templates before giving up. Per-template diagnostics are returned
// for the not-found case.
func (s *Search) FindAny(templatePaths []string, target, min float64) (int, MatchAttempt, []MatchAttempt) {
	for level := target; level >= min-floatTolerance; level -= ladderStep {
		for i, tpl := range templatePaths {
			pt, found, err := s.probe.Locate(tpl, level)
			if err != nil {
				continue
			}
			if found {
				return i, MatchAttempt{
					Found:       true,
					Confidence:  level,
					Point:       pt,
					SteppedDown: level < target-floatTolerance,
				}, nil
			}
		}
	}
	diags := make([]MatchAttempt, len(templatePaths))
	for i, tpl := range templatePaths {
		diags[i] = s.Diagnose(tpl)
	}
	return -1, MatchAttempt{}, diags
}

// Diagnose runs the coarse ladder purely for failure reporting; its result
// is never a functional match.
func (s *Search) Diagnose(templatePath string) MatchAttempt {
	for _, level := range diagnosticLadder {
		_, found, err := s.probe.Locate(templatePath, level)
		if err != nil {
			continue
		}
		if found {
			return MatchAttempt{BestConfidence: level, BestKnown: true}
		}
	}
	return MatchAttempt{}
}
