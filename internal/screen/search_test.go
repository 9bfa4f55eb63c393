package screen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProbe answers Locate from a fixed score table; every other operation is
// inert. A nil table means nothing is on screen.
type stubProbe struct {
	scores  map[string]float64
	err     error
	locates int
}

func (p *stubProbe) Locate(path string, confidence float64) (Point, bool, error) {
	p.locates++
	if p.err != nil {
		return Point{}, false, p.err
	}
	score, ok := p.scores[path]
	if !ok || score < confidence {
		return Point{}, false, nil
	}
	return Point{X: 100, Y: 50}, true, nil
}

func (p *stubProbe) MoveSmooth(x, y int, seconds float64) error { return nil }
func (p *stubProbe) MoveRelative(dx, dy int) error              { return nil }
func (p *stubProbe) Position() (Point, error)                   { return Point{}, nil }
func (p *stubProbe) Click() error                               { return nil }
func (p *stubProbe) KeyTap(key string, mods ...string) error    { return nil }
func (p *stubProbe) ReadClipboard() (string, error)             { return "", nil }
func (p *stubProbe) WriteClipboard(text string) error           { return nil }

func TestFind_HitAtTopThreshold(t *testing.T) {
	s := NewSearch(&stubProbe{scores: map[string]float64{"a.png": 0.95}}, nil)

	m := s.Find("a.png", 0.9, 0.7)

	require.True(t, m.Found)
	assert.False(t, m.SteppedDown)
	assert.InDelta(t, 0.9, m.Confidence, 1e-6)
	assert.Equal(t, Point{X: 100, Y: 50}, m.Point)
}

func TestFind_StepsDownToLooserMatch(t *testing.T) {
	s := NewSearch(&stubProbe{scores: map[string]float64{"a.png": 0.81}}, nil)

	m := s.Find("a.png", 0.9, 0.7)

	require.True(t, m.Found)
	assert.True(t, m.SteppedDown)
	assert.LessOrEqual(t, m.Confidence, 0.81)
	assert.GreaterOrEqual(t, m.Confidence, 0.7)
}

func TestFind_NeverMatchesBelowFloor(t *testing.T) {
	s := NewSearch(&stubProbe{scores: map[string]float64{"a.png": 0.65}}, nil)

	m := s.Find("a.png", 0.9, 0.7)

	require.False(t, m.Found)
	// the coarse diagnostic pass still reports how close it came
	assert.True(t, m.BestKnown)
	assert.InDelta(t, 0.6, m.BestConfidence, 1e-6)
	assert.Contains(t, m.DescribeBest(), "~0.60")
}

func TestFind_FloorLevelIsInclusive(t *testing.T) {
	// target == min: exactly one probe, at the floor itself
	probe := &stubProbe{scores: map[string]float64{"a.png": 0.7}}
	s := NewSearch(probe, nil)

	m := s.Find("a.png", 0.7, 0.7)

	require.True(t, m.Found)
	assert.False(t, m.SteppedDown)
	assert.Equal(t, 1, probe.locates)
}

func TestFind_NothingOnScreenReportsBelowFloor(t *testing.T) {
	s := NewSearch(&stubProbe{}, nil)

	m := s.Find("a.png", 0.9, 0.7)

	require.False(t, m.Found)
	assert.False(t, m.BestKnown)
	assert.Equal(t, "below floor (no match at any level)", m.DescribeBest())
}

func TestFind_ProbeFailureIsCarriedNotFatal(t *testing.T) {
	probeErr := errors.New("capture failed")
	s := NewSearch(&stubProbe{err: probeErr}, nil)

	m := s.Find("a.png", 0.9, 0.7)

	require.False(t, m.Found)
	assert.ErrorIs(t, m.ProbeErr, probeErr)
}

func TestFindAny_PrefersEarlierTemplateAtSameLevel(t *testing.T) {
	s := NewSearch(&stubProbe{scores: map[string]float64{
		"a.png": 0.92,
		"b.png": 0.95,
	}}, nil)

	idx, m, diags := s.FindAny([]string{"a.png", "b.png"}, 0.9, 0.7)

	require.Equal(t, 0, idx)
	assert.True(t, m.Found)
	assert.Nil(t, diags)
}

func TestFindAny_HigherScoringTemplateWinsAcrossLevels(t *testing.T) {
	// b matches at a higher threshold than a, so the ladder reaches it first
	// even though a comes earlier in the list
	s := NewSearch(&stubProbe{scores: map[string]float64{
		"a.png": 0.74,
		"b.png": 0.86,
	}}, nil)

	idx, m, _ := s.FindAny([]string{"a.png", "b.png"}, 0.9, 0.7)

	require.Equal(t, 1, idx)
	assert.True(t, m.SteppedDown)
}

func TestFindAny_MissReturnsPerTemplateDiagnostics(t *testing.T) {
	s := NewSearch(&stubProbe{scores: map[string]float64{"a.png": 0.55}}, nil)

	idx, _, diags := s.FindAny([]string{"a.png", "b.png"}, 0.9, 0.7)

	require.Equal(t, -1, idx)
	require.Len(t, diags, 2)
	assert.True(t, diags[0].BestKnown)
	assert.InDelta(t, 0.5, diags[0].BestConfidence, 1e-6)
	assert.False(t, diags[1].BestKnown)
}

func TestDiagnose_ReportsBestCoarseLevel(t *testing.T) {
	s := NewSearch(&stubProbe{scores: map[string]float64{"a.png": 0.43}}, nil)

	m := s.Diagnose("a.png")

	assert.True(t, m.BestKnown)
	assert.InDelta(t, 0.4, m.BestConfidence, 1e-6)
	assert.False(t, m.Found, "diagnostic results are never functional matches")
}

func TestPointString(t *testing.T) {
	assert.Equal(t, "(320, 240)", Point{X: 320, Y: 240}.String())
}
