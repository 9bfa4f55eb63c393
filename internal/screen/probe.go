// Package screen wraps the live desktop: locating template images on it and
// dispatching pointer, keyboard, and clipboard operations. The engine talks
// to the Probe interface only; the robotgo backend lives behind it.
package screen

import "fmt"

// Point is a screen coordinate.
type Point struct {
	X, Y int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Probe is the single capability boundary to the live desktop.
//
// Locate distinguishes "the probe itself failed" (non-nil error: capture
// failure, unreadable template file) from "the probe ran and nothing matched
// at the given confidence" (found=false, nil error). Callers must not
// conflate the two.
type Probe interface {
	// Locate reports the center of the best match of the template image on
	// the current screen, if its correlation score is >= confidence.
	Locate(templatePath string, confidence float64) (pt Point, found bool, err error)

	// MoveSmooth moves the pointer to x,y over roughly the given duration.
	MoveSmooth(x, y int, seconds float64) error
	// MoveRelative nudges the pointer by dx,dy from its current position.
	MoveRelative(dx, dy int) error
	// Position returns the current pointer position.
	Position() (Point, error)
	// Click presses the left button at the current pointer position.
	Click() error

	// KeyTap presses a key with optional modifiers.
	KeyTap(key string, mods ...string) error

	// ReadClipboard returns the current clipboard text.
	ReadClipboard() (string, error)
	// WriteClipboard replaces the clipboard text.
	WriteClipboard(text string) error
}

// MatchAttempt is the transient result of one confidence search. It is never
// persisted; handlers fold it into an outcome detail string.
type MatchAttempt struct {
	Found      bool
	Confidence float64 // threshold the match was found at (>= the floor)
	Point      Point
	// SteppedDown is set when the match was found below the top threshold.
	SteppedDown bool

	// Diagnostics for the not-found case.
	BestConfidence float64 // best coarse-ladder level that still matched
	BestKnown      bool    // false when nothing matched even the coarse ladder
	ProbeErr       error   // last probe failure, if the search hit one
}

// DescribeBest renders the diagnostic confidence for failure outcomes.
func (m MatchAttempt) DescribeBest() string {
	if m.BestKnown {
		return fmt.Sprintf("best confidence ~%.2f", m.BestConfidence)
	}
	return "below floor (no match at any level)"
}
