package screen

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"runtime"

	"github.com/go-vgo/robotgo"
	"github.com/vcaesar/gcv"
	_ "golang.org/x/image/bmp"
)

// RobotProbe is the production Probe: robotgo for input, capture, and
// clipboard; gcv (OpenCV template correlation) for the match primitive.
type RobotProbe struct{}

// NewRobotProbe returns the live-desktop probe.
func NewRobotProbe() *RobotProbe {
	return &RobotProbe{}
}

var _ Probe = (*RobotProbe)(nil)

// Locate captures the screen and correlates the template against it.
func (p *RobotProbe) Locate(templatePath string, confidence float64) (Point, bool, error) {
	f, err := os.Open(templatePath)
	if err != nil {
		return Point{}, false, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	tpl, _, err := image.Decode(f)
	if err != nil {
		return Point{}, false, fmt.Errorf("decode template %s: %w", templatePath, err)
	}

	scr := robotgo.CaptureImg()
	if scr == nil {
		return Point{}, false, fmt.Errorf("screen capture failed")
	}

	_, maxVal, _, maxLoc := gcv.FindImg(tpl, scr)
	if float64(maxVal) < confidence {
		return Point{}, false, nil
	}

	b := tpl.Bounds()
	center := Point{X: maxLoc.X + b.Dx()/2, Y: maxLoc.Y + b.Dy()/2}
	return center, true, nil
}

func (p *RobotProbe) MoveSmooth(x, y int, seconds float64) error {
	if seconds <= 0 {
		robotgo.Move(x, y)
		return nil
	}
	// robotgo's low/high speed pair; derived from the requested duration so
	// cursor_speed from the run config keeps its meaning.
	robotgo.MoveSmooth(x, y, seconds, seconds*2)
	return nil
}

func (p *RobotProbe) MoveRelative(dx, dy int) error {
	x, y := robotgo.Location()
	robotgo.Move(x+dx, y+dy)
	return nil
}

func (p *RobotProbe) Position() (Point, error) {
	x, y := robotgo.Location()
	return Point{X: x, Y: y}, nil
}

func (p *RobotProbe) Click() error {
	robotgo.Click("left", false)
	return nil
}

func (p *RobotProbe) KeyTap(key string, mods ...string) error {
	args := make([]interface{}, len(mods))
	for i, m := range mods {
		args[i] = m
	}
	return robotgo.KeyTap(key, args...)
}

func (p *RobotProbe) ReadClipboard() (string, error) {
	return robotgo.ReadAll()
}

func (p *RobotProbe) WriteClipboard(text string) error {
	return robotgo.WriteAll(text)
}

// PasteModifier returns the platform paste chord modifier.
func PasteModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}
