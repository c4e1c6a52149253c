// Package injector implements OS pointer injection on top of robotgo.
package injector

import (
	"fmt"
	"math"

	"github.com/go-vgo/robotgo"

	"github.com/kevinyhe/handy/internal/control"
)

// Robotgo injects pointer actions into the host OS. Fractional move deltas
// accumulate across calls so slow cursor motion is not truncated away.
type Robotgo struct {
	fracX float64
	fracY float64
}

// New returns a Robotgo sink.
func New() *Robotgo {
	return &Robotgo{}
}

func (r *Robotgo) MoveRelative(dx, dy float64) error {
	dx += r.fracX
	dy += r.fracY
	ix := int(math.Trunc(dx))
	iy := int(math.Trunc(dy))
	r.fracX = dx - float64(ix)
	r.fracY = dy - float64(iy)
	if ix == 0 && iy == 0 {
		return nil
	}
	robotgo.MoveRelative(ix, iy)
	return nil
}

func (r *Robotgo) ButtonDown(b control.Button) error {
	return r.toggle(b, "down")
}

func (r *Robotgo) ButtonUp(b control.Button) error {
	return r.toggle(b, "up")
}

func (r *Robotgo) toggle(b control.Button, dir string) error {
	switch b {
	case control.ButtonLeft, control.ButtonRight:
	default:
		return fmt.Errorf("injector: unknown button %q", b)
	}
	if err := robotgo.Toggle(string(b), dir); err != nil {
		return fmt.Errorf("injector: toggle %s %s: %w", b, dir, err)
	}
	return nil
}

func (r *Robotgo) Scroll(clicks int) error {
	if clicks == 0 {
		return nil
	}
	// robotgo scrolls up for positive counts, matching the sink contract.
	robotgo.Scroll(0, clicks)
	return nil
}
