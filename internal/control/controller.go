package control

import (
	"image"
	"log"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kevinyhe/handy/internal/gesture"
)

const (
	// ClickCooldown is the minimum time between button state changes.
	ClickCooldown = 300 * time.Millisecond

	// historySize is the number of recent positions blended into each
	// motion delta.
	historySize = 5

	// scrollUnitScale converts a scroll gesture's speed into wheel clicks.
	scrollUnitScale = 0.1

	// minScrollClicks suppresses scroll amounts too small to round to a
	// full wheel click.
	minScrollClicks = 0.5

	minPalmScale = 0.5
	maxPalmScale = 2.0
)

// historyWeights favors recent samples when blending the position history.
var historyWeights = []float64{0.1, 0.15, 0.2, 0.25, 0.3}

// Controller drives a Sink from per-frame gesture maps and pointer
// positions. It holds the button and motion state across frames and is not
// safe for concurrent use; the pipeline calls Update from a single
// goroutine.
type Controller struct {
	config *gesture.Config
	sink   Sink

	lastRaw   *image.Point
	history   []image.Point
	lastDelta [2]float64

	leftDown   bool
	rightDown  bool
	lastChange time.Time

	now func() time.Time
}

// NewController creates a controller reading live settings from cfg and
// emitting actions to sink.
func NewController(cfg *gesture.Config, sink Sink) *Controller {
	return &Controller{
		config: cfg,
		sink:   sink,
		now:    time.Now,
	}
}

// Moving reports whether the last frame emitted a motion action.
func (c *Controller) Moving() bool {
	return c.lastDelta[0] != 0 || c.lastDelta[1] != 0
}

// Update advances the controller by one frame. present reports whether a
// hand was detected; pos is the smoothed pointer position and palmSize the
// hand's apparent size in pixels, both ignored when present is false. The
// returned slice lists the actions emitted this frame in order.
func (c *Controller) Update(present bool, pos image.Point, palmSize float64, gestures gesture.Map) []Action {
	if !present {
		c.lastRaw = nil
		c.history = c.history[:0]
		c.lastDelta = [2]float64{}
		return nil
	}

	// First frame after acquiring the hand seeds the state without
	// emitting anything. A delta against a stale position would teleport
	// the cursor.
	if c.lastRaw == nil {
		p := pos
		c.lastRaw = &p
		c.history = c.history[:0]
		for i := 0; i < historySize; i++ {
			c.history = append(c.history, pos)
		}
		c.lastDelta = [2]float64{}
		return nil
	}

	cfg := c.config.Snapshot()
	var actions []Action

	if a, ok := c.updateMotion(pos, palmSize, gestures, cfg); ok {
		actions = append(actions, a)
	}
	*c.lastRaw = pos

	actions = append(actions, c.updateButtons(gestures)...)

	if a, ok := c.updateScroll(gestures); ok {
		actions = append(actions, a)
	}
	return actions
}

func (c *Controller) updateMotion(pos image.Point, palmSize float64, gestures gesture.Map, cfg gesture.Settings) (Action, bool) {
	_, move := gestures[gesture.Move]
	_, drag := gestures[gesture.Drag]
	_, left := gestures[gesture.LeftClick]
	_, right := gestures[gesture.RightClick]
	clickActive := left || right || c.leftDown || c.rightDown

	// Drag moves the cursor only while something is actually being
	// dragged.
	if !move && !(drag && clickActive) {
		c.lastDelta = [2]float64{}
		return Action{}, false
	}

	c.history = append(c.history, pos)
	if len(c.history) > historySize {
		c.history = c.history[len(c.history)-historySize:]
	}

	xs := make([]float64, len(c.history))
	ys := make([]float64, len(c.history))
	for i, p := range c.history {
		xs[i] = float64(p.X)
		ys[i] = float64(p.Y)
	}
	sx := stat.Mean(xs, historyWeights[:len(xs)])
	sy := stat.Mean(ys, historyWeights[:len(ys)])

	sens := cfg.Sensitivity * palmScale(cfg.BasePalmSize, palmSize)

	// The camera frame is mirrored and its y axis grows downward, so both
	// axes invert between pointer space and screen space.
	dx := applyDeadZone(-(sx-float64(c.lastRaw.X))*sens, cfg.DeadZone)
	dy := applyDeadZone(-(sy-float64(c.lastRaw.Y))*sens, cfg.DeadZone)

	if dx == 0 && dy == 0 {
		c.lastDelta = [2]float64{}
		return Action{}, false
	}

	outX := dx*(1-cfg.Smoothing) + c.lastDelta[0]*cfg.Smoothing
	outY := dy*(1-cfg.Smoothing) + c.lastDelta[1]*cfg.Smoothing
	c.lastDelta = [2]float64{dx, dy}

	if err := c.sink.MoveRelative(outX, outY); err != nil {
		log.Printf("control: move failed: %v", err)
	}
	return Action{Type: ActionMove, DX: outX, DY: outY}, true
}

func (c *Controller) updateButtons(gestures gesture.Map) []Action {
	if c.now().Sub(c.lastChange) < ClickCooldown {
		return nil
	}
	var actions []Action
	_, left := gestures[gesture.LeftClick]
	_, right := gestures[gesture.RightClick]

	if a, ok := c.setButton(ButtonLeft, &c.leftDown, left); ok {
		actions = append(actions, a)
	}
	if a, ok := c.setButton(ButtonRight, &c.rightDown, right); ok {
		actions = append(actions, a)
	}
	return actions
}

func (c *Controller) setButton(b Button, held *bool, want bool) (Action, bool) {
	if want == *held {
		return Action{}, false
	}
	*held = want
	c.lastChange = c.now()
	if want {
		if err := c.sink.ButtonDown(b); err != nil {
			log.Printf("control: %s down failed: %v", b, err)
		}
		return Action{Type: ActionButtonDown, Button: b}, true
	}
	if err := c.sink.ButtonUp(b); err != nil {
		log.Printf("control: %s up failed: %v", b, err)
	}
	return Action{Type: ActionButtonUp, Button: b}, true
}

func (c *Controller) updateScroll(gestures gesture.Map) (Action, bool) {
	res, ok := gestures[gesture.Scroll]
	if !ok {
		return Action{}, false
	}
	amount := res.ScrollDirection * scrollUnitScale
	if math.Abs(amount) <= minScrollClicks {
		return Action{}, false
	}
	// The gesture reports negative for upward motion; wheel clicks are
	// positive upward.
	clicks := int(math.Round(-amount))
	if err := c.sink.Scroll(clicks); err != nil {
		log.Printf("control: scroll failed: %v", err)
	}
	return Action{Type: ActionScroll, Amount: clicks}, true
}

// palmScale compensates sensitivity for hand distance from the camera. A
// hand closer than the baseline appears larger and gets a smaller scale.
func palmScale(base, palm float64) float64 {
	if palm <= 0 || base <= 0 {
		return 1
	}
	s := base / palm
	if s < minPalmScale {
		return minPalmScale
	}
	if s > maxPalmScale {
		return maxPalmScale
	}
	return s
}

// applyDeadZone suppresses deltas below dz and shrinks the rest toward zero
// by dz, so output stays continuous at the boundary.
func applyDeadZone(v, dz float64) float64 {
	a := math.Abs(v)
	if a < dz {
		return 0
	}
	return math.Copysign(a-dz, v)
}
