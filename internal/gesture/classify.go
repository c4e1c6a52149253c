package gesture

import (
	"image"
	"math"

	"github.com/kevinyhe/handy/internal/detector"
)

// Name identifies a gesture.
type Name string

const (
	LeftClick  Name = "left_click"
	RightClick Name = "right_click"
	Move       Name = "move"
	Drag       Name = "drag"
	Scroll     Name = "scroll"
)

// Result is one classifier's verdict for a frame. Confidence is in [0,1].
// ScrollDirection is only set by the scroll classifier: its sign encodes
// direction (negative = pointing up) and its magnitude the scroll speed, so
// it is not confidence-bounded.
type Result struct {
	Confidence      float64 `json:"confidence"`
	ScrollDirection float64 `json:"scroll_direction,omitempty"`
}

// Map is the merged set of classifier results for one frame, at most one
// entry per gesture name. Gestures may co-occur (move alongside drag).
type Map map[Name]Result

// Classifier evaluates one gesture against a snapshot. Implementations must
// be side-effect-free: they are invoked concurrently over the same immutable
// snapshot. A classifier that is missing any required landmark declines
// (ok=false) rather than evaluating with defaults.
type Classifier interface {
	Name() Name
	Detect(snap *detector.Snapshot, cfg Settings) (Result, bool)
}

// parallelTolerance is the maximum angle difference, in radians, between
// corresponding phalanx segments of two fingers still considered parallel.
const parallelTolerance = 0.25

// maxStraightnessDev caps the angular deviation between a finger's two
// phalanx segments when computing the scroll straightness score.
const maxStraightnessDev = math.Pi / 4

// pinchClassifier detects two fingertips held close together, the gesture
// for a button press-and-hold.
type pinchClassifier struct {
	name      Name
	a, b      int
	threshold func(Settings) float64
}

func newLeftClickClassifier() Classifier {
	return &pinchClassifier{
		name:      LeftClick,
		a:         detector.ThumbTip,
		b:         detector.IndexTip,
		threshold: func(s Settings) float64 { return s.LeftClickThreshold },
	}
}

func newRightClickClassifier() Classifier {
	return &pinchClassifier{
		name:      RightClick,
		a:         detector.ThumbTip,
		b:         detector.MiddleTip,
		threshold: func(s Settings) float64 { return s.RightClickThreshold },
	}
}

func (c *pinchClassifier) Name() Name { return c.name }

func (c *pinchClassifier) Detect(snap *detector.Snapshot, cfg Settings) (Result, bool) {
	pts, ok := snap.Points(c.a, c.b)
	if !ok {
		return Result{}, false
	}

	trueThreshold := c.threshold(cfg) * snap.PalmSize()
	if trueThreshold <= 0 {
		return Result{}, false
	}

	d := dist(pts[0], pts[1])
	if d >= trueThreshold {
		return Result{}, false
	}
	return Result{Confidence: 1.0 - d/trueThreshold}, true
}

// moveClassifier detects index and middle fingers extended side by side.
type moveClassifier struct{}

func newMoveClassifier() Classifier { return moveClassifier{} }

func (moveClassifier) Name() Name { return Move }

func (moveClassifier) Detect(snap *detector.Snapshot, cfg Settings) (Result, bool) {
	pts, ok := snap.Points(
		detector.IndexTip, detector.IndexPIP, detector.IndexMCP,
		detector.MiddleTip, detector.MiddlePIP, detector.MiddleMCP,
	)
	if !ok {
		return Result{}, false
	}
	indexTip, indexPIP, indexMCP := pts[0], pts[1], pts[2]
	middleTip, middlePIP, middleMCP := pts[3], pts[4], pts[5]

	// Both fingers must be roughly parallel: compare the two phalanx
	// segment angles of each finger at both joints.
	topIndex := segmentAngle(indexTip, indexPIP)
	botIndex := segmentAngle(indexMCP, indexPIP)
	topMiddle := segmentAngle(middleTip, middlePIP)
	botMiddle := segmentAngle(middleMCP, middlePIP)

	if math.Abs(topIndex-topMiddle) > parallelTolerance ||
		math.Abs(botIndex-botMiddle) > parallelTolerance {
		return Result{}, false
	}

	mid := image.Point{
		X: (middleTip.X + middlePIP.X) / 2,
		Y: (middleTip.Y + middlePIP.Y) / 2,
	}

	trueThreshold := cfg.MoveThreshold * snap.PalmSize()
	if trueThreshold <= 0 {
		return Result{}, false
	}

	d := dist(indexTip, mid)
	if d >= trueThreshold {
		return Result{}, false
	}
	return Result{Confidence: 1.0 - d/trueThreshold}, true
}

// dragClassifier detects ring and pinky fingers curled into the palm, the
// grip pose that keeps a held button engaged while the hand moves.
type dragClassifier struct{}

func newDragClassifier() Classifier { return dragClassifier{} }

func (dragClassifier) Name() Name { return Drag }

// downConfidence is reported when the pointing-down fallback fires without a
// measurable curl.
const downConfidence = 0.7

func (dragClassifier) Detect(snap *detector.Snapshot, cfg Settings) (Result, bool) {
	pts, ok := snap.Points(
		detector.RingTip, detector.RingMCP,
		detector.PinkyTip, detector.PinkyMCP,
		detector.PalmCenter,
	)
	if !ok {
		return Result{}, false
	}
	ringTip, ringMCP := pts[0], pts[1]
	pinkyTip, pinkyMCP := pts[2], pts[3]
	palm := pts[4]

	// A finger's extended reference length is twice its knuckle-to-palm
	// distance; the curl ratio compares the actual tip distance to that.
	ringRef := 2 * dist(ringMCP, palm)
	pinkyRef := 2 * dist(pinkyMCP, palm)
	if ringRef <= 0 || pinkyRef <= 0 {
		return Result{}, false
	}

	ringRatio := dist(ringTip, palm) / ringRef
	pinkyRatio := dist(pinkyTip, palm) / pinkyRef

	clenchLimit := 2 * cfg.DragThreshold
	clenched := ringRatio < clenchLimit && pinkyRatio < clenchLimit

	// Fallback for camera angles where curl tracking is unreliable: both
	// knuckle-to-tip vectors pointing down (image y increasing) also counts.
	pointingDown := ringTip.Y > ringMCP.Y && pinkyTip.Y > pinkyMCP.Y

	switch {
	case clenched:
		conf := 1.0 - (ringRatio+pinkyRatio)/2
		return Result{Confidence: clamp(conf, 0, 1)}, true
	case pointingDown:
		return Result{Confidence: downConfidence}, true
	default:
		return Result{}, false
	}
}

// scrollClassifier detects middle and ring fingers extended together; the
// straighter the fingers, the faster the scroll.
type scrollClassifier struct{}

func newScrollClassifier() Classifier { return scrollClassifier{} }

func (scrollClassifier) Name() Name { return Scroll }

func (scrollClassifier) Detect(snap *detector.Snapshot, cfg Settings) (Result, bool) {
	pts, ok := snap.Points(
		detector.MiddleTip, detector.MiddlePIP, detector.MiddleMCP,
		detector.RingTip, detector.RingPIP, detector.RingMCP,
	)
	if !ok {
		return Result{}, false
	}
	middleTip, middlePIP, middleMCP := pts[0], pts[1], pts[2]
	ringTip, ringPIP, ringMCP := pts[3], pts[4], pts[5]

	middleUp := middleTip.Y < middlePIP.Y
	ringUp := ringTip.Y < ringPIP.Y
	if middleUp != ringUp {
		return Result{}, false
	}

	topMiddle := segmentAngle(middleTip, middlePIP)
	botMiddle := segmentAngle(middleMCP, middlePIP)
	topRing := segmentAngle(ringTip, ringPIP)
	botRing := segmentAngle(ringMCP, ringPIP)

	if math.Abs(topMiddle-topRing) > parallelTolerance ||
		math.Abs(botMiddle-botRing) > parallelTolerance {
		return Result{}, false
	}

	trueThreshold := cfg.ScrollThreshold * snap.PalmSize()
	if trueThreshold <= 0 {
		return Result{}, false
	}
	d := dist(middleTip, ringTip)
	if d >= trueThreshold {
		return Result{}, false
	}

	// Straightness in [0,1]: 1 for a fully straight finger, falling off
	// linearly until the phalanx segments diverge by pi/4.
	straightness := (straightnessScore(topMiddle, botMiddle) +
		straightnessScore(topRing, botRing)) / 2

	speed := cfg.ScrollBaseSpeed +
		math.Pow(straightness, cfg.ScrollStraightnessFactor)*
			(cfg.ScrollMaxSpeed-cfg.ScrollBaseSpeed)

	direction := speed
	if middleUp {
		direction = -speed
	}

	return Result{
		Confidence:      1.0 - d/trueThreshold,
		ScrollDirection: direction,
	}, true
}

func straightnessScore(top, bottom float64) float64 {
	dev := math.Min(math.Abs(top-bottom), maxStraightnessDev)
	return 1.0 - dev/maxStraightnessDev
}

// segmentAngle returns the unsigned inclination of a phalanx segment in
// [0, pi/2]. A near-vertical segment maps to pi/2 rather than dividing by a
// vanishing x delta.
func segmentAngle(a, b image.Point) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	if dx <= 0.001 {
		return math.Pi / 2
	}
	return math.Atan2(dy, dx)
}

// dist calculates the Euclidean distance between two pixel points.
func dist(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
