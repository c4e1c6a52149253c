package control

import (
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"github.com/kevinyhe/handy/internal/gesture"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestController(s gesture.Settings) (*Controller, *RecordingSink, *fakeClock) {
	cfg := gesture.NewConfig(s)
	sink := NewRecordingSink()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := NewController(cfg, sink)
	c.now = clock.now
	return c, sink, clock
}

// flatSettings removes sensitivity scaling, smoothing, and the dead zone so
// motion math is easy to check by hand.
func flatSettings() gesture.Settings {
	s := gesture.DefaultSettings()
	s.Sensitivity = 1.0
	s.Smoothing = 0
	s.DeadZone = 0
	s.BasePalmSize = 0
	return s
}

func moveMap() gesture.Map {
	return gesture.Map{gesture.Move: {Confidence: 0.9}}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFirstFrameEmitsNothing(t *testing.T) {
	c, sink, _ := newTestController(flatSettings())

	acts := c.Update(true, image.Pt(1000, 1000), 100, moveMap())
	if len(acts) != 0 {
		t.Fatalf("acquisition frame emitted %v", acts)
	}
	if got := sink.Actions(); len(got) != 0 {
		t.Fatalf("sink received %v on acquisition frame", got)
	}
}

func TestMotionDeltaWeightedAndInverted(t *testing.T) {
	c, _, _ := newTestController(flatSettings())

	c.Update(true, image.Pt(100, 100), 100, moveMap())
	acts := c.Update(true, image.Pt(110, 90), 100, moveMap())

	if len(acts) != 1 || acts[0].Type != ActionMove {
		t.Fatalf("got %v, want single move", acts)
	}
	// History is four seeded samples plus the new one, weighted
	// 0.1/0.15/0.2/0.25/0.3: smoothed = old*0.7 + new*0.3.
	if !near(acts[0].DX, -3) || !near(acts[0].DY, 3) {
		t.Fatalf("delta = (%v, %v), want (-3, 3)", acts[0].DX, acts[0].DY)
	}
	if !c.Moving() {
		t.Fatal("Moving() = false after a motion frame")
	}
}

func TestNoMotionWithoutMoveGesture(t *testing.T) {
	c, sink, _ := newTestController(flatSettings())

	c.Update(true, image.Pt(100, 100), 100, moveMap())
	acts := c.Update(true, image.Pt(150, 150), 100, gesture.Map{})
	if len(acts) != 0 {
		t.Fatalf("idle hand emitted %v", acts)
	}
	if c.Moving() {
		t.Fatal("Moving() = true on an idle frame")
	}
	if got := sink.Actions(); len(got) != 0 {
		t.Fatalf("sink received %v while idle", got)
	}
}

func TestDeadZoneShrinksDelta(t *testing.T) {
	s := flatSettings()
	s.DeadZone = 1.0
	c, _, _ := newTestController(s)

	c.Update(true, image.Pt(100, 100), 100, moveMap())
	acts := c.Update(true, image.Pt(110, 90), 100, moveMap())
	if len(acts) != 1 {
		t.Fatalf("got %v", acts)
	}
	// Raw delta (-3, 3) loses one unit per axis.
	if !near(acts[0].DX, -2) || !near(acts[0].DY, 2) {
		t.Fatalf("delta = (%v, %v), want (-2, 2)", acts[0].DX, acts[0].DY)
	}
}

func TestDeadZoneSuppressesJitter(t *testing.T) {
	s := flatSettings()
	s.DeadZone = 5.0
	c, _, _ := newTestController(s)

	c.Update(true, image.Pt(100, 100), 100, moveMap())
	acts := c.Update(true, image.Pt(101, 101), 100, moveMap())
	if len(acts) != 0 {
		t.Fatalf("jitter emitted %v", acts)
	}
}

func TestSmoothingBlendsPreviousDelta(t *testing.T) {
	s := flatSettings()
	s.Smoothing = 0.5
	c, _, _ := newTestController(s)

	c.Update(true, image.Pt(100, 100), 100, moveMap())
	acts := c.Update(true, image.Pt(110, 100), 100, moveMap())
	if len(acts) != 1 || !near(acts[0].DX, -1.5) {
		t.Fatalf("first move = %v, want dx -1.5", acts)
	}

	// Holding still: the smoothed position keeps trailing the raw one, and
	// the previous unblended delta pulls the output the other way.
	acts = c.Update(true, image.Pt(110, 100), 100, moveMap())
	if len(acts) != 1 || !near(acts[0].DX, 0.75) {
		t.Fatalf("second move = %v, want dx 0.75", acts)
	}
}

func TestPalmScale(t *testing.T) {
	cases := []struct {
		base, palm, want float64
	}{
		{100, 100, 1},
		{100, 50, 2},
		{100, 10, 2},
		{100, 400, 0.5},
		{100, 125, 0.8},
		{0, 100, 1},
		{100, 0, 1},
	}
	for _, tc := range cases {
		if got := palmScale(tc.base, tc.palm); !near(got, tc.want) {
			t.Errorf("palmScale(%v, %v) = %v, want %v", tc.base, tc.palm, got, tc.want)
		}
	}
}

func TestPalmSizeScalesSensitivity(t *testing.T) {
	s := flatSettings()
	s.BasePalmSize = 100
	c, _, _ := newTestController(s)

	// Hand twice the baseline size halves the effective sensitivity.
	c.Update(true, image.Pt(100, 100), 200, moveMap())
	acts := c.Update(true, image.Pt(110, 100), 200, moveMap())
	if len(acts) != 1 || !near(acts[0].DX, -1.5) {
		t.Fatalf("got %v, want dx -1.5", acts)
	}
}

func TestClickPressAndCooldown(t *testing.T) {
	c, sink, clock := newTestController(flatSettings())
	click := gesture.Map{gesture.LeftClick: {Confidence: 0.9}}

	c.Update(true, image.Pt(100, 100), 100, click)
	acts := c.Update(true, image.Pt(100, 100), 100, click)
	if len(acts) != 1 || acts[0].Type != ActionButtonDown || acts[0].Button != ButtonLeft {
		t.Fatalf("got %v, want left button down", acts)
	}

	// Within the cooldown the release is ignored.
	clock.advance(100 * time.Millisecond)
	acts = c.Update(true, image.Pt(100, 100), 100, gesture.Map{})
	if len(acts) != 0 {
		t.Fatalf("release inside cooldown emitted %v", acts)
	}

	clock.advance(ClickCooldown)
	acts = c.Update(true, image.Pt(100, 100), 100, gesture.Map{})
	if len(acts) != 1 || acts[0].Type != ActionButtonUp || acts[0].Button != ButtonLeft {
		t.Fatalf("got %v, want left button up", acts)
	}

	want := []ActionType{ActionButtonDown, ActionButtonUp}
	got := sink.Actions()
	if len(got) != len(want) {
		t.Fatalf("sink saw %v", got)
	}
	for i, a := range got {
		if a.Type != want[i] {
			t.Fatalf("sink action %d = %v, want %v", i, a.Type, want[i])
		}
	}
}

func TestRightClickUsesRightButton(t *testing.T) {
	c, _, _ := newTestController(flatSettings())
	click := gesture.Map{gesture.RightClick: {Confidence: 0.9}}

	c.Update(true, image.Pt(100, 100), 100, click)
	acts := c.Update(true, image.Pt(100, 100), 100, click)
	if len(acts) != 1 || acts[0].Type != ActionButtonDown || acts[0].Button != ButtonRight {
		t.Fatalf("got %v, want right button down", acts)
	}
}

func TestDragAloneDoesNotMove(t *testing.T) {
	c, _, _ := newTestController(flatSettings())
	drag := gesture.Map{gesture.Drag: {Confidence: 0.8}}

	c.Update(true, image.Pt(100, 100), 100, drag)
	acts := c.Update(true, image.Pt(120, 120), 100, drag)
	if len(acts) != 0 {
		t.Fatalf("drag without a click emitted %v", acts)
	}
}

func TestDragWithHeldButtonMoves(t *testing.T) {
	c, _, clock := newTestController(flatSettings())
	click := gesture.Map{gesture.LeftClick: {Confidence: 0.9}}
	drag := gesture.Map{gesture.Drag: {Confidence: 0.8}}

	c.Update(true, image.Pt(100, 100), 100, click)
	c.Update(true, image.Pt(100, 100), 100, click)

	// The click gesture fades but the button is still held inside the
	// cooldown, so the drag carries the cursor.
	clock.advance(100 * time.Millisecond)
	acts := c.Update(true, image.Pt(110, 90), 100, drag)
	if len(acts) != 1 || acts[0].Type != ActionMove {
		t.Fatalf("got %v, want a move", acts)
	}
	if !near(acts[0].DX, -3) || !near(acts[0].DY, 3) {
		t.Fatalf("delta = (%v, %v), want (-3, 3)", acts[0].DX, acts[0].DY)
	}
}

func TestScrollAmounts(t *testing.T) {
	cases := []struct {
		direction float64
		clicks    int
		emitted   bool
	}{
		{-30, 3, true},
		{-12, 1, true},
		{-10, 1, true},
		{20, -2, true},
		{-4, 0, false},
		{5, 0, false},
		{0, 0, false},
	}
	for _, tc := range cases {
		c, _, _ := newTestController(flatSettings())
		m := gesture.Map{gesture.Scroll: {Confidence: 0.9, ScrollDirection: tc.direction}}
		c.Update(true, image.Pt(100, 100), 100, m)
		acts := c.Update(true, image.Pt(100, 100), 100, m)
		if !tc.emitted {
			if len(acts) != 0 {
				t.Errorf("direction %v emitted %v", tc.direction, acts)
			}
			continue
		}
		if len(acts) != 1 || acts[0].Type != ActionScroll || acts[0].Amount != tc.clicks {
			t.Errorf("direction %v = %v, want %d clicks", tc.direction, acts, tc.clicks)
		}
	}
}

func TestActionOrdering(t *testing.T) {
	c, _, _ := newTestController(flatSettings())
	m := gesture.Map{
		gesture.Move:      {Confidence: 0.9},
		gesture.LeftClick: {Confidence: 0.9},
		gesture.Scroll:    {Confidence: 0.9, ScrollDirection: -30},
	}

	c.Update(true, image.Pt(100, 100), 100, m)
	acts := c.Update(true, image.Pt(110, 90), 100, m)
	want := []ActionType{ActionMove, ActionButtonDown, ActionScroll}
	if len(acts) != len(want) {
		t.Fatalf("got %v, want %d actions", acts, len(want))
	}
	for i, a := range acts {
		if a.Type != want[i] {
			t.Fatalf("action %d = %v, want %v", i, a.Type, want[i])
		}
	}
}

func TestHandLossResetsMotion(t *testing.T) {
	c, _, _ := newTestController(flatSettings())

	c.Update(true, image.Pt(100, 100), 100, moveMap())
	c.Update(true, image.Pt(110, 90), 100, moveMap())

	acts := c.Update(false, image.Point{}, 0, nil)
	if len(acts) != 0 {
		t.Fatalf("hand loss emitted %v", acts)
	}
	if c.Moving() {
		t.Fatal("Moving() = true after hand loss")
	}

	// Reacquiring far away seeds fresh state instead of jumping.
	acts = c.Update(true, image.Pt(600, 400), 100, moveMap())
	if len(acts) != 0 {
		t.Fatalf("reacquisition emitted %v", acts)
	}
	acts = c.Update(true, image.Pt(610, 390), 100, moveMap())
	if len(acts) != 1 || !near(acts[0].DX, -3) || !near(acts[0].DY, 3) {
		t.Fatalf("post-reacquisition move = %v, want (-3, 3)", acts)
	}
}

func TestSinkFailureKeepsState(t *testing.T) {
	c, sink, clock := newTestController(flatSettings())
	click := gesture.Map{gesture.LeftClick: {Confidence: 0.9}}

	c.Update(true, image.Pt(100, 100), 100, click)
	sink.SetError(errors.New("injection refused"))
	acts := c.Update(true, image.Pt(100, 100), 100, click)
	if len(acts) != 1 || acts[0].Type != ActionButtonDown {
		t.Fatalf("got %v, want button down despite sink failure", acts)
	}

	// The press is tracked even though injection failed, so the release
	// still fires once the gesture ends.
	sink.SetError(nil)
	clock.advance(ClickCooldown + time.Millisecond)
	acts = c.Update(true, image.Pt(100, 100), 100, gesture.Map{})
	if len(acts) != 1 || acts[0].Type != ActionButtonUp {
		t.Fatalf("got %v, want button up", acts)
	}
}
