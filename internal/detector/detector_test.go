package detector

import (
	"errors"
	"image"
	"math"
	"testing"
)

const epsilon = 1e-9

func TestNewSnapshot_PixelConversion(t *testing.T) {
	hand := NeutralHandLandmarks()
	snap := NewSnapshot(&hand, FixtureWidth, FixtureHeight)
	if snap == nil {
		t.Fatal("expected snapshot, got nil")
	}

	// Fixture coordinates must survive the normalized round trip exactly.
	want := neutralPixels()
	for i := 0; i < NumLandmarks; i++ {
		got, ok := snap.Point(i)
		if !ok {
			t.Fatalf("landmark %d missing from snapshot", i)
		}
		if got != want[i] {
			t.Errorf("landmark %d: got %v, want %v", i, got, want[i])
		}
	}

	if snap.PalmSize() <= 0 {
		t.Errorf("expected positive palm size, got %f", snap.PalmSize())
	}
}

func TestNewSnapshot_PalmCenterIsMiddleMCP(t *testing.T) {
	hand := NeutralHandLandmarks()
	snap := NewSnapshot(&hand, FixtureWidth, FixtureHeight)

	palm, ok := snap.Point(PalmCenter)
	if !ok {
		t.Fatal("palm center missing from snapshot")
	}
	mcp, _ := snap.Point(MiddleMCP)
	if palm != mcp {
		t.Errorf("palm center %v does not match middle MCP %v", palm, mcp)
	}
}

func TestNewSnapshot_NilAndDegenerate(t *testing.T) {
	hand := NeutralHandLandmarks()

	if snap := NewSnapshot(nil, 640, 480); snap != nil {
		t.Error("expected nil snapshot for nil hand")
	}
	if snap := NewSnapshot(&hand, 0, 480); snap != nil {
		t.Error("expected nil snapshot for zero width")
	}
	if snap := NewSnapshot(&hand, 640, -1); snap != nil {
		t.Error("expected nil snapshot for negative height")
	}
}

func TestSnapshot_PalmSizeMeasure(t *testing.T) {
	// Palm width 100 (3-4-5 scaled), palm height 100, mean 100.
	points := map[int]image.Point{
		ThumbCMC: {X: 0, Y: 0},
		PinkyMCP: {X: 60, Y: 80},
		Wrist:    {X: 0, Y: 0},
		IndexMCP: {X: 0, Y: 100},
	}
	got := palmSize(points)
	if math.Abs(got-100) > epsilon {
		t.Errorf("expected palm size 100, got %f", got)
	}
}

func TestSnapshot_MissingPoints(t *testing.T) {
	snap := SnapshotFromPoints(map[int]image.Point{
		ThumbTip: {X: 100, Y: 100},
		IndexTip: {X: 105, Y: 102},
	}, 100)

	if _, ok := snap.Point(MiddleTip); ok {
		t.Error("expected missing middle tip")
	}

	// All-or-nothing: one absent landmark fails the whole request.
	if pts, ok := snap.Points(ThumbTip, IndexTip, MiddleTip); ok || pts != nil {
		t.Errorf("expected no points when one is missing, got %v", pts)
	}

	pts, ok := snap.Points(ThumbTip, IndexTip)
	if !ok || len(pts) != 2 {
		t.Fatalf("expected both present points, got %v ok=%v", pts, ok)
	}
}

func TestSnapshot_NilReceiver(t *testing.T) {
	var snap *Snapshot
	if _, ok := snap.Point(Wrist); ok {
		t.Error("nil snapshot should carry no points")
	}
	if _, ok := snap.Points(Wrist); ok {
		t.Error("nil snapshot should carry no points")
	}
	if snap.PalmSize() != 0 {
		t.Error("nil snapshot should have zero palm size")
	}
}

func TestSnapshotFromPoints_DerivesPalmCenter(t *testing.T) {
	snap := SnapshotFromPoints(map[int]image.Point{
		MiddleMCP: {X: 320, Y: 295},
	}, 100)

	palm, ok := snap.Point(PalmCenter)
	if !ok {
		t.Fatal("expected derived palm center")
	}
	if palm != (image.Point{X: 320, Y: 295}) {
		t.Errorf("unexpected palm center %v", palm)
	}
}

func TestMockDetector_Script(t *testing.T) {
	mock := NewMockDetector()
	hand := NeutralHandLandmarks()

	mock.SetScript([][]HandLandmarks{
		{hand},
		nil,
		{hand},
	})

	want := []int{1, 0, 1, 1} // last entry repeats
	for i, n := range want {
		hands, err := mock.Detect(nil)
		if err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
		if len(hands) != n {
			t.Errorf("frame %d: expected %d hands, got %d", i, n, len(hands))
		}
	}
}

func TestMockDetector_Error(t *testing.T) {
	mock := NewMockDetector()
	wantErr := errors.New("camera unplugged")
	mock.SetError(wantErr)

	if _, err := mock.Detect(nil); !errors.Is(err, wantErr) {
		t.Errorf("expected configured error, got %v", err)
	}
}

func TestFixtures_PalmSizeStable(t *testing.T) {
	// All poses are the same hand at the same distance; palm size should
	// stay close to the neutral measurement since clicking and curling do
	// not move the palm landmarks.
	neutral := NeutralHandLandmarks()
	base := NewSnapshot(&neutral, FixtureWidth, FixtureHeight).PalmSize()

	poses := map[string]HandLandmarks{
		"pinch_index":     PinchIndexLandmarks(),
		"pinch_middle":    PinchMiddleLandmarks(),
		"ring_pinky_curl": RingPinkyCurlLandmarks(),
		"scroll_up":       ScrollUpLandmarks(),
	}
	for name, hand := range poses {
		snap := NewSnapshot(&hand, FixtureWidth, FixtureHeight)
		if math.Abs(snap.PalmSize()-base) > base*0.05 {
			t.Errorf("%s: palm size %f drifted from %f", name, snap.PalmSize(), base)
		}
	}
}
