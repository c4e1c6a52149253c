package detector

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface. It plays
// back a scripted sequence of per-frame detections, or a fixed result.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	script [][]HandLandmarks
	index  int
	err    error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.script = nil
}

// SetScript sets a per-frame sequence of detections. Each Detect call
// consumes one entry; the last entry repeats once the script is exhausted.
// A nil entry means no hand detected for that frame.
func (m *MockDetector) SetScript(frames [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = frames
	m.index = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next scripted result, the fixed hands, or the error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) > 0 {
		i := m.index
		if i >= len(m.script) {
			i = len(m.script) - 1
		} else {
			m.index++
		}
		return m.script[i], nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Fixture poses below are laid out in a 640x480 frame and converted to the
// detector's normalized coordinates. Image-space y grows downward, so a
// finger pointing up has decreasing y from knuckle to tip.

// FixtureWidth and FixtureHeight are the frame dimensions the landmark
// fixtures are designed for.
const (
	FixtureWidth  = 640
	FixtureHeight = 480
)

// NeutralHandLandmarks returns an open relaxed hand that triggers no gesture.
func NeutralHandLandmarks() HandLandmarks {
	return landmarksFromPixels(neutralPixels())
}

// PinchIndexLandmarks returns a hand with thumb and index fingertips pinched
// together, the pose for a left-button press.
func PinchIndexLandmarks() HandLandmarks {
	px := neutralPixels()
	px[ThumbTip] = image.Point{X: 365, Y: 205}
	px[ThumbIP] = image.Point{X: 385, Y: 250}
	return landmarksFromPixels(px)
}

// PinchMiddleLandmarks returns a hand with thumb and middle fingertips
// pinched together, the pose for a right-button press.
func PinchMiddleLandmarks() HandLandmarks {
	px := neutralPixels()
	px[ThumbTip] = image.Point{X: 325, Y: 185}
	px[ThumbIP] = image.Point{X: 365, Y: 245}
	return landmarksFromPixels(px)
}

// TwoFingerMoveLandmarks returns a hand with index and middle fingers
// extended side by side, the pose that drives cursor movement. The optional
// shift displaces the whole hand in pixels, for scripting motion.
func TwoFingerMoveLandmarks(shift image.Point) HandLandmarks {
	px := neutralPixels()
	px[IndexMCP] = image.Point{X: 340, Y: 297}
	px[IndexPIP] = image.Point{X: 338, Y: 252}
	px[IndexDIP] = image.Point{X: 334, Y: 222}
	px[IndexTip] = image.Point{X: 330, Y: 195}
	for i := range px {
		px[i] = px[i].Add(shift)
	}
	return landmarksFromPixels(px)
}

// RingPinkyCurlLandmarks returns a hand with ring and pinky fingers curled
// into the palm, the drag-grip pose.
func RingPinkyCurlLandmarks() HandLandmarks {
	px := neutralPixels()
	px[RingPIP] = image.Point{X: 295, Y: 280}
	px[RingDIP] = image.Point{X: 303, Y: 295}
	px[RingTip] = image.Point{X: 310, Y: 305}
	px[PinkyPIP] = image.Point{X: 268, Y: 295}
	px[PinkyDIP] = image.Point{X: 285, Y: 308}
	px[PinkyTip] = image.Point{X: 300, Y: 315}
	return landmarksFromPixels(px)
}

// ScrollUpLandmarks returns a hand with middle and ring fingers extended
// together pointing up, the upward-scroll pose.
func ScrollUpLandmarks() HandLandmarks {
	px := neutralPixels()
	px[RingMCP] = image.Point{X: 295, Y: 297}
	px[RingPIP] = image.Point{X: 297, Y: 252}
	px[RingDIP] = image.Point{X: 298, Y: 220}
	px[RingTip] = image.Point{X: 300, Y: 190}
	return landmarksFromPixels(px)
}

func neutralPixels() [NumLandmarks]image.Point {
	return [NumLandmarks]image.Point{
		Wrist:     {X: 320, Y: 400},
		ThumbCMC:  {X: 370, Y: 380},
		ThumbMCP:  {X: 395, Y: 360},
		ThumbIP:   {X: 410, Y: 340},
		ThumbTip:  {X: 425, Y: 320},
		IndexMCP:  {X: 350, Y: 300},
		IndexPIP:  {X: 355, Y: 260},
		IndexDIP:  {X: 357, Y: 230},
		IndexTip:  {X: 360, Y: 200},
		MiddleMCP: {X: 320, Y: 295},
		MiddlePIP: {X: 320, Y: 250},
		MiddleDIP: {X: 320, Y: 215},
		MiddleTip: {X: 320, Y: 180},
		RingMCP:   {X: 290, Y: 300},
		RingPIP:   {X: 285, Y: 260},
		RingDIP:   {X: 283, Y: 230},
		RingTip:   {X: 280, Y: 200},
		PinkyMCP:  {X: 260, Y: 310},
		PinkyPIP:  {X: 252, Y: 280},
		PinkyDIP:  {X: 248, Y: 258},
		PinkyTip:  {X: 245, Y: 235},
	}
}

// landmarksFromPixels converts fixture pixel positions to normalized
// landmark coordinates. The half-pixel offset makes the pixel value survive
// the round trip through NewSnapshot's truncating conversion.
func landmarksFromPixels(px [NumLandmarks]image.Point) HandLandmarks {
	lm := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}
	for i, p := range px {
		lm.Points[i] = Point3D{
			X: (float64(p.X) + 0.5) / FixtureWidth,
			Y: (float64(p.Y) + 0.5) / FixtureHeight,
		}
	}
	return lm
}
