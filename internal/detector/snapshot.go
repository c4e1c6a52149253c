package detector

import (
	"image"
	"math"
)

// Snapshot is one frame's set of named hand landmark points in pixel
// coordinates, plus the measured palm size. It is immutable once built and
// valid only for the frame that produced it. Classifiers that need points a
// snapshot does not carry must decline rather than substitute defaults.
type Snapshot struct {
	points   map[int]image.Point
	palmSize float64
}

// NewSnapshot builds a snapshot from detected landmarks and frame dimensions.
// Normalized landmark coordinates are converted to integer pixels, the derived
// palm center point is added, and the palm size is measured. Returns nil for a
// nil hand or degenerate frame dimensions.
func NewSnapshot(hand *HandLandmarks, width, height int) *Snapshot {
	if hand == nil || width <= 0 || height <= 0 {
		return nil
	}

	points := make(map[int]image.Point, NumLandmarks+1)
	for i := 0; i < NumLandmarks; i++ {
		points[i] = image.Point{
			X: int(hand.Points[i].X * float64(width)),
			Y: int(hand.Points[i].Y * float64(height)),
		}
	}
	points[PalmCenter] = points[MiddleMCP]

	return &Snapshot{
		points:   points,
		palmSize: palmSize(points),
	}
}

// SnapshotFromPoints builds a snapshot directly from pixel points. Intended
// for tests and fixtures; the map is copied so the snapshot stays immutable.
func SnapshotFromPoints(points map[int]image.Point, palmSize float64) *Snapshot {
	copied := make(map[int]image.Point, len(points))
	for id, p := range points {
		copied[id] = p
	}
	if _, ok := copied[PalmCenter]; !ok {
		if mcp, ok := copied[MiddleMCP]; ok {
			copied[PalmCenter] = mcp
		}
	}
	return &Snapshot{points: copied, palmSize: palmSize}
}

// Point returns the pixel position of a landmark, or ok=false if the
// snapshot does not carry it.
func (s *Snapshot) Point(id int) (image.Point, bool) {
	if s == nil {
		return image.Point{}, false
	}
	p, ok := s.points[id]
	return p, ok
}

// Points returns the pixel positions for all requested landmarks. If any one
// is missing it returns ok=false and no points, so callers never evaluate
// with a partial set.
func (s *Snapshot) Points(ids ...int) ([]image.Point, bool) {
	if s == nil {
		return nil, false
	}
	result := make([]image.Point, len(ids))
	for i, id := range ids {
		p, ok := s.points[id]
		if !ok {
			return nil, false
		}
		result[i] = p
	}
	return result, true
}

// PalmSize returns the measured palm size for this frame in pixels.
func (s *Snapshot) PalmSize() float64 {
	if s == nil {
		return 0
	}
	return s.palmSize
}

// palmSize measures apparent hand size as the mean of palm width (thumb CMC
// to pinky MCP) and palm height (wrist to index MCP). Both are pixel
// distances, so the result shrinks as the hand moves away from the camera.
func palmSize(points map[int]image.Point) float64 {
	width := pixelDistance(points[ThumbCMC], points[PinkyMCP])
	height := pixelDistance(points[Wrist], points[IndexMCP])
	return (width + height) / 2
}

// pixelDistance calculates the Euclidean distance between two pixel points.
func pixelDistance(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
