// Package pointer tracks the pointer landmark's recent positions and
// produces a jitter-smoothed position for motion control.
package pointer

import (
	"image"
	"time"

	"gonum.org/v1/gonum/stat"
)

// HistorySize is the number of recent raw positions kept for smoothing.
const HistorySize = 5

// smoothingDecay is the per-step weight ratio of the exponentially weighted
// average: each older sample counts 0.7x the one after it.
const smoothingDecay = 0.7

// Tracker maintains a short rolling history of the pointer landmark and an
// exponentially weighted smoothed position. It is owned and mutated by a
// single frame-processing stream and is not safe for concurrent use.
type Tracker struct {
	history    []image.Point // oldest first, newest last
	active     bool
	velocity   [2]float64 // pixels per second
	lastUpdate time.Time

	now func() time.Time
}

// NewTracker creates an empty, inactive tracker.
func NewTracker() *Tracker {
	return &Tracker{
		history: make([]image.Point, 0, HistorySize),
		now:     time.Now,
	}
}

// Update appends a new raw position, dropping the oldest sample beyond the
// history bound, and refreshes the velocity estimate.
func (t *Tracker) Update(pos image.Point) {
	now := t.now()
	if len(t.history) > 0 && !t.lastUpdate.IsZero() {
		if dt := now.Sub(t.lastUpdate).Seconds(); dt > 0 {
			last := t.history[len(t.history)-1]
			t.velocity[0] = float64(pos.X-last.X) / dt
			t.velocity[1] = float64(pos.Y-last.Y) / dt
		}
	}
	t.lastUpdate = now

	if len(t.history) >= HistorySize {
		copy(t.history, t.history[1:])
		t.history = t.history[:HistorySize-1]
	}
	t.history = append(t.history, pos)
}

// SmoothedPosition returns the exponentially weighted average of the
// position history, most recent sample weighted highest. With a single
// sample it is that sample; with none, the zero point.
func (t *Tracker) SmoothedPosition() image.Point {
	n := len(t.history)
	if n == 0 {
		return image.Point{}
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	weights := make([]float64, n)
	w := 1.0
	for i := n - 1; i >= 0; i-- {
		xs[i] = float64(t.history[i].X)
		ys[i] = float64(t.history[i].Y)
		weights[i] = w
		w *= smoothingDecay
	}

	return image.Point{
		X: int(stat.Mean(xs, weights)),
		Y: int(stat.Mean(ys, weights)),
	}
}

// Position returns the most recent raw position and whether one exists.
func (t *Tracker) Position() (image.Point, bool) {
	if len(t.history) == 0 {
		return image.Point{}, false
	}
	return t.history[len(t.history)-1], true
}

// Velocity returns the instantaneous velocity estimate in pixels per second.
func (t *Tracker) Velocity() (vx, vy float64) {
	return t.velocity[0], t.velocity[1]
}

// Moving reports whether the pointer speed exceeds the threshold, in pixels
// per second.
func (t *Tracker) Moving(threshold float64) bool {
	vx, vy := t.velocity[0], t.velocity[1]
	return vx*vx+vy*vy > threshold*threshold
}

// SetActive sets the activation flag. The controller activates the tracker
// while a motion-driving gesture is present.
func (t *Tracker) SetActive(active bool) {
	t.active = active
}

// IsActive reports whether the pointer is currently driving the cursor.
func (t *Tracker) IsActive() bool {
	return t.active
}

// Reset clears the history, velocity, and activation. Called whenever no
// hand is detected so stale positions never leak across dropouts.
func (t *Tracker) Reset() {
	t.history = t.history[:0]
	t.active = false
	t.velocity = [2]float64{}
	t.lastUpdate = time.Time{}
}
