// Package gesture classifies hand landmark snapshots into pointer-control
// gestures.
package gesture

import (
	"fmt"
	"sync"
)

// Settings holds all live-tunable parameters for gesture classification and
// motion control. Distance thresholds are fractions of the measured palm
// size, which keeps detection independent of hand-to-camera distance.
type Settings struct {
	// Gesture thresholds, as fractions of palm size.
	LeftClickThreshold  float64 `json:"left_click_threshold"`
	RightClickThreshold float64 `json:"right_click_threshold"`
	MoveThreshold       float64 `json:"move_threshold"`
	DragThreshold       float64 `json:"drag_threshold"`
	ScrollThreshold     float64 `json:"scroll_threshold"`

	// Scroll speed curve.
	ScrollBaseSpeed          float64 `json:"scroll_base_speed"`
	ScrollMaxSpeed           float64 `json:"scroll_max_speed"`
	ScrollStraightnessFactor float64 `json:"scroll_straightness_factor"`

	// Motion control.
	Sensitivity  float64 `json:"mouse_sensitivity"`
	Smoothing    float64 `json:"mouse_smoothing"`
	DeadZone     float64 `json:"dead_zone"`
	BasePalmSize float64 `json:"base_palm_size"`
}

// DefaultSettings returns the stock tuning.
func DefaultSettings() Settings {
	return Settings{
		LeftClickThreshold:  0.2244444444,
		RightClickThreshold: 0.2244444444,
		MoveThreshold:       0.2877777778,
		DragThreshold:       0.20,
		ScrollThreshold:     0.2477777778,

		ScrollBaseSpeed:          10.0,
		ScrollMaxSpeed:           30.0,
		ScrollStraightnessFactor: 2.0,

		Sensitivity:  6.0,
		Smoothing:    0.4,
		DeadZone:     0.8,
		BasePalmSize: 110.0,
	}
}

// Validate reports whether the settings are usable. It rejects values that
// would make a classifier unable to fire or the controller misbehave.
func (s Settings) Validate() error {
	checks := []struct {
		name string
		ok   bool
	}{
		{"left_click_threshold", s.LeftClickThreshold > 0},
		{"right_click_threshold", s.RightClickThreshold > 0},
		{"move_threshold", s.MoveThreshold > 0},
		{"drag_threshold", s.DragThreshold > 0},
		{"scroll_threshold", s.ScrollThreshold > 0},
		{"scroll_base_speed", s.ScrollBaseSpeed > 0},
		{"scroll_max_speed", s.ScrollMaxSpeed >= s.ScrollBaseSpeed},
		{"scroll_straightness_factor", s.ScrollStraightnessFactor > 0},
		{"mouse_sensitivity", s.Sensitivity > 0},
		{"mouse_smoothing", s.Smoothing >= 0 && s.Smoothing < 1},
		{"dead_zone", s.DeadZone >= 0},
		{"base_palm_size", s.BasePalmSize > 0},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("invalid setting %s", c.name)
		}
	}
	return nil
}

// Config is the shared, mutable configuration handed to the aggregator and
// motion controller. Writers (settings API, tray, store) update it at any
// time; readers take a Snapshot once per frame, so a change lands atomically
// at the next frame boundary.
type Config struct {
	mu sync.RWMutex
	s  Settings
}

// NewConfig creates a Config seeded with the given settings.
func NewConfig(s Settings) *Config {
	return &Config{s: s}
}

// Snapshot returns a copy of the current settings.
func (c *Config) Snapshot() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s
}

// Update replaces the settings wholesale.
func (c *Config) Update(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s = s
}

// Apply mutates the settings under the lock, for partial updates.
func (c *Config) Apply(fn func(*Settings)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.s)
}
