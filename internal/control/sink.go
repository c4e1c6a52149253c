// Package control turns per-frame gesture maps and pointer positions into
// ordered pointer actions: relative motion, button transitions, and scrolls.
package control

import "sync"

// Button identifies a mouse button.
type Button string

const (
	ButtonLeft  Button = "left"
	ButtonRight Button = "right"
)

// Sink applies pointer actions to the operating system. Implementations
// apply relative moves against the current cursor position with no
// animation. A sink error means the action was dropped; callers never retry,
// since the next frame's relative delta corrects for it.
type Sink interface {
	MoveRelative(dx, dy float64) error
	ButtonDown(b Button) error
	ButtonUp(b Button) error
	Scroll(clicks int) error
}

// ActionType names one kind of emitted action.
type ActionType string

const (
	ActionMove       ActionType = "move"
	ActionButtonDown ActionType = "button_down"
	ActionButtonUp   ActionType = "button_up"
	ActionScroll     ActionType = "scroll"
)

// Action records one emitted sink call, for observability and tests.
type Action struct {
	Type   ActionType `json:"type"`
	DX     float64    `json:"dx,omitempty"`
	DY     float64    `json:"dy,omitempty"`
	Button Button     `json:"button,omitempty"`
	Amount int        `json:"amount,omitempty"`
}

// RecordingSink captures actions instead of injecting them. Used by tests
// and available as a dry-run sink.
type RecordingSink struct {
	mu      sync.Mutex
	actions []Action
	err     error
}

// NewRecordingSink creates an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// SetError makes every subsequent sink call fail with err.
func (s *RecordingSink) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Actions returns a copy of everything recorded so far.
func (s *RecordingSink) Actions() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Action, len(s.actions))
	copy(out, s.actions)
	return out
}

// Clear drops all recorded actions.
func (s *RecordingSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = s.actions[:0]
}

func (s *RecordingSink) record(a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.actions = append(s.actions, a)
	return nil
}

func (s *RecordingSink) MoveRelative(dx, dy float64) error {
	return s.record(Action{Type: ActionMove, DX: dx, DY: dy})
}

func (s *RecordingSink) ButtonDown(b Button) error {
	return s.record(Action{Type: ActionButtonDown, Button: b})
}

func (s *RecordingSink) ButtonUp(b Button) error {
	return s.record(Action{Type: ActionButtonUp, Button: b})
}

func (s *RecordingSink) Scroll(clicks int) error {
	return s.record(Action{Type: ActionScroll, Amount: clicks})
}
