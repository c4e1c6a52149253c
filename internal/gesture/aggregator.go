package gesture

import (
	"log"
	"sync"
	"time"

	"github.com/kevinyhe/handy/internal/detector"
)

// FrameDeadline bounds the total wait for all classifiers in one frame.
// Classifiers that miss it are dropped from that frame's result; their
// goroutines are abandoned, not cancelled, and their late results discarded.
const FrameDeadline = 50 * time.Millisecond

// Aggregator runs all gesture classifiers concurrently against a snapshot
// and merges their results into one gesture map per frame.
type Aggregator struct {
	classifiers []Classifier
	config      *Config
	mu          sync.RWMutex
	last        Map
}

// NewAggregator creates an Aggregator with the standard classifier set.
func NewAggregator(config *Config) *Aggregator {
	return newAggregator(config,
		newLeftClickClassifier(),
		newRightClickClassifier(),
		newMoveClassifier(),
		newDragClassifier(),
		newScrollClassifier(),
	)
}

func newAggregator(config *Config, classifiers ...Classifier) *Aggregator {
	return &Aggregator{
		classifiers: classifiers,
		config:      config,
		last:        Map{},
	}
}

type outcome struct {
	name Name
	res  Result
	ok   bool
}

// Detect evaluates every classifier against the snapshot, in parallel, and
// returns the merged gesture map. Each frame's map is recomputed from
// scratch; the classifiers are pure, so there is no cross-frame state. A
// classifier that panics is logged and excluded, never fatal.
func (a *Aggregator) Detect(snap *detector.Snapshot) Map {
	gestures := make(Map, len(a.classifiers))
	if snap == nil {
		a.storeLast(gestures)
		return gestures
	}

	// One settings read per frame: live updates land at frame boundaries.
	cfg := a.config.Snapshot()

	results := make(chan outcome, len(a.classifiers))
	for _, c := range a.classifiers {
		go runClassifier(c, snap, cfg, results)
	}

	deadline := time.NewTimer(FrameDeadline)
	defer deadline.Stop()

	for pending := len(a.classifiers); pending > 0; pending-- {
		select {
		case o := <-results:
			if o.ok {
				gestures[o.name] = o.res
			}
		case <-deadline.C:
			// Fail open: the missing gesture is simply absent this frame.
			a.storeLast(gestures)
			return gestures
		}
	}

	a.storeLast(gestures)
	return gestures
}

// runClassifier evaluates one classifier, converting a panic into an empty
// outcome so a faulty classifier cannot take down the pipeline.
func runClassifier(c Classifier, snap *detector.Snapshot, cfg Settings, results chan<- outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("gesture: %s classifier fault: %v", c.Name(), r)
			results <- outcome{name: c.Name()}
		}
	}()

	res, ok := c.Detect(snap, cfg)
	results <- outcome{name: c.Name(), res: res, ok: ok}
}

// Last returns the most recently produced gesture map. It is a cached copy
// for introspection (tray, debug stream), not authoritative state.
func (a *Aggregator) Last() Map {
	a.mu.RLock()
	defer a.mu.RUnlock()

	copied := make(Map, len(a.last))
	for name, res := range a.last {
		copied[name] = res
	}
	return copied
}

func (a *Aggregator) storeLast(m Map) {
	a.mu.Lock()
	a.last = m
	a.mu.Unlock()
}
