// Package app wires the capture, detection, gesture, and control stages into
// the running pointer-control pipeline.
package app

import (
	"log"
	"sync"

	"github.com/kevinyhe/handy/internal/capture"
	"github.com/kevinyhe/handy/internal/control"
	"github.com/kevinyhe/handy/internal/detector"
	"github.com/kevinyhe/handy/internal/gesture"
	"github.com/kevinyhe/handy/internal/pointer"
	"github.com/kevinyhe/handy/internal/server"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while no hand is tracked and nothing moves.
	IdleFPS = 5
	// ActiveFPS is the frame rate while tracking or after recent motion.
	ActiveFPS = 30
	// IdleTimeoutMs is how long after the last activity the pipeline drops
	// back to idle mode.
	IdleTimeoutMs = 2000
)

// Config holds configuration options for the application.
type Config struct {
	Settings     *gesture.Config
	Sink         control.Sink
	Events       *server.EventHub
	CameraID     int
	MotionThresh float64
}

// App owns the pipeline: an acquisition goroutine feeding frames through a
// latest-wins slot into the processing loop.
type App struct {
	config     Config
	settings   *gesture.Config
	camera     capture.Camera
	motion     *capture.MotionDetector
	detector   detector.Detector
	aggregator *gesture.Aggregator
	tracker    *pointer.Tracker
	controller *control.Controller
	sink       control.Sink
	events     *server.EventHub

	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}

	settings := config.Settings
	if settings == nil {
		settings = gesture.NewConfig(gesture.DefaultSettings())
	}

	sink := config.Sink
	if sink == nil {
		sink = control.NewRecordingSink()
	}

	a := &App{
		config:     config,
		settings:   settings,
		camera:     capture.NewCamera(config.CameraID),
		motion:     capture.NewMotionDetector(motionThreshold),
		aggregator: gesture.NewAggregator(settings),
		tracker:    pointer.NewTracker(),
		sink:       sink,
		events:     config.Events,
		enabled:    false,
		stopCh:     nil,
	}
	a.controller = control.NewController(settings, sink)

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetEnabled enables or disables pointer control.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether pointer control is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
// Must be called before Start.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera sets the camera implementation to use.
// Must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// Start begins the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})

	// The acquisition stage reads as fast as the camera delivers and
	// drops frames the processing stage has no room for, so detection
	// always works on the freshest frame.
	frames := make(chan *frameData, 1)
	a.wg.Add(2)
	go a.acquire(a.stopCh, frames)
	go a.process(a.stopCh, frames)

	log.Println("Pipeline started")
	return nil
}

// Stop halts the pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()

	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}
	close(a.stopCh)
	a.stopCh = nil
	a.mu.Unlock()

	a.wg.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.motion.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Settings returns the live settings config.
func (a *App) Settings() *gesture.Config {
	return a.settings
}

// Tracker returns the pointer tracker.
func (a *App) Tracker() *pointer.Tracker {
	return a.tracker
}
