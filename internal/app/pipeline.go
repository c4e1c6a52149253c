package app

import (
	"image"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/kevinyhe/handy/internal/capture"
	"github.com/kevinyhe/handy/internal/detector"
	"github.com/kevinyhe/handy/internal/gesture"
	"github.com/kevinyhe/handy/internal/server"
)

// frameData carries one captured frame plus its dimensions, taken while the
// Mat is known to be valid.
type frameData struct {
	mat    *gocv.Mat
	width  int
	height int
}

// acquire reads frames from the camera and offers them to the processing
// stage through a single-slot channel. When the slot is occupied the stale
// frame is replaced, so processing always sees the freshest frame.
func (a *App) acquire(stop chan struct{}, frames chan *frameData) {
	defer a.wg.Done()

	for {
		select {
		case <-stop:
			return
		default:
		}

		cam := a.Camera()
		fps := cam.FPS()
		if fps <= 0 {
			fps = capture.DefaultFPS
		}
		interval := time.Second / time.Duration(fps)

		mat, err := cam.ReadFrame()
		if err != nil {
			log.Printf("Error reading frame: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}

		fd := &frameData{mat: mat, width: mat.Cols(), height: mat.Rows()}
		select {
		case frames <- fd:
		default:
			select {
			case stale := <-frames:
				stale.mat.Close()
			default:
			}
			select {
			case frames <- fd:
			default:
				fd.mat.Close()
			}
		}

		time.Sleep(interval)
	}
}

// process is the main loop: detect hands, classify gestures, track the
// pointer, and drive the controller.
//
// The loop runs in two modes, adapted from the camera's activity gating:
// idle mode polls slowly and skips hand detection on still frames;
// any motion or a tracked hand switches to active mode, and two seconds
// without either drops back to idle.
func (a *App) process(stop chan struct{}, frames chan *frameData) {
	defer a.wg.Done()

	activeMode := false
	lastActivity := time.Now()

	for {
		select {
		case <-stop:
			// Drop whatever the acquisition stage left behind.
			select {
			case fd := <-frames:
				fd.mat.Close()
			default:
			}
			return
		case fd := <-frames:
			a.processFrame(fd, &activeMode, &lastActivity)
		}
	}
}

func (a *App) processFrame(fd *frameData, activeMode *bool, lastActivity *time.Time) {
	defer fd.mat.Close()

	if !a.IsEnabled() {
		a.handleAbsent(fd)
		return
	}

	motionDetected, _ := a.motion.Detect(fd.mat)
	if motionDetected {
		*lastActivity = time.Now()
		if !*activeMode {
			*activeMode = true
			a.Camera().SetFPS(ActiveFPS)
			log.Println("Switched to active mode")
		}
	}

	// While idle, a still frame cannot contain a newly arrived hand, so
	// skip the expensive detection.
	if !*activeMode {
		a.handleAbsent(fd)
		return
	}

	hands, err := a.detector.Detect(fd.mat)
	if err != nil {
		log.Printf("Error detecting hands: %v", err)
		return
	}

	snap := (*detector.Snapshot)(nil)
	if len(hands) > 0 {
		snap = detector.NewSnapshot(&hands[0], fd.width, fd.height)
	}

	if snap == nil {
		a.handleAbsent(fd)
		if time.Since(*lastActivity) > IdleTimeoutMs*time.Millisecond {
			*activeMode = false
			a.Camera().SetFPS(IdleFPS)
			log.Println("Switched to idle mode")
		}
		return
	}

	// A tracked hand keeps the pipeline in active mode even when held
	// perfectly still.
	*lastActivity = time.Now()

	gestures := a.aggregator.Detect(snap)

	tip, ok := snap.Point(detector.IndexTip)
	if !ok {
		a.handleAbsent(fd)
		return
	}

	a.tracker.Update(tip)
	_, move := gestures[gesture.Move]
	_, drag := gestures[gesture.Drag]
	a.tracker.SetActive(move || drag)

	pos := a.tracker.SmoothedPosition()
	actions := a.controller.Update(true, pos, snap.PalmSize(), gestures)

	a.publish(server.Event{
		Timestamp: time.Now().UnixMilli(),
		Present:   true,
		Gestures:  gestures,
		PointerX:  pos.X,
		PointerY:  pos.Y,
		PalmSize:  snap.PalmSize(),
		Actions:   actions,
	})
}

// handleAbsent advances the controller and tracker through a frame with no
// usable hand.
func (a *App) handleAbsent(_ *frameData) {
	a.tracker.Reset()
	a.controller.Update(false, image.Point{}, 0, nil)

	a.publish(server.Event{
		Timestamp: time.Now().UnixMilli(),
		Present:   false,
	})
}

// publish forwards an event to the hub when one is attached. The hub never
// blocks, so this is safe on the frame path.
func (a *App) publish(e server.Event) {
	if a.events == nil {
		return
	}
	a.events.Publish(e)
}
