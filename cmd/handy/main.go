package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kevinyhe/handy/internal/app"
	"github.com/kevinyhe/handy/internal/gesture"
	"github.com/kevinyhe/handy/internal/injector"
	"github.com/kevinyhe/handy/internal/server"
	"github.com/kevinyhe/handy/internal/store"
	"github.com/kevinyhe/handy/internal/tray"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cameraID := flag.Int("camera", 0, "camera device ID")
	flag.Parse()

	fmt.Println("Handy - Hand Gesture Pointer Control")

	// Initialize the store
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dataDir := filepath.Join(homeDir, ".handy")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dataDir, "handy.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Load persisted settings over the defaults
	settings, err := st.Settings().Load()
	if err != nil {
		log.Printf("Failed to load settings, using defaults: %v", err)
		settings = gesture.DefaultSettings()
	}
	config := gesture.NewConfig(settings)

	events := server.NewEventHub()

	// Build the pipeline with the OS injection sink
	a := app.New(app.Config{
		Settings: config,
		Sink:     injector.New(),
		Events:   events,
		CameraID: *cameraID,
	})

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	defer a.Stop()
	a.SetEnabled(true)

	// Find web directory
	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Settings:  config,
		Camera:    a.Camera(),
		Events:    events,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", *addr)
		if err := srv.ListenAndServe(*addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// The tray owns the main thread; quitting it shuts everything down.
	tr := tray.New()
	tr.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
	})
	tr.OnSettings(func() {
		if err := openBrowser(settingsURL(*addr)); err != nil {
			log.Printf("Failed to open settings page: %v", err)
		}
	})
	tr.OnQuit(func() {
		a.Stop()
	})

	// Feed the tray's last-gesture item from pipeline events. Events arrive
	// one goroutine at a time, so lastGesture needs no lock.
	lastGesture := ""
	events.Observe(func(e server.Event) {
		name := topGesture(e.Gestures)
		if name != lastGesture {
			lastGesture = name
			tr.SetLastGesture(name)
		}
	})

	tr.Run()
}

// topGesture returns the highest-confidence gesture name, or "" when none.
func topGesture(m gesture.Map) string {
	best := ""
	bestConf := 0.0
	for name, res := range m {
		if res.Confidence > bestConf {
			best = string(name)
			bestConf = res.Confidence
		}
	}
	return best
}

// settingsURL converts a listen address like ":8080" into a browsable URL.
func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.handy/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".handy", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
