package store

import (
	"testing"

	"github.com/kevinyhe/handy/internal/gesture"
)

func TestSettings_LoadDefaultsWhenEmpty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Settings().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != gesture.DefaultSettings() {
		t.Errorf("Load() on empty store = %+v, want defaults", got)
	}
}

func TestSettings_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	want := gesture.DefaultSettings()
	want.Sensitivity = 9.5
	want.MoveThreshold = 0.31
	want.ScrollMaxSpeed = 45

	if err := s.Settings().Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Settings().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestSettings_SaveOverwrites(t *testing.T) {
	s := newTestStore(t)

	first := gesture.DefaultSettings()
	first.Sensitivity = 2.0
	if err := s.Settings().Save(first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := first
	second.Sensitivity = 8.0
	if err := s.Settings().Save(second); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := s.Settings().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Sensitivity != 8.0 {
		t.Errorf("Sensitivity = %v, want 8.0", got.Sensitivity)
	}
}

func TestSettings_PartialRowsKeepDefaults(t *testing.T) {
	s := newTestStore(t)

	// A database written by an older version may hold only some keys.
	_, err := s.DB().Exec(`INSERT INTO settings (key, value) VALUES ('mouse_sensitivity', '3.5')`)
	if err != nil {
		t.Fatalf("insert error = %v", err)
	}

	got, err := s.Settings().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Sensitivity != 3.5 {
		t.Errorf("Sensitivity = %v, want 3.5", got.Sensitivity)
	}
	defaults := gesture.DefaultSettings()
	if got.DeadZone != defaults.DeadZone {
		t.Errorf("DeadZone = %v, want default %v", got.DeadZone, defaults.DeadZone)
	}
}

func TestSettings_UnknownKeysIgnored(t *testing.T) {
	s := newTestStore(t)

	_, err := s.DB().Exec(`INSERT INTO settings (key, value) VALUES ('retired_option', '42')`)
	if err != nil {
		t.Fatalf("insert error = %v", err)
	}

	got, err := s.Settings().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != gesture.DefaultSettings() {
		t.Errorf("Load() = %+v, want defaults", got)
	}
}
