// Package settings holds the user-facing configuration surface polled by the
// frame loop: interaction mode, overlay toggles and physics preset.
package settings

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/particles"
)

// Settings is one immutable view of the preferences.
type Settings struct {
	Mode          control.Mode `json:"mode"`
	ShowLandmarks bool         `json:"showLandmarks"`
	ShowTrails    bool         `json:"showTrails"`
	ShowNebula    bool         `json:"showNebula"`
	Preset        string       `json:"preset"`
	Enabled       bool         `json:"enabled"`
}

// Defaults returns the preferences used before anything is saved.
func Defaults() Settings {
	return Settings{
		Mode:          control.ModeOrbit,
		ShowLandmarks: true,
		ShowTrails:    true,
		ShowNebula:    true,
		Preset:        "classic",
		Enabled:       true,
	}
}

// Validate checks the mode and preset names.
func (s Settings) Validate() error {
	if _, err := control.ParseMode(string(s.Mode)); err != nil {
		return err
	}
	if _, err := particles.PresetByName(s.Preset); err != nil {
		return err
	}
	return nil
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Mode          *control.Mode `json:"mode,omitempty"`
	ShowLandmarks *bool         `json:"showLandmarks,omitempty"`
	ShowTrails    *bool         `json:"showTrails,omitempty"`
	ShowNebula    *bool         `json:"showNebula,omitempty"`
	Preset        *string       `json:"preset,omitempty"`
	Enabled       *bool         `json:"enabled,omitempty"`
}

// Apply returns s with the patch's fields overlaid.
func (p Patch) Apply(s Settings) Settings {
	if p.Mode != nil {
		s.Mode = *p.Mode
	}
	if p.ShowLandmarks != nil {
		s.ShowLandmarks = *p.ShowLandmarks
	}
	if p.ShowTrails != nil {
		s.ShowTrails = *p.ShowTrails
	}
	if p.ShowNebula != nil {
		s.ShowNebula = *p.ShowNebula
	}
	if p.Preset != nil {
		s.Preset = *p.Preset
	}
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	return s
}

// Live is the current Settings, readable lock-free from the frame loop and
// updated from the HTTP API and the tray.
type Live struct {
	current atomic.Pointer[Settings]

	// notify orders listener calls the same as the stores.
	notify    sync.Mutex
	mu        sync.Mutex
	listeners []func(Settings)
}

// NewLive creates a Live holding initial.
func NewLive(initial Settings) *Live {
	l := &Live{}
	l.current.Store(&initial)
	return l
}

// Load returns the current settings.
func (l *Live) Load() Settings {
	return *l.current.Load()
}

// Store validates and replaces the settings, then notifies listeners.
func (l *Live) Store(s Settings) error {
	return l.Update(func(Settings) Settings { return s })
}

// Update applies fn to the current settings under the writer lock.
// Listeners see updates in the order they were stored, one update at a
// time, so they must not call Update themselves.
func (l *Live) Update(fn func(Settings) Settings) error {
	l.notify.Lock()
	defer l.notify.Unlock()

	l.mu.Lock()
	next := fn(l.Load())
	if err := next.Validate(); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("invalid settings: %w", err)
	}
	l.current.Store(&next)
	listeners := append([]func(Settings){}, l.listeners...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return nil
}

// OnChange registers fn to run after every successful update.
func (l *Live) OnChange(fn func(Settings)) {
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}
