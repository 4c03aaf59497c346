// Package tray provides the system tray menu: the enable switch, interaction
// mode, overlay toggles and physics preset, all bound to the live settings.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/particles"
	"github.com/ayusman/mudra/internal/settings"
)

// Tray represents the system tray application.
type Tray struct {
	live     *settings.Live
	onViewer func()
	onQuit   func()
	onError  func(error)
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuEnabled   *systray.MenuItem
	menuModes     map[control.Mode]*systray.MenuItem
	menuLandmarks *systray.MenuItem
	menuTrails    *systray.MenuItem
	menuNebula    *systray.MenuItem
	menuPresets   map[string]*systray.MenuItem
	menuStatus    *systray.MenuItem
}

// New creates a Tray over the live settings.
func New(live *settings.Live) *Tray {
	t := &Tray{live: live}
	live.OnChange(func(settings.Settings) { t.refresh() })
	return t
}

// OnViewer sets the callback for the "Open Viewer" item.
func (t *Tray) OnViewer(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onViewer = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// OnError sets the callback for rejected settings updates.
func (t *Tray) OnError(fn func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onError = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand-controlled galaxy")

	t.mu.Lock()
	t.menuEnabled = systray.AddMenuItemCheckbox("Hand Control", "Toggle hand control", false)
	t.menuStatus = systray.AddMenuItem("Waiting for hands", "Detection status")
	t.menuStatus.Disable()
	systray.AddSeparator()

	modes := systray.AddMenuItem("Mode", "Interaction mode")
	t.menuModes = make(map[control.Mode]*systray.MenuItem)
	for _, m := range control.Modes {
		t.menuModes[m] = modes.AddSubMenuItemCheckbox(modeTitle(m), "", false)
	}

	t.menuLandmarks = systray.AddMenuItemCheckbox("Show Hand Skeleton", "Draw detected landmarks", false)
	t.menuTrails = systray.AddMenuItemCheckbox("Show Trails", "Draw palm motion trails", false)
	t.menuNebula = systray.AddMenuItemCheckbox("Show Nebula", "Draw the background nebula", false)

	presets := systray.AddMenuItem("Physics", "Particle physics preset")
	t.menuPresets = make(map[string]*systray.MenuItem)
	for _, name := range particles.PresetNames() {
		t.menuPresets[name] = presets.AddSubMenuItemCheckbox(name, "", false)
	}
	systray.AddSeparator()

	menuViewer := systray.AddMenuItem("Open Viewer...", "Open the galaxy in a browser")
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")
	t.mu.Unlock()

	t.refresh()

	for m, item := range t.menuModes {
		go t.watch(item.ClickedCh, func() { t.SetMode(m) })
	}
	for name, item := range t.menuPresets {
		go t.watch(item.ClickedCh, func() { t.SetPreset(name) })
	}

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuEnabled.ClickedCh:
				t.ToggleEnabled()
			case <-t.menuLandmarks.ClickedCh:
				t.ToggleLandmarks()
			case <-t.menuTrails.ClickedCh:
				t.ToggleTrails()
			case <-t.menuNebula.ClickedCh:
				t.ToggleNebula()
			case <-menuViewer.ClickedCh:
				t.handleViewer()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) watch(ch <-chan struct{}, fn func()) {
	for range ch {
		fn()
	}
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func modeTitle(m control.Mode) string {
	switch m {
	case control.ModeOrbit:
		return "Orbit"
	case control.ModePan:
		return "Pan"
	case control.ModeHybrid:
		return "Hybrid"
	}
	return string(m)
}

func (t *Tray) update(fn func(settings.Settings) settings.Settings) {
	if err := t.live.Update(fn); err != nil {
		t.mu.RLock()
		callback := t.onError
		t.mu.RUnlock()
		if callback != nil {
			callback(err)
		}
	}
}

// ToggleEnabled flips hand control on or off.
func (t *Tray) ToggleEnabled() {
	t.update(func(s settings.Settings) settings.Settings {
		s.Enabled = !s.Enabled
		return s
	})
}

// ToggleLandmarks flips the skeleton overlay.
func (t *Tray) ToggleLandmarks() {
	t.update(func(s settings.Settings) settings.Settings {
		s.ShowLandmarks = !s.ShowLandmarks
		return s
	})
}

// ToggleTrails flips the motion trails.
func (t *Tray) ToggleTrails() {
	t.update(func(s settings.Settings) settings.Settings {
		s.ShowTrails = !s.ShowTrails
		return s
	})
}

// ToggleNebula flips the background nebula.
func (t *Tray) ToggleNebula() {
	t.update(func(s settings.Settings) settings.Settings {
		s.ShowNebula = !s.ShowNebula
		return s
	})
}

// SetMode selects the interaction mode.
func (t *Tray) SetMode(m control.Mode) {
	t.update(func(s settings.Settings) settings.Settings {
		s.Mode = m
		return s
	})
}

// SetPreset selects the physics preset.
func (t *Tray) SetPreset(name string) {
	t.update(func(s settings.Settings) settings.Settings {
		s.Preset = name
		return s
	})
}

// SetStatus updates the status line, e.g. with the current hand hint.
func (t *Tray) SetStatus(text string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(text)
	}
}

// refresh mirrors the live settings into the check marks.
func (t *Tray) refresh() {
	s := t.live.Load()

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuEnabled == nil {
		return
	}
	setChecked(t.menuEnabled, s.Enabled)
	setChecked(t.menuLandmarks, s.ShowLandmarks)
	setChecked(t.menuTrails, s.ShowTrails)
	setChecked(t.menuNebula, s.ShowNebula)
	for m, item := range t.menuModes {
		setChecked(item, m == s.Mode)
	}
	for name, item := range t.menuPresets {
		setChecked(item, name == s.Preset)
	}
}

func setChecked(item *systray.MenuItem, on bool) {
	if on {
		item.Check()
	} else {
		item.Uncheck()
	}
}

// handleViewer handles the viewer menu item click.
func (t *Tray) handleViewer() {
	t.mu.RLock()
	callback := t.onViewer
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}
