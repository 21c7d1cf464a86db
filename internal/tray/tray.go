// Package tray shows drishti's system tray menu while `drishti serve -tray`
// runs: a detection toggle, the last recognised gesture, a shortcut to the
// web UI and quit.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

const (
	titleEnabled  = "● Detecting"
	titleDisabled = "○ Paused"
)

// Tray is the menu bar controller. Callbacks run on the tray's event
// goroutine.
type Tray struct {
	mu       sync.RWMutex
	enabled  bool
	last     string
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()

	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a tray showing the given detection state.
func New(enabled bool) *Tray {
	return &Tray{enabled: enabled}
}

// OnToggle sets the callback for the detection toggle.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback for "Open drishti...".
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for "Quit".
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run shows the tray and blocks until Quit. On macOS it must be called
// from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("drishti")
	systray.SetTooltip("drishti gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume gesture detection")
	systray.AddSeparator()
	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last recognised gesture")
	t.menuLast.Disable()
	t.mu.Unlock()

	systray.AddSeparator()
	menuOpen := systray.AddMenuItem("Open drishti...", "Open the web UI in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Stop drishti")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.Toggle()
			case <-menuOpen.ClickedCh:
				t.mu.RLock()
				fn := t.onOpen
				t.mu.RUnlock()
				if fn != nil {
					fn()
				}
			case <-menuQuit.ClickedCh:
				t.mu.RLock()
				fn := t.onQuit
				t.mu.RUnlock()
				if fn != nil {
					fn()
				}
				systray.Quit()
				return
			}
		}
	}()
}

// Toggle flips the detection state and reports it to the toggle callback.
func (t *Tray) Toggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	fn := t.onToggle
	t.mu.Unlock()

	if fn != nil {
		fn(enabled)
	}
}

// SetLastGesture shows name as the last recognised gesture.
func (t *Tray) SetLastGesture(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = name
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(name))
	}
}

// IsEnabled returns the state the menu shows.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// LastGesture returns the name shown as the last gesture.
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func toggleTitle(enabled bool) string {
	if enabled {
		return titleEnabled
	}
	return titleDisabled
}

func lastTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}
