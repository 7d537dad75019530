// Package envsync applies theme colors to page-level CSS variables as a
// scoped override: the previous values come back when the override ends.
package envsync

import (
	"sync"

	"github.com/joeblew999/photomap/internal/style"
)

// CSS variables owned while an override is active.
const (
	BackgroundVar = "--background"
	ForegroundVar = "--foreground"
)

// Vars is where presentation variables live.
type Vars interface {
	Get(name string) (string, bool)
	Set(name, value string)
	Unset(name string)
}

// MapVars is an in-memory Vars, mirroring a page's root style.
type MapVars struct {
	mu   sync.RWMutex
	vals map[string]string
}

// NewMapVars returns MapVars seeded with initial values.
func NewMapVars(initial map[string]string) *MapVars {
	v := &MapVars{vals: make(map[string]string, len(initial))}
	for k, val := range initial {
		v.vals[k] = val
	}
	return v
}

// Get returns a variable's value and whether it is set.
func (m *MapVars) Get(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vals[name]
	return v, ok
}

// Set assigns a variable.
func (m *MapVars) Set(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vals == nil {
		m.vals = map[string]string{}
	}
	m.vals[name] = value
}

// Unset removes a variable.
func (m *MapVars) Unset(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vals, name)
}

// Snapshot returns a copy of every variable.
func (m *MapVars) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.vals))
	for k, v := range m.vals {
		out[k] = v
	}
	return out
}

// Palette is the background/foreground pair for a theme.
type Palette struct {
	Background string
	Foreground string
}

var (
	DarkPalette  = Palette{Background: "#0b0f17", Foreground: "#e5e7eb"}
	LightPalette = Palette{Background: "#f8fafc", Foreground: "#111827"}
)

// PaletteFor returns the darker pair for Dark and the lighter pair otherwise.
func PaletteFor(t style.Theme) Palette {
	if t.IsDark() {
		return DarkPalette
	}
	return LightPalette
}

type saved struct {
	value string
	ok    bool
}

// Sync holds at most one active override on a Vars.
type Sync struct {
	mu     sync.Mutex
	vars   Vars
	prior  map[string]saved
	active bool
	theme  style.Theme
}

// New returns a Sync writing to vars.
func New(vars Vars) *Sync {
	return &Sync{vars: vars}
}

// Apply ends any active override, records the current variable values and
// writes the theme's palette.
func (s *Sync) Apply(t style.Theme) Palette {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.release()

	s.prior = make(map[string]saved, 2)
	for _, name := range []string{BackgroundVar, ForegroundVar} {
		v, ok := s.vars.Get(name)
		s.prior[name] = saved{value: v, ok: ok}
	}

	p := PaletteFor(t)
	s.vars.Set(BackgroundVar, p.Background)
	s.vars.Set(ForegroundVar, p.Foreground)
	s.active = true
	s.theme = t
	return p
}

// Release restores the values recorded by the last Apply. Variables that were
// absent are removed again. Calling Release without an active override is a no-op.
func (s *Sync) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()
}

func (s *Sync) release() {
	if !s.active {
		return
	}
	for name, prev := range s.prior {
		if prev.ok {
			s.vars.Set(name, prev.value)
		} else {
			s.vars.Unset(name)
		}
	}
	s.prior = nil
	s.active = false
	s.theme = ""
}

// Active reports whether an override is in place and for which theme.
func (s *Sync) Active() (style.Theme, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme, s.active
}
