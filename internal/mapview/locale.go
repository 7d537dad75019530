package mapview

import "sync"

// LanguageControlLocale is the locale that gets the extra language control.
const LanguageControlLocale = "zh"

// LocaleGuard attaches the language control at most once per surface.
type LocaleGuard struct {
	mu       sync.Mutex
	attached map[string]struct{}
}

// Attach reports whether the language control must be attached now: the
// surface is ready, the locale matches, and this surface has not had it yet.
func (g *LocaleGuard) Attach(surfaceID string, ready bool, locale string) bool {
	if !ready || surfaceID == "" || locale != LanguageControlLocale {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.attached == nil {
		g.attached = make(map[string]struct{})
	}
	if _, done := g.attached[surfaceID]; done {
		return false
	}
	g.attached[surfaceID] = struct{}{}
	return true
}

// Attached reports whether the surface already has the control.
func (g *LocaleGuard) Attached(surfaceID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.attached[surfaceID]
	return ok
}

// Forget drops a torn-down surface.
func (g *LocaleGuard) Forget(surfaceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.attached, surfaceID)
}
