// Package viewer ties the map pieces together for one viewer session. Every
// handler runs to completion under the session lock, so events from
// different sources are processed one at a time, never interleaved.
package viewer

import (
	"sync"

	"github.com/paulmach/orb"

	"github.com/joeblew999/photomap/internal/envsync"
	"github.com/joeblew999/photomap/internal/mapview"
	"github.com/joeblew999/photomap/internal/metrics"
	"github.com/joeblew999/photomap/internal/photo"
	"github.com/joeblew999/photomap/internal/selection"
	"github.com/joeblew999/photomap/internal/style"
)

// Update tells the page what to re-render after an event. Zero fields mean
// "unchanged".
type Update struct {
	Surface               *mapview.Surface
	PopupChanged          bool
	Popup                 *selection.Popup
	Vars                  map[string]string
	AttachLanguageControl bool
}

// Merge combines two updates, later fields winning.
func (u Update) Merge(o Update) Update {
	if o.Surface != nil {
		u.Surface = o.Surface
	}
	if o.PopupChanged {
		u.PopupChanged = true
		u.Popup = o.Popup
	}
	if o.Vars != nil {
		u.Vars = o.Vars
	}
	u.AttachLanguageControl = u.AttachLanguageControl || o.AttachLanguageControl
	return u
}

// Empty reports whether nothing needs re-rendering.
func (u Update) Empty() bool {
	return u.Surface == nil && !u.PopupChanged && u.Vars == nil && !u.AttachLanguageControl
}

// Session is the state of one page showing the map.
type Session struct {
	ID string

	mu        sync.Mutex
	env       mapview.Environment
	builder   photo.Builder
	dataset   *photo.Dataset
	selection selection.Controller
	vars      *envsync.MapVars
	theme     *envsync.Sync
	locale    *mapview.LocaleGuard
	surfaceID string
	closed    bool
	done      chan struct{}
	metrics   *metrics.Collector
}

// NewSession starts a session. vars are the page's current presentation
// variables; the theme override is applied on top of them immediately.
func NewSession(id string, env mapview.Environment, vars map[string]string, m *metrics.Collector) *Session {
	s := &Session{
		ID:      id,
		env:     env,
		vars:    envsync.NewMapVars(vars),
		locale:  &mapview.LocaleGuard{},
		done:    make(chan struct{}),
		metrics: m,
	}
	s.theme = envsync.New(s.vars)
	s.theme.Apply(env.Theme)
	return s
}

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Environment returns the session's current environment.
func (s *Session) Environment() mapview.Environment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env
}

// Surface describes the map for the current environment and dataset.
func (s *Session) Surface() mapview.Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface()
}

func (s *Session) surface() mapview.Surface {
	return mapview.Describe(s.env, s.builder.Build(s.dataset))
}

// Vars returns the page's presentation variables as they should be now.
func (s *Session) Vars() map[string]string {
	return s.vars.Snapshot()
}

// Popup returns the open popup, if any.
func (s *Session) Popup() (selection.Popup, bool) {
	return s.selection.Popup()
}

// SetDataset swaps in a new dataset. Feature indices are positions, not
// ids, so an open popup is closed when the dataset changes.
func (s *Session) SetDataset(ds *photo.Dataset) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || ds == s.dataset {
		return Update{}
	}
	s.dataset = ds
	u := Update{Surface: ptr(s.surface())}
	if _, open := s.selection.State().(selection.Selected); open {
		s.selection.Reset()
		u.PopupChanged = true
	}
	return u
}

// Click handles hits reported by the map, top-most first.
func (s *Session) Click(hits []selection.Hit) Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Update{}
	}
	return s.click(hits)
}

// ClickAt hit-tests a click position at zoom against the session's features.
func (s *Session) ClickAt(pt orb.Point, zoom float64) Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Update{}
	}
	return s.click(mapview.HitTest(s.builder.Build(s.dataset), pt, zoom))
}

func (s *Session) click(hits []selection.Hit) Update {
	st := s.selection.OnMapClick(hits)
	sel, ok := st.(selection.Selected)
	s.metrics.Click(ok)

	u := Update{PopupChanged: true}
	if ok {
		p := selection.PopupFor(sel.Feature)
		u.Popup = &p
	}
	return u
}

// ClosePopup handles the popup's own close action.
func (s *Session) ClosePopup() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Update{}
	}
	s.selection.OnPopupCloseRequested()
	return Update{PopupChanged: true}
}

// SetTheme restores the previous override and applies the new theme.
func (s *Session) SetTheme(t style.Theme) Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Update{}
	}
	s.env.Theme = t
	s.theme.Apply(t)
	return s.rebuilt(Update{Vars: s.vars.Snapshot()})
}

// SetViewport changes zoom defaults and control placement.
func (s *Session) SetViewport(v style.ViewportClass) Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || v == s.env.Viewport {
		return Update{}
	}
	s.env.Viewport = v
	return s.rebuilt(Update{})
}

// rebuilt adds the new surface to u. The page replaces its map when the
// style or controls change, so an open popup is sent again with it.
func (s *Session) rebuilt(u Update) Update {
	u.Surface = ptr(s.surface())
	if p, open := s.selection.Popup(); open {
		u.PopupChanged = true
		u.Popup = &p
	}
	return u
}

// SetLocale changes the locale; the language control may become due.
func (s *Session) SetLocale(locale string) Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Update{}
	}
	s.env.Locale = locale
	return Update{AttachLanguageControl: s.attachLanguage()}
}

// SurfaceReady marks a new map surface instance as loaded.
func (s *Session) SurfaceReady(surfaceID string) Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Update{}
	}
	if s.surfaceID != "" && s.surfaceID != surfaceID {
		s.locale.Forget(s.surfaceID)
	}
	s.surfaceID = surfaceID
	return Update{AttachLanguageControl: s.attachLanguage()}
}

func (s *Session) attachLanguage() bool {
	ok := s.locale.Attach(s.surfaceID, s.surfaceID != "", s.env.Locale)
	if ok {
		s.metrics.LanguageControlAttached()
	}
	return ok
}

// Close tears the session down, restoring the presentation variables.
func (s *Session) Close() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Update{}
	}
	s.closed = true
	close(s.done)
	s.theme.Release()
	s.selection.Reset()
	return Update{PopupChanged: true, Vars: s.vars.Snapshot()}
}

func ptr[T any](v T) *T { return &v }
