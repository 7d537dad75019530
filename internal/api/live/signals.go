package live

import (
	"github.com/paulmach/orb"

	"github.com/joeblew999/photomap/internal/envsync"
	"github.com/joeblew999/photomap/internal/humastar"
	"github.com/joeblew999/photomap/internal/mapview"
	"github.com/joeblew999/photomap/internal/selection"
	"github.com/joeblew999/photomap/internal/style"
)

// Signal names shared with the viewer page.
const (
	SignalSession       = "session"
	SignalSurfaceID     = "surfaceId"
	SignalTheme         = "theme"
	SignalViewport      = "viewport"
	SignalWidth         = "width"
	SignalLocale        = "locale"
	SignalCSSBackground = "cssBackground"
	SignalCSSForeground = "cssForeground"
	SignalLng           = "lng"
	SignalLat           = "lat"
	SignalZoom          = "zoom"
	SignalHits          = "hits"
)

// varSignals maps presentation variables to the signals carrying them.
var varSignals = map[string]string{
	envsync.BackgroundVar: SignalCSSBackground,
	envsync.ForegroundVar: SignalCSSForeground,
}

// EnvironmentFrom reads the viewer environment. An explicit viewport wins
// over a classified width; neither leaves it unresolved.
func EnvironmentFrom(s humastar.Signals) mapview.Environment {
	env := mapview.Environment{
		Theme:    style.ParseTheme(s.String(SignalTheme)),
		Viewport: style.ParseViewport(s.String(SignalViewport)),
		Locale:   s.String(SignalLocale),
	}
	if env.Viewport == "" {
		if w := s.Int(SignalWidth); w > 0 {
			env.Viewport = style.ClassifyWidth(w)
		}
	}
	return env
}

// VarsFrom reads the page's presentation variables. Empty values are
// treated as absent.
func VarsFrom(s humastar.Signals) map[string]string {
	vars := make(map[string]string, len(varSignals))
	for name, sig := range varSignals {
		if v := s.String(sig); v != "" {
			vars[name] = v
		}
	}
	return vars
}

// VarSignals turns presentation variables back into signals; absent
// variables become empty strings so the page removes them.
func VarSignals(vars map[string]string) map[string]any {
	out := make(map[string]any, len(varSignals))
	for name, sig := range varSignals {
		out[sig] = vars[name]
	}
	return out
}

// HitsFrom decodes the hits the map reported, top-most first.
func HitsFrom(s humastar.Signals) ([]selection.Hit, error) {
	var hits []selection.Hit
	if err := s.Decode(SignalHits, &hits); err != nil {
		return nil, err
	}
	return hits, nil
}

// ClickPoint is the clicked position.
func ClickPoint(s humastar.Signals) orb.Point {
	return orb.Point{s.Float(SignalLng), s.Float(SignalLat)}
}
