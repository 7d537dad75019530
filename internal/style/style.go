// Package style resolves map presentation from the viewer environment:
// basemap style, initial zoom, control placement and layer paint.
package style

import "strings"

// Theme is the active color scheme. The zero value means unresolved and is
// treated as Light everywhere.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ParseTheme maps any input to a Theme. Unknown values become unresolved.
func ParseTheme(s string) Theme {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Dark:
		return Dark
	case Light:
		return Light
	}
	return ""
}

// IsDark reports whether t is the dark theme.
func (t Theme) IsDark() bool { return t == Dark }

// ViewportClass is the coarse responsive category of the viewer.
type ViewportClass string

const (
	Mobile  ViewportClass = "mobile"
	Desktop ViewportClass = "desktop"
)

// MobileBreakpoint is the viewport width below which a viewer is Mobile.
const MobileBreakpoint = 768

// ParseViewport maps any input to a ViewportClass; unknown is unresolved.
func ParseViewport(s string) ViewportClass {
	switch ViewportClass(strings.ToLower(strings.TrimSpace(s))) {
	case Mobile:
		return Mobile
	case Desktop:
		return Desktop
	}
	return ""
}

// ClassifyWidth derives the viewport class from a screen width in CSS
// pixels. Non-positive widths are unresolved.
func ClassifyWidth(px int) ViewportClass {
	switch {
	case px <= 0:
		return ""
	case px < MobileBreakpoint:
		return Mobile
	default:
		return Desktop
	}
}

// StyleID identifies a basemap style.
type StyleID string

const (
	LightStyle StyleID = "light-style"
	DarkStyle  StyleID = "dark-style"
)

// styleURLs are the basemap documents the page loads for each style.
var styleURLs = map[StyleID]string{
	LightStyle: "https://basemaps.cartocdn.com/gl/positron-gl-style/style.json",
	DarkStyle:  "https://basemaps.cartocdn.com/gl/dark-matter-gl-style/style.json",
}

// URL returns the style document URL.
func (id StyleID) URL() string {
	if u, ok := styleURLs[id]; ok {
		return u
	}
	return styleURLs[LightStyle]
}

// ResolveMapStyle returns the dark style for Dark and the light style for
// anything else, including an unresolved theme.
func ResolveMapStyle(t Theme) StyleID {
	if t == Dark {
		return DarkStyle
	}
	return LightStyle
}

// Initial zoom levels. Mobile starts further out to fit the narrower view.
const (
	MobileZoom  = 1.5
	DesktopZoom = 3.0
)

// ResolveInitialZoom returns the starting zoom for the viewport class.
func ResolveInitialZoom(v ViewportClass) float64 {
	if v == Mobile {
		return MobileZoom
	}
	return DesktopZoom
}

// Center is the fixed initial camera position as [longitude, latitude].
var Center = [2]float64{105, 35}

// ControlPlacement positions one of the standard map controls.
type ControlPlacement struct {
	Control  string `json:"control" doc:"Control kind" enum:"navigation,fullscreen"`
	Position string `json:"position" doc:"Map corner" example:"top-right"`
	MarginX  int    `json:"marginX" doc:"Horizontal margin in pixels"`
	MarginY  int    `json:"marginY" doc:"Vertical margin in pixels"`
}

// ResolveControls returns placement for the navigation and fullscreen
// controls. Mobile gets tighter margins; unresolved falls back to desktop.
func ResolveControls(v ViewportClass) []ControlPlacement {
	margin := 16
	if v == Mobile {
		margin = 8
	}
	return []ControlPlacement{
		{Control: "navigation", Position: "bottom-right", MarginX: margin, MarginY: margin * 3},
		{Control: "fullscreen", Position: "top-right", MarginX: margin, MarginY: margin},
	}
}
