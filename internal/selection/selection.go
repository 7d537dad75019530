// Package selection owns the single-popup selection state of a map view.
package selection

import (
	"sync"

	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/photomap/internal/photo"
	"github.com/joeblew999/photomap/internal/style"
)

// InteractiveLayers are the only layers whose hits may select a feature.
var InteractiveLayers = []style.Layer{style.HitTargetLayer, style.PointLayer}

// IsInteractive reports whether hits on layer id may select a feature.
func IsInteractive(id string) bool {
	for _, l := range InteractiveLayers {
		if string(l) == id {
			return true
		}
	}
	return false
}

// State is either Empty or Selected. The unexported method closes the set.
type State interface {
	isState()
}

// Empty means no popup is open.
type Empty struct{}

// Selected holds the one feature whose popup is open.
type Selected struct {
	Feature photo.Feature
}

func (Empty) isState()    {}
func (Selected) isState() {}

// Hit is one feature reported by the map's hit test at the click position.
type Hit struct {
	LayerID string           `json:"layer"`
	Feature *geojson.Feature `json:"feature"`
}

// Popup is what the page renders for the selected feature.
type Popup struct {
	Index           int        `json:"index"`
	Longitude       float64    `json:"longitude"`
	Latitude        float64    `json:"latitude"`
	URL             string     `json:"url"`
	BlurPlaceholder string     `json:"blurPlaceholder,omitempty"`
	Width           int        `json:"width"`
	Height          int        `json:"height"`
	Anchor          string     `json:"anchor"`
	Offset          [2]float64 `json:"offset"`
	CloseOnClick    bool       `json:"closeOnClick"`
}

// PopupOffset is the pixel offset of the popup below its feature.
var PopupOffset = [2]float64{0, 10}

// Controller is the selection state machine. Its zero value is ready and Empty.
type Controller struct {
	mu    sync.Mutex
	state State
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current()
}

func (c *Controller) current() State {
	if c.state == nil {
		return Empty{}
	}
	return c.state
}

// OnMapClick takes the hits under the pointer, top-most first. The first hit
// on an interactive layer selects its feature if the geometry is a point;
// anything else, including no hit at all, clears the selection.
func (c *Controller) OnMapClick(hits []Hit) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Empty{}
	for _, h := range hits {
		if !IsInteractive(h.LayerID) {
			continue
		}
		if f, ok := photo.FeatureFromGeoJSON(h.Feature); ok {
			c.state = Selected{Feature: f}
		}
		break
	}
	return c.state
}

// OnPopupCloseRequested clears the selection unconditionally.
func (c *Controller) OnPopupCloseRequested() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Empty{}
	return c.state
}

// Reset clears the selection, e.g. when the dataset it pointed into changes.
func (c *Controller) Reset() {
	c.OnPopupCloseRequested()
}

// Popup returns the popup for the current selection, if any.
func (c *Controller) Popup() (Popup, bool) {
	sel, ok := c.State().(Selected)
	if !ok {
		return Popup{}, false
	}
	return PopupFor(sel.Feature), true
}

// PopupFor builds the popup content of a feature.
func PopupFor(f photo.Feature) Popup {
	return Popup{
		Index:           f.Index,
		Longitude:       f.Point.Lon(),
		Latitude:        f.Point.Lat(),
		URL:             f.Attributes.URL,
		BlurPlaceholder: f.Attributes.BlurPlaceholder,
		Width:           f.Attributes.Width,
		Height:          f.Attributes.Height,
		Anchor:          "top",
		Offset:          PopupOffset,
		CloseOnClick:    false,
	}
}
