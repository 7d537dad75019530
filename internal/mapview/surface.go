// Package mapview describes the map surface declaratively: camera, photo
// layers, interactive layers and controls, plus the hit test and the
// locale-gated language control.
package mapview

import (
	"github.com/joeblew999/photomap/internal/photo"
	"github.com/joeblew999/photomap/internal/selection"
	"github.com/joeblew999/photomap/internal/style"
)

// SourceID is the GeoJSON source the photo layers draw from.
const SourceID = "photos"

// Environment is the read-only ambient state of one viewer.
type Environment struct {
	Theme    style.Theme         `json:"theme"`
	Viewport style.ViewportClass `json:"viewport"`
	Locale   string              `json:"locale"`
}

// Camera is the initial view.
type Camera struct {
	Longitude float64 `json:"longitude" doc:"Center longitude"`
	Latitude  float64 `json:"latitude" doc:"Center latitude"`
	Zoom      float64 `json:"zoom" doc:"Initial zoom"`
}

// Layer is a MapLibre circle layer definition.
type Layer struct {
	ID     string         `json:"id" doc:"Layer id"`
	Type   string         `json:"type" doc:"MapLibre layer type" example:"circle"`
	Source string         `json:"source" doc:"Source id"`
	Paint  map[string]any `json:"paint" doc:"MapLibre paint properties"`
}

// Surface is everything the page needs to configure the map.
type Surface struct {
	Camera              Camera                   `json:"camera"`
	Style               style.StyleID            `json:"style" doc:"Resolved basemap style"`
	StyleURL            string                   `json:"styleUrl" doc:"Basemap style document"`
	Source              any                      `json:"source,omitempty" doc:"GeoJSON FeatureCollection of photos, absent while loading"`
	Layers              []Layer                  `json:"layers" doc:"Photo layers, bottom to top"`
	InteractiveLayerIDs []string                 `json:"interactiveLayerIds" doc:"Layers that report clicks"`
	Controls            []style.ControlPlacement `json:"controls"`
}

// photoLayers are drawn bottom to top.
var photoLayers = []style.Layer{style.HitTargetLayer, style.GlowLayer, style.PointLayer}

// Describe builds the surface for env. A nil collection renders no photo
// source and no photo layers.
func Describe(env Environment, fc *photo.FeatureCollection) Surface {
	id := style.ResolveMapStyle(env.Theme)
	s := Surface{
		Camera: Camera{
			Longitude: style.Center[0],
			Latitude:  style.Center[1],
			Zoom:      style.ResolveInitialZoom(env.Viewport),
		},
		Style:               id,
		StyleURL:            id.URL(),
		Layers:              []Layer{},
		InteractiveLayerIDs: InteractiveLayerIDs(),
		Controls:            style.ResolveControls(env.Viewport),
	}
	if fc == nil {
		return s
	}

	s.Source = fc.GeoJSON()
	for _, l := range photoLayers {
		s.Layers = append(s.Layers, Layer{
			ID:     string(l),
			Type:   "circle",
			Source: SourceID,
			Paint:  style.Paint(l, fc.Len()),
		})
	}
	return s
}

// InteractiveLayerIDs returns the ids of the hit-target and point layers.
func InteractiveLayerIDs() []string {
	ids := make([]string, len(selection.InteractiveLayers))
	for i, l := range selection.InteractiveLayers {
		ids[i] = string(l)
	}
	return ids
}
