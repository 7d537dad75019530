package photo

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON property keys carried by every photo feature.
const (
	PropIndex           = "index"
	PropURL             = "url"
	PropBlurPlaceholder = "blurPlaceholder"
	PropWidth           = "width"
	PropHeight          = "height"
)

// Attributes are the style and popup relevant fields of a feature.
type Attributes struct {
	URL             string `json:"url"`
	BlurPlaceholder string `json:"blurPlaceholder,omitempty"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}

// Feature is a single renderable point. Index is the position in the source
// sequence; it orders rendering and keys the color ramp, it is not a photo id.
type Feature struct {
	Index      int
	Point      orb.Point
	Attributes Attributes
}

// FeatureCollection is the immutable feature set built from one dataset.
type FeatureCollection struct {
	Features []Feature
}

// Len returns the number of features.
func (fc *FeatureCollection) Len() int {
	if fc == nil {
		return 0
	}
	return len(fc.Features)
}

// At returns the feature at index i.
func (fc *FeatureCollection) At(i int) (Feature, bool) {
	if fc == nil || i < 0 || i >= len(fc.Features) {
		return Feature{}, false
	}
	return fc.Features[i], true
}

// GeoJSON returns the collection as an orb FeatureCollection, ready to be
// handed to the map as a GeoJSON source.
func (fc *FeatureCollection) GeoJSON() *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	if fc == nil {
		return out
	}
	for _, f := range fc.Features {
		out.Append(f.GeoJSON())
	}
	return out
}

// GeoJSON returns the feature as an orb GeoJSON feature.
func (f Feature) GeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.Point)
	gf.ID = f.Index
	gf.Properties[PropIndex] = f.Index
	gf.Properties[PropURL] = f.Attributes.URL
	gf.Properties[PropBlurPlaceholder] = f.Attributes.BlurPlaceholder
	gf.Properties[PropWidth] = f.Attributes.Width
	gf.Properties[PropHeight] = f.Attributes.Height
	return gf
}

// FeatureFromGeoJSON extracts a photo feature from a GeoJSON feature, as
// reported back by the map's hit test. ok is false for non-point geometry.
func FeatureFromGeoJSON(gf *geojson.Feature) (f Feature, ok bool) {
	if gf == nil {
		return Feature{}, false
	}
	pt, ok := gf.Geometry.(orb.Point)
	if !ok {
		return Feature{}, false
	}
	props := gf.Properties
	return Feature{
		Index: props.MustInt(PropIndex, -1),
		Point: pt,
		Attributes: Attributes{
			URL:             props.MustString(PropURL, ""),
			BlurPlaceholder: props.MustString(PropBlurPlaceholder, ""),
			Width:           props.MustInt(PropWidth, 0),
			Height:          props.MustInt(PropHeight, 0),
		},
	}, true
}

// Build converts records into features in input order. A nil input means
// the records are not available yet and yields nil.
func Build(records []Record) *FeatureCollection {
	if records == nil {
		return nil
	}
	features := make([]Feature, len(records))
	for i, r := range records {
		features[i] = Feature{
			Index: i,
			Point: orb.Point{r.Longitude, r.Latitude},
			Attributes: Attributes{
				URL:             r.URL,
				BlurPlaceholder: r.BlurPlaceholder,
				Width:           r.Width,
				Height:          r.Height,
			},
		}
	}
	return &FeatureCollection{Features: features}
}

// Builder memoizes Build on the identity of the dataset it was given.
type Builder struct {
	mu      sync.Mutex
	dataset *Dataset
	version uint64
	fc      *FeatureCollection
	builds  int
}

// Build returns the features for ds, rebuilding only when ds is a different
// dataset (pointer or version) than the previous call.
func (b *Builder) Build(ds *Dataset) *FeatureCollection {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ds == nil {
		b.dataset, b.version, b.fc = nil, 0, nil
		return nil
	}
	if ds == b.dataset && ds.Version == b.version && b.fc != nil {
		return b.fc
	}
	b.dataset = ds
	b.version = ds.Version
	b.fc = Build(ds.Records)
	if b.fc == nil {
		b.fc = &FeatureCollection{}
	}
	b.builds++
	return b.fc
}

// Builds reports how many times the builder actually recomputed.
func (b *Builder) Builds() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builds
}
