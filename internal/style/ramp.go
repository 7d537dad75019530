package style

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Ramp is a linear interpolation between two colors.
type Ramp struct {
	Start color.RGBA
	End   color.RGBA
}

// The glow and point ramps share the index domain so a feature's halo and
// marker stay visually correlated.
var (
	GlowRamp  = Ramp{Start: mustHex("#60a5fa"), End: mustHex("#f472b6")}
	PointRamp = Ramp{Start: mustHex("#1d4ed8"), End: mustHex("#be185d")}
)

// DomainMax is the upper end of the index domain for a dataset of the given
// size: the last index, and never less than 1 so the range cannot collapse.
func DomainMax(datasetSize int) int {
	if datasetSize-1 < 1 {
		return 1
	}
	return datasetSize - 1
}

// ResolveColorRamp returns the color for the feature at index in a dataset
// of datasetSize features. The first feature gets Start and the last gets End;
// indices outside the domain are clamped.
func ResolveColorRamp(r Ramp, index, datasetSize int) color.RGBA {
	hi := DomainMax(datasetSize)
	t := float64(index) / float64(hi)
	return r.At(t)
}

// At returns the color at fraction t of the ramp, clamped to [0, 1].
func (r Ramp) At(t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	return color.RGBA{
		R: lerp8(r.Start.R, r.End.R, t),
		G: lerp8(r.Start.G, r.End.G, t),
		B: lerp8(r.Start.B, r.End.B, t),
		A: lerp8(r.Start.A, r.End.A, t),
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses #rgb or #rrggbb.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func mustHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Layer identifies one of the three photo layers, bottom to top.
type Layer string

const (
	HitTargetLayer Layer = "photo-hit-target"
	GlowLayer      Layer = "photo-glow"
	PointLayer     Layer = "photo-point"
)

// Stop is a zoom → radius pair.
type Stop struct {
	Zoom   float64
	Radius float64
}

// RadiusStops grow with zoom for every layer. The hit-target layer is the
// largest at every zoom so near misses still register.
var RadiusStops = map[Layer][]Stop{
	HitTargetLayer: {{0, 12}, {8, 18}, {16, 28}},
	GlowLayer:      {{0, 6}, {8, 10}, {16, 16}},
	PointLayer:     {{0, 2.5}, {8, 4}, {16, 7}},
}

// ResolveRadius interpolates the layer's radius in pixels at zoom, clamping
// outside the stop range. Unknown layers have radius 0.
func ResolveRadius(l Layer, zoom float64) float64 {
	stops := RadiusStops[l]
	if len(stops) == 0 {
		return 0
	}
	if zoom <= stops[0].Zoom {
		return stops[0].Radius
	}
	for i := 1; i < len(stops); i++ {
		lo, hi := stops[i-1], stops[i]
		if zoom <= hi.Zoom {
			t := (zoom - lo.Zoom) / (hi.Zoom - lo.Zoom)
			return lo.Radius + (hi.Radius-lo.Radius)*t
		}
	}
	return stops[len(stops)-1].Radius
}
